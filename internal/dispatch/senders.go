package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"sav3_backend/internal/models"
	"sav3_backend/pkg/email"
	"sav3_backend/pkg/push"
	"sav3_backend/pkg/sms"
	"sav3_backend/ws"
)

// PushSender delivers through the push gateway using the user's device
// registration token.
type PushSender struct {
	client   *push.Client
	settings SettingsSource
}

// SettingsSource lets senders read per-channel extras (sound etc.)
// without depending on the repository package.
type SettingsSource interface {
	GetForUser(userID string) (*models.NotificationSettings, error)
}

func NewPushSender(client *push.Client, settings SettingsSource) *PushSender {
	return &PushSender{client: client, settings: settings}
}

func (s *PushSender) Channel() models.DeliveryChannel { return models.ChannelPush }

func (s *PushSender) Send(ctx context.Context, user *models.User, notification *models.Notification) error {
	if user.DeviceToken == "" {
		return errors.New("user has no device token")
	}

	sound := "default"
	if s.settings != nil {
		if settings, err := s.settings.GetForUser(user.ID); err == nil {
			if cfg := settings.ChannelConfigFor(models.ChannelPush); cfg.Sound != "" {
				sound = cfg.Sound
			}
		}
	}

	return s.client.Send(ctx, user.DeviceToken, notification.Title, notification.Body,
		json.RawMessage(notification.Data), string(notification.Priority), sound)
}

type EmailSender struct {
	client *email.Client
}

func NewEmailSender(client *email.Client) *EmailSender {
	return &EmailSender{client: client}
}

func (s *EmailSender) Channel() models.DeliveryChannel { return models.ChannelEmail }

func (s *EmailSender) Send(_ context.Context, user *models.User, notification *models.Notification) error {
	if user.Email == "" {
		return errors.New("user has no email")
	}
	return s.client.Send(user.Email, notification.Title, notification.Body)
}

type SMSSender struct {
	client *sms.Client
}

func NewSMSSender(client *sms.Client) *SMSSender {
	return &SMSSender{client: client}
}

func (s *SMSSender) Channel() models.DeliveryChannel { return models.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, user *models.User, notification *models.Notification) error {
	if user.Phone == "" {
		return errors.New("user has no phone number")
	}

	text := notification.Title
	if notification.Body != "" {
		text += ": " + notification.Body
	}
	return s.client.Send(ctx, user.Phone, text)
}

// InAppSender pushes the stored notification to the user's live
// sockets. A user with no open connection is not an error; the row is
// already waiting for them in the list endpoint.
type InAppSender struct {
	hub *ws.WebSocketManager
}

func NewInAppSender(hub *ws.WebSocketManager) *InAppSender {
	return &InAppSender{hub: hub}
}

func (s *InAppSender) Channel() models.DeliveryChannel { return models.ChannelInApp }

func (s *InAppSender) Send(_ context.Context, user *models.User, notification *models.Notification) error {
	s.hub.PushToUser(user.ID, map[string]any{
		"event":        "notification",
		"notification": notification,
	})
	return nil
}
