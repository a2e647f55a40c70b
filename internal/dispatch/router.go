package dispatch

import (
	"context"
	"errors"
	"time"

	"sav3_backend/internal/logger"
	"sav3_backend/internal/models"
)

var ErrAllChannelsFailed = errors.New("all delivery channels failed")

// Sender delivers a notification over one channel.
type Sender interface {
	Channel() models.DeliveryChannel
	Send(ctx context.Context, user *models.User, notification *models.Notification) error
}

// Router fans a notification out to its allowed channels, retrying each
// send per the configured strategy.
type Router struct {
	senders map[models.DeliveryChannel]Sender
	retry   Strategy
}

func NewRouter(retry Strategy, senders ...Sender) *Router {
	byChannel := make(map[models.DeliveryChannel]Sender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}
	return &Router{senders: byChannel, retry: retry}
}

// Dispatch sends over every requested channel and returns the channels
// that succeeded. The notification counts as sent when at least one
// channel got through.
func (r *Router) Dispatch(ctx context.Context, user *models.User, notification *models.Notification, channels []models.DeliveryChannel) ([]models.DeliveryChannel, error) {
	var delivered []models.DeliveryChannel

	for _, ch := range channels {
		sender, ok := r.senders[ch]
		if !ok {
			continue
		}

		start := time.Now()
		err := r.retry.Do(ctx, func() error {
			return sender.Send(ctx, user, notification)
		})
		logger.DispatchLog(notification.ID, string(ch), time.Since(start), err)

		if err == nil {
			delivered = append(delivered, ch)
		}
	}

	if len(delivered) == 0 {
		return nil, ErrAllChannelsFailed
	}
	return delivered, nil
}
