package dto

import (
	"time"

	"sav3_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateNotificationRequest struct {
	UserID       string                      `json:"user_id" validate:"required,uuid"`
	Type         string                      `json:"type" validate:"required"`
	Category     models.NotificationCategory `json:"category" validate:"omitempty,oneof=dating social community system"`
	Title        string                      `json:"title" validate:"required,max=100"`
	Body         string                      `json:"body" validate:"omitempty,max=1000"`
	Data         map[string]interface{}      `json:"data"`
	Priority     models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Channels     []models.DeliveryChannel    `json:"channels" validate:"omitempty,dive,oneof=push email sms inapp"`
	Actions      []models.NotificationAction `json:"actions" validate:"omitempty,dive"`
	ScheduledFor *time.Time                  `json:"scheduled_for"`
	ExpiresAt    *time.Time                  `json:"expires_at"`
}

type CreateBulkNotificationsRequest struct {
	// 'dive' validates each element in the slice
	Notifications []*CreateNotificationRequest `json:"notifications" validate:"required,min=1,dive"`
}

type SendBulkNotificationRequest struct {
	UserIDs  []string                    `json:"user_ids" validate:"required,min=1,dive,uuid"`
	Type     string                      `json:"type" validate:"required"`
	Category models.NotificationCategory `json:"category" validate:"omitempty,oneof=dating social community system"`
	Title    string                      `json:"title" validate:"required,max=100"`
	Body     string                      `json:"body" validate:"omitempty,max=1000"`
	Data     map[string]interface{}      `json:"data"`
	Priority models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Channels []models.DeliveryChannel    `json:"channels" validate:"omitempty,dive,oneof=push email sms inapp"`
}

type MarkMultipleReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1,dive,uuid"`
}

// ---------------- Responses ----------------

type NotificationResponse struct {
	ID           string                      `json:"id"`
	UserID       string                      `json:"user_id"`
	Type         string                      `json:"type"`
	Category     models.NotificationCategory `json:"category"`
	Title        string                      `json:"title"`
	Body         string                      `json:"body,omitempty"`
	Data         map[string]interface{}      `json:"data,omitempty"`
	Priority     models.NotificationPriority `json:"priority"`
	Status       models.NotificationStatus   `json:"status"`
	Channels     []models.DeliveryChannel    `json:"channels,omitempty"`
	Actions      []models.NotificationAction `json:"actions,omitempty"`
	IsRead       bool                        `json:"is_read"`
	ReadAt       *time.Time                  `json:"read_at,omitempty"`
	ScheduledFor *time.Time                  `json:"scheduled_for,omitempty"`
	SentAt       *time.Time                  `json:"sent_at,omitempty"`
	ExpiresAt    *time.Time                  `json:"expires_at,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	NextCursor    string                  `json:"next_cursor,omitempty"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
