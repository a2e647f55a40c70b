package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Rank orders priorities for threshold comparisons.
func (p NotificationPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return 1
	}
}

func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSent      NotificationStatus = "sent"
	StatusDelivered NotificationStatus = "delivered"
	StatusRead      NotificationStatus = "read"
	StatusFailed    NotificationStatus = "failed"
	StatusCancelled NotificationStatus = "cancelled"
)

// Status transitions are monotonic: pending -> sent -> delivered -> read,
// with failed/cancelled reachable at any point before read. read, failed
// and cancelled are terminal. A read before dispatch (user opened the
// stored in-app row) jumps straight to read and short-circuits delivery.
var statusTransitions = map[NotificationStatus][]NotificationStatus{
	StatusPending:   {StatusSent, StatusRead, StatusFailed, StatusCancelled},
	StatusSent:      {StatusDelivered, StatusRead, StatusFailed, StatusCancelled},
	StatusDelivered: {StatusRead, StatusFailed, StatusCancelled},
	StatusRead:      {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s NotificationStatus) CanTransitionTo(next NotificationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s NotificationStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

type DeliveryChannel string

const (
	ChannelPush  DeliveryChannel = "push"
	ChannelEmail DeliveryChannel = "email"
	ChannelSMS   DeliveryChannel = "sms"
	ChannelInApp DeliveryChannel = "inapp"
)

func (ch DeliveryChannel) Valid() bool {
	switch ch {
	case ChannelPush, ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// AllChannels is the default channel set when a notification does not
// name its channels explicitly.
func AllChannels() []DeliveryChannel {
	return []DeliveryChannel{ChannelPush, ChannelEmail, ChannelSMS, ChannelInApp}
}

type NotificationCategory string

const (
	CategoryDating    NotificationCategory = "dating"
	CategorySocial    NotificationCategory = "social"
	CategoryCommunity NotificationCategory = "community"
	CategorySystem    NotificationCategory = "system"
)

// NotificationAction is a deep-link button rendered with the notification.
type NotificationAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NotificationMetadata carries delivery context captured at creation time.
type NotificationMetadata struct {
	Source   string `json:"source,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Device   string `json:"device,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Variant  string `json:"variant,omitempty"`
	Grouped  bool   `json:"grouped,omitempty"` // folded into a digest by burst protection
}

type Notification struct {
	BaseModel
	UserID   string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     string               `gorm:"not null;index" json:"type"` // "new_match", "new_message", "new_like", ...
	Category NotificationCategory `gorm:"not null;default:'social'" json:"category"`
	Title    string               `gorm:"not null" json:"title"`
	Body     string               `json:"body"`
	Data     datatypes.JSON       `gorm:"type:jsonb" json:"data,omitempty"` // {"match_id": "...", "sender_id": "..."}
	Priority NotificationPriority `gorm:"not null;default:'normal'" json:"priority"`
	Status   NotificationStatus   `gorm:"not null;default:'pending';index" json:"status"`

	Channels datatypes.JSONSlice[DeliveryChannel]       `json:"channels,omitempty"`
	Actions  datatypes.JSONSlice[NotificationAction]    `json:"actions,omitempty"`
	Metadata datatypes.JSONType[NotificationMetadata]   `json:"metadata,omitempty"`

	ScheduledFor *time.Time `gorm:"index" json:"scheduled_for,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	IsRead       bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the notification passed its expiry.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}

// Due reports whether the notification is ready for dispatch.
func (n *Notification) Due(now time.Time) bool {
	return n.ScheduledFor == nil || !n.ScheduledFor.After(now)
}

// TargetChannels returns the explicit channel list or the full set.
func (n *Notification) TargetChannels() []DeliveryChannel {
	if len(n.Channels) == 0 {
		return AllChannels()
	}
	return n.Channels
}
