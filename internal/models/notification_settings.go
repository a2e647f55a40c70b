package models

import (
	"gorm.io/datatypes"
)

// ChannelConfig gates one delivery channel for a user.
type ChannelConfig struct {
	Enabled     bool                 `json:"enabled"`
	Types       map[string]bool      `json:"types,omitempty"`      // per-type allow map; absent type = allowed
	Categories  map[string]bool      `json:"categories,omitempty"` // per-category allow map; absent = allowed
	MinPriority NotificationPriority `json:"min_priority,omitempty"`
	Sound       string               `json:"sound,omitempty"`
	Vibration   bool                 `json:"vibration,omitempty"`
}

// QuietHours is a user-local window in which non-urgent notifications
// are deferred. Start/End are "HH:MM"; a window may wrap midnight.
type QuietHours struct {
	Enabled           bool   `json:"enabled"`
	Start             string `json:"start"`
	End               string `json:"end"`
	Timezone          string `json:"timezone"`
	Days              []int  `json:"days,omitempty"` // time.Weekday values; empty = every day
	EmergencyOverride bool   `json:"emergency_override"`
}

// FrequencyLimit caps sends over sliding windows.
type FrequencyLimit struct {
	MaxPerHour      int `json:"max_per_hour,omitempty"`
	MaxPerDay       int `json:"max_per_day,omitempty"`
	MaxPerWeek      int `json:"max_per_week,omitempty"`
	CooldownMinutes int `json:"cooldown_minutes,omitempty"`
}

type BurstAction string

const (
	BurstActionDelay    BurstAction = "delay"
	BurstActionGroup    BurstAction = "group"
	BurstActionSuppress BurstAction = "suppress"
)

// BurstProtection triggers when Threshold sends land within WindowMinutes.
type BurstProtection struct {
	Enabled       bool        `json:"enabled"`
	Threshold     int         `json:"threshold"`
	WindowMinutes int         `json:"window_minutes"`
	Action        BurstAction `json:"action"`
}

type FrequencySettings struct {
	Global  FrequencyLimit            `json:"global"`
	PerType map[string]FrequencyLimit `json:"per_type,omitempty"`
	Burst   BurstProtection           `json:"burst"`
}

// RuleCondition matches notification fields. Leaf conditions set
// Field/Op/Value; composite conditions set All (AND) or Any (OR).
type RuleCondition struct {
	Field string          `json:"field,omitempty"` // type | category | priority | title
	Op    string          `json:"op,omitempty"`    // eq | ne | contains
	Value string          `json:"value,omitempty"`
	All   []RuleCondition `json:"all,omitempty"`
	Any   []RuleCondition `json:"any,omitempty"`
}

type RuleAction string

const (
	RuleActionAllow    RuleAction = "allow"
	RuleActionSuppress RuleAction = "suppress"
	RuleActionReroute  RuleAction = "reroute"
)

// NotificationRule is a user-defined condition -> action pair. The first
// matching enabled rule wins. Reroute rules carry the channel set the
// matched notifications go to instead.
type NotificationRule struct {
	ID        string            `json:"id"`
	Enabled   bool              `json:"enabled"`
	Condition RuleCondition     `json:"condition"`
	Action    RuleAction        `json:"action"`
	Channels  []DeliveryChannel `json:"channels,omitempty"`
}

type NotificationSettings struct {
	BaseModel
	UserID  string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Enabled bool   `gorm:"default:true" json:"enabled"`

	Channels   datatypes.JSONType[map[DeliveryChannel]ChannelConfig] `json:"channels"`
	QuietHours datatypes.JSONType[QuietHours]                        `json:"quiet_hours"`
	Frequency  datatypes.JSONType[FrequencySettings]                 `json:"frequency"`
	Rules      datatypes.JSONType[[]NotificationRule]                `json:"rules"`
}

// DefaultNotificationSettings is what a user without a settings row gets:
// everything on, no quiet hours, burst grouping above 10 sends in 15 min.
func DefaultNotificationSettings(userID string) *NotificationSettings {
	channels := map[DeliveryChannel]ChannelConfig{
		ChannelPush:  {Enabled: true, MinPriority: PriorityLow},
		ChannelEmail: {Enabled: true, MinPriority: PriorityNormal},
		ChannelSMS:   {Enabled: false, MinPriority: PriorityUrgent},
		ChannelInApp: {Enabled: true, MinPriority: PriorityLow},
	}

	return &NotificationSettings{
		UserID:  userID,
		Enabled: true,
		Channels: datatypes.NewJSONType(channels),
		QuietHours: datatypes.NewJSONType(QuietHours{
			Enabled:  false,
			Timezone: "UTC",
		}),
		Frequency: datatypes.NewJSONType(FrequencySettings{
			Burst: BurstProtection{
				Enabled:       true,
				Threshold:     10,
				WindowMinutes: 15,
				Action:        BurstActionGroup,
			},
		}),
	}
}

// ChannelConfigFor returns the config for a channel; missing entries are
// treated as enabled with no restrictions.
func (s *NotificationSettings) ChannelConfigFor(ch DeliveryChannel) ChannelConfig {
	channels := s.Channels.Data()
	if cfg, ok := channels[ch]; ok {
		return cfg
	}
	return ChannelConfig{Enabled: true, MinPriority: PriorityLow}
}
