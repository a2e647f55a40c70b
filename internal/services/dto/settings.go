package dto

import "sav3_backend/internal/models"

// UpdateSettingsRequest overlays the user's stored settings. Absent
// sections keep their stored values; only the sections present in the
// body are replaced.
type UpdateSettingsRequest struct {
	Enabled    *bool                                           `json:"enabled"`
	Channels   map[models.DeliveryChannel]models.ChannelConfig `json:"channels" validate:"omitempty,dive"`
	QuietHours *models.QuietHours                              `json:"quiet_hours"`
	Frequency  *models.FrequencySettings                       `json:"frequency"`
	Rules      []models.NotificationRule                       `json:"rules" validate:"omitempty,dive"`
}

// UpdatePushSettingsRequest is the narrow toggle the mobile clients use.
type UpdatePushSettingsRequest struct {
	Enabled bool            `json:"enabled"`
	Types   map[string]bool `json:"types"`
}

type SettingsResponse struct {
	Enabled    bool                                            `json:"enabled"`
	Channels   map[models.DeliveryChannel]models.ChannelConfig `json:"channels"`
	QuietHours models.QuietHours                               `json:"quiet_hours"`
	Frequency  models.FrequencySettings                        `json:"frequency"`
	Rules      []models.NotificationRule                       `json:"rules,omitempty"`
}
