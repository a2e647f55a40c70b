package integration_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sav3_backend/internal/models"
	"sav3_backend/test/helpers"
)

type settingsJSON struct {
	Enabled  bool `json:"enabled"`
	Channels map[models.DeliveryChannel]struct {
		Enabled     bool            `json:"enabled"`
		Types       map[string]bool `json:"types"`
		MinPriority string          `json:"min_priority"`
		Sound       string          `json:"sound"`
	} `json:"channels"`
	QuietHours struct {
		Enabled           bool   `json:"enabled"`
		Start             string `json:"start"`
		End               string `json:"end"`
		Timezone          string `json:"timezone"`
		EmergencyOverride bool   `json:"emergency_override"`
	} `json:"quiet_hours"`
	Frequency struct {
		Global struct {
			MaxPerDay int `json:"max_per_day"`
		} `json:"global"`
		Burst struct {
			Enabled   bool   `json:"enabled"`
			Threshold int    `json:"threshold"`
			Action    string `json:"action"`
		} `json:"burst"`
	} `json:"frequency"`
}

func TestSettings_DefaultsWithoutStoredRow(t *testing.T) {
	ts := GetTestServer(t)
	token, _ := helpers.CreateAndLoginUser(t, ts, "Defaults User", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/settings", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var got settingsJSON
	helpers.ParseEnvelope(t, body, &got)
	assert.True(t, got.Enabled)
	assert.True(t, got.Channels[models.ChannelPush].Enabled)
	assert.True(t, got.Channels[models.ChannelInApp].Enabled)
	assert.False(t, got.Channels[models.ChannelSMS].Enabled, "sms is opt-in")
	assert.False(t, got.QuietHours.Enabled)
	assert.Equal(t, "UTC", got.QuietHours.Timezone)
	assert.True(t, got.Frequency.Burst.Enabled)
	assert.Equal(t, "group", got.Frequency.Burst.Action)
}

func TestSettings_UpdateOverlay(t *testing.T) {
	ts := GetTestServer(t)
	token, _ := helpers.CreateAndLoginUser(t, ts, "Overlay User", models.UserRoleUser)

	// First update sets quiet hours only.
	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/settings", token, map[string]interface{}{
		"quiet_hours": map[string]interface{}{
			"enabled":  true,
			"start":    "22:00",
			"end":      "08:00",
			"timezone": "Europe/Berlin",
		},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var got settingsJSON
	helpers.ParseEnvelope(t, body, &got)
	assert.True(t, got.QuietHours.Enabled)
	assert.Equal(t, "22:00", got.QuietHours.Start)

	// Second update touches frequency; quiet hours must survive.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/settings", token, map[string]interface{}{
		"frequency": map[string]interface{}{
			"global": map[string]interface{}{"max_per_day": 30},
			"burst":  map[string]interface{}{"enabled": true, "threshold": 5, "window_minutes": 10, "action": "delay"},
		},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &got)
	assert.Equal(t, 30, got.Frequency.Global.MaxPerDay)
	assert.Equal(t, "Europe/Berlin", got.QuietHours.Timezone, "untouched sections keep stored values")

	// GET reflects the persisted state.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/settings", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &got)
	assert.True(t, got.QuietHours.Enabled)
	assert.Equal(t, 5, got.Frequency.Burst.Threshold)
}

func TestSettings_UpdateRejectsUnknownChannel(t *testing.T) {
	ts := GetTestServer(t)
	token, _ := helpers.CreateAndLoginUser(t, ts, "Bad Channel User", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/settings", token, map[string]interface{}{
		"channels": map[string]interface{}{
			"carrier_pigeon": map[string]interface{}{"enabled": true},
		},
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	require.NotNil(t, env.Error)
	assert.False(t, env.Error.Retryable)
}

func TestSettings_PushToggle(t *testing.T) {
	ts := GetTestServer(t)
	token, _ := helpers.CreateAndLoginUser(t, ts, "Push Toggle User", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/push-settings", token, map[string]interface{}{
		"enabled": false,
		"types":   map[string]bool{"new_like": false},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var got settingsJSON
	helpers.ParseEnvelope(t, body, &got)
	assert.False(t, got.Channels[models.ChannelPush].Enabled)
	assert.False(t, got.Channels[models.ChannelPush].Types["new_like"])

	// Other channels are untouched by the narrow toggle.
	assert.True(t, got.Channels[models.ChannelEmail].Enabled)
}
