package integration_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sav3_backend/internal/models"
	"sav3_backend/test/helpers"
)

type campaignJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	Variants     []struct {
		Name   string `json:"name"`
		Weight int    `json:"weight"`
	} `json:"variants"`
	CreatedBy string `json:"created_by"`
}

func campaignPayload(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"type":     "system",
		"category": "system",
		"priority": "normal",
		"audience": map[string]interface{}{"roles": []string{"user"}},
		"variants": []map[string]interface{}{
			{"name": "control", "title": "Hello", "body": "Plain greeting", "weight": 50},
			{"name": "emoji", "title": "Hello!", "body": "Greeting with flair", "weight": 50},
		},
	}
}

func TestCampaign_AdminCRUD(t *testing.T) {
	ts := GetTestServer(t)
	adminToken, admin := helpers.CreateAndLoginUser(t, ts, "Campaign Admin", models.UserRoleAdmin)

	// Without a schedule the campaign stays a draft.
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/campaigns", adminToken, campaignPayload("Winter push"))
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created campaignJSON
	helpers.ParseEnvelope(t, body, &created)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, admin.ID, created.CreatedBy)
	require.Len(t, created.Variants, 2)

	// Scheduling it moves it to scheduled.
	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/admin/campaigns/"+created.ID, adminToken, map[string]interface{}{
		"scheduled_for": future,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var updated campaignJSON
	helpers.ParseEnvelope(t, body, &updated)
	assert.Equal(t, "scheduled", updated.Status)
	require.NotNil(t, updated.ScheduledFor)

	// Fetch and list both see it.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/campaigns/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/campaigns", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	require.NotNil(t, env.Pagination)
	assert.GreaterOrEqual(t, env.Pagination.Total, int64(1))

	// Cancel, then delete.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/admin/campaigns/"+created.ID+"/cancel", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/campaigns/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &updated)
	assert.Equal(t, "cancelled", updated.Status)

	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/admin/campaigns/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/admin/campaigns/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode, body)
}

func TestCampaign_Validation(t *testing.T) {
	ts := GetTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, "Strict Admin", models.UserRoleAdmin)

	// Empty audience.
	payload := campaignPayload("No audience")
	payload["audience"] = map[string]interface{}{}
	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/campaigns", adminToken, payload)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	// Non-positive variant weight.
	payload = campaignPayload("Bad weight")
	payload["variants"] = []map[string]interface{}{
		{"name": "control", "title": "Hello", "weight": 0},
	}
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/campaigns", adminToken, payload)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
}

func TestCampaign_RequiresAdmin(t *testing.T) {
	ts := GetTestServer(t)
	userToken, _ := helpers.CreateAndLoginUser(t, ts, "Plain User", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/campaigns", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}
