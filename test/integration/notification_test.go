package integration_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/test/helpers"
)

type notificationJSON struct {
	ID     string                 `json:"id"`
	UserID string                 `json:"user_id"`
	Type   string                 `json:"type"`
	Title  string                 `json:"title"`
	IsRead bool                   `json:"is_read"`
	Data   map[string]interface{} `json:"data"`
}

func TestNotification_UserFlow(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Flow User", models.UserRoleUser)

	// No notifications yet.
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var countData struct {
		Count int64 `json:"count"`
	}
	helpers.ParseEnvelope(t, body, &countData)
	assert.Equal(t, int64(0), countData.Count)

	first := helpers.CreateNotification(t, ts.DB, user.ID, "First", "first body")
	helpers.CreateNotification(t, ts.DB, user.ID, "Second", "second body")

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &countData)
	assert.Equal(t, int64(2), countData.Count)

	// Newest first, pagination mirrored into headers.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Equal(t, "2", res.Header.Get("X-Total-Count"))

	var list []notificationJSON
	env := helpers.ParseEnvelope(t, body, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Title)
	assert.Equal(t, "First", list[1].Title)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(2), env.Pagination.Total)
	assert.Empty(t, env.Pagination.NextCursor, "no extra page, no cursor")

	// Mark one read; the response reports the affected count.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+first.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &countData)
	assert.Equal(t, int64(1), countData.Count)

	// Unread-only filter hides the read row.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications?unread_only=true", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Second", list[0].Title)

	// read-all, then again: idempotent, second run touches nothing.
	var markData struct {
		Updated int64 `json:"updated"`
	}
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(1), markData.Updated)

	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(0), markData.Updated)

	// Delete one and confirm the total drops.
	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/notifications/"+first.ID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	helpers.ParseEnvelope(t, body, &list)
	assert.Len(t, list, 1)
}

func TestNotification_CursorPagination(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Cursor User", models.UserRoleUser)

	for i := 0; i < 5; i++ {
		helpers.CreateNotification(t, ts.DB, user.ID, fmt.Sprintf("n%d", i), "")
	}

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications?limit=2", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var page []notificationJSON
	env := helpers.ParseEnvelope(t, body, &page)
	require.Len(t, page, 2)
	require.NotNil(t, env.Pagination)
	require.NotEmpty(t, env.Pagination.NextCursor, "more rows exist, cursor expected")

	seen := map[string]bool{page[0].ID: true, page[1].ID: true}

	// Walk the cursor to the end without overlaps.
	cursor := env.Pagination.NextCursor
	total := 2
	for cursor != "" {
		res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications?limit=2&cursor="+cursor, token, nil)
		require.Equal(t, http.StatusOK, res.StatusCode, body)
		env = helpers.ParseEnvelope(t, body, &page)
		for _, n := range page {
			assert.False(t, seen[n.ID], "cursor pages must not overlap")
			seen[n.ID] = true
		}
		total += len(page)
		cursor = env.Pagination.NextCursor
	}
	assert.Equal(t, 5, total)
}

func TestNotification_OwnershipIsolation(t *testing.T) {
	ts := GetTestServer(t)
	tokenA, userA := helpers.CreateAndLoginUser(t, ts, "Owner A", models.UserRoleUser)
	tokenB, _ := helpers.CreateAndLoginUser(t, ts, "Owner B", models.UserRoleUser)

	own := helpers.CreateNotification(t, ts.DB, userA.ID, "Private", "")

	// B cannot read A's notification.
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/"+own.ID, tokenB, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	// Marking foreign ids as read updates nothing and reports zero.
	var markData struct {
		Updated int64 `json:"updated"`
	}
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/read-multiple", tokenB, map[string]interface{}{
		"notification_ids": []string{own.ID},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(0), markData.Updated)

	// The row is untouched for its owner.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/"+own.ID, tokenA, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got notificationJSON
	helpers.ParseEnvelope(t, body, &got)
	assert.False(t, got.IsRead)

	// B cannot delete A's notification either.
	res, body = ts.SendRequest(t, http.MethodDelete, "/api/v1/notifications/"+own.ID, tokenB, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)
}

func TestNotification_DataRoundTrip(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Data User", models.UserRoleUser)

	payload := map[string]interface{}{
		"match_id": "m-123",
		"nested":   map[string]interface{}{"score": float64(42), "tags": []interface{}{"a", "b"}},
	}
	created := helpers.CreateNotificationWithData(t, ts.DB, user.ID, payload)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var got notificationJSON
	helpers.ParseEnvelope(t, body, &got)
	assert.Equal(t, payload, got.Data, "opaque payload must round-trip deep-equal")
}

func TestNotification_AdminEndpoints(t *testing.T) {
	ts := GetTestServer(t)
	adminToken, _ := helpers.CreateAndLoginUser(t, ts, "Admin", models.UserRoleAdmin)
	userToken, user := helpers.CreateAndLoginUser(t, ts, "Target", models.UserRoleUser)

	// A regular user is rejected from admin routes.
	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/admin/notifications", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode, body)

	// Admin creates a notification for the target user.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, map[string]interface{}{
		"user_id":  user.ID,
		"type":     "system",
		"category": "system",
		"title":    "Maintenance tonight",
		"body":     "The platform will be briefly unavailable",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created notificationJSON
	helpers.ParseEnvelope(t, body, &created)
	assert.Equal(t, user.ID, created.UserID)

	// The target user sees it.
	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/"+created.ID, userToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Bulk send reaches every listed user atomically.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/admin/notifications/bulk-send", adminToken, map[string]interface{}{
		"user_ids": []string{user.ID},
		"type":     "system",
		"title":    "Bulk hello",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var bulkData struct {
		Created int `json:"created"`
	}
	helpers.ParseEnvelope(t, body, &bulkData)
	assert.Equal(t, 1, bulkData.Created)
}

func TestNotification_Stats(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Stats User", models.UserRoleUser)

	helpers.CreateNotification(t, ts.DB, user.ID, "One", "")
	helpers.CreateNotification(t, ts.DB, user.ID, "Two", "")

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications/stats", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var stats struct {
		TotalNotifications int64            `json:"total_notifications"`
		UnreadCount        int64            `json:"unread_count"`
		ByType             map[string]int64 `json:"by_type"`
	}
	helpers.ParseEnvelope(t, body, &stats)
	assert.Equal(t, int64(2), stats.TotalNotifications)
	assert.Equal(t, int64(2), stats.UnreadCount)
	assert.Equal(t, int64(2), stats.ByType["new_message"])
}

func TestNotification_ReadMarkersSkipTerminalRows(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Terminal User", models.UserRoleUser)

	failed := helpers.CreateNotification(t, ts.DB, user.ID, "Undeliverable", "")
	require.NoError(t, ts.DB.Model(&models.Notification{}).
		Where("id = ?", failed.ID).
		Update("status", models.StatusFailed).Error)

	// read-all must not drag the failed row out of its terminal state.
	var markData struct {
		Updated int64 `json:"updated"`
	}
	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(0), markData.Updated)

	var stored models.Notification
	require.NoError(t, ts.DB.First(&stored, "id = ?", failed.ID).Error)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.False(t, stored.IsRead)
	assert.Nil(t, stored.ReadAt)

	// Marking it directly is a no-op success, not an error.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+failed.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(0), markData.Updated)

	require.NoError(t, ts.DB.First(&stored, "id = ?", failed.ID).Error)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestNotification_MarkReadIdempotent(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Repeat Reader", models.UserRoleUser)

	n := helpers.CreateNotification(t, ts.DB, user.ID, "Once", "")

	var markData struct {
		Updated int64 `json:"updated"`
	}
	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+n.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(1), markData.Updated)

	// The second mark succeeds and reports nothing changed.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/notifications/"+n.ID+"/read", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &markData)
	assert.Equal(t, int64(0), markData.Updated)
}

func TestNotification_StaleCursorIsBadRequest(t *testing.T) {
	ts := GetTestServer(t)
	token, _ := helpers.CreateAndLoginUser(t, ts, "Cursor Loser", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications?cursor="+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	assert.False(t, env.Error.Retryable)
}

func TestNotification_BulkCreateAtomic(t *testing.T) {
	ts := GetTestServer(t)
	_, user := helpers.CreateAndLoginUser(t, ts, "Bulk Victim", models.UserRoleUser)

	repo := repositories.NewNotificationRepository(ts.DB)
	batch := []*models.Notification{
		{UserID: user.ID, Type: "system", Title: "first", Status: models.StatusPending},
		{UserID: user.ID, Type: "system", Title: "second", Status: models.StatusPending},
		// Not a uuid; the insert fails at the database and rolls the
		// whole batch back.
		{UserID: "not-a-uuid", Type: "system", Title: "third", Status: models.StatusPending},
	}

	require.Error(t, repo.CreateBulkNotifications(batch))

	var count int64
	require.NoError(t, ts.DB.Model(&models.Notification{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "a failing row must roll back the whole batch")
}

func TestNotification_ReadRetentionPurge(t *testing.T) {
	ts := GetTestServer(t)
	_, user := helpers.CreateAndLoginUser(t, ts, "Purge User", models.UserRoleUser)

	readOld := helpers.CreateNotification(t, ts.DB, user.ID, "old and read", "")
	longAgo := time.Now().AddDate(0, 0, -120)
	require.NoError(t, ts.DB.Model(&models.Notification{}).
		Where("id = ?", readOld.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": longAgo, "status": models.StatusRead}).Error)

	unread := helpers.CreateNotification(t, ts.DB, user.ID, "old but unread", "")

	repo := repositories.NewNotificationRepository(ts.DB)
	deleted, err := repo.DeleteReadNotifications(time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	assert.ErrorIs(t, ts.DB.First(&models.Notification{}, "id = ?", readOld.ID).Error, gorm.ErrRecordNotFound)
	require.NoError(t, ts.DB.First(&models.Notification{}, "id = ?", unread.ID).Error, "unread rows survive the purge")
}
