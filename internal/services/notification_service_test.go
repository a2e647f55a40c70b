package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
)

// fakeNotificationRepo embeds the interface so only the methods a test
// exercises need stubbing; anything else panics loudly.
type fakeNotificationRepo struct {
	repositories.NotificationRepository

	byID       map[string]*models.Notification
	created    []*models.Notification
	markedRead int64
	listErr    error
}

func (f *fakeNotificationRepo) FindUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, string, error) {
	if f.listErr != nil {
		return nil, 0, "", f.listErr
	}
	return nil, 0, "", nil
}

func (f *fakeNotificationRepo) FindNotificationByID(id string) (*models.Notification, error) {
	if n, ok := f.byID[id]; ok {
		return n, nil
	}
	return nil, repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) MarkAsRead(userID string, ids []string) (int64, error) {
	return f.markedRead, nil
}

type fakeUserRepo struct {
	repositories.UserRepository

	users map[string]*models.User
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func TestGetNotification_Ownership(t *testing.T) {
	repo := &fakeNotificationRepo{
		byID: map[string]*models.Notification{
			"n1": {UserID: "alice", Title: "hers"},
		},
	}
	svc := NewNotificationService(repo, &fakeUserRepo{})

	// The owner sees it.
	resp, err := svc.GetNotification("alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "hers", resp.Title)

	// Anyone else gets a forbidden, not a not-found.
	_, err = svc.GetNotification("bob", "n1")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)

	// A missing row is a not-found.
	_, err = svc.GetNotification("alice", "nope")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestMarkAsRead_ZeroRows(t *testing.T) {
	repo := &fakeNotificationRepo{
		markedRead: 0,
		byID: map[string]*models.Notification{
			"read-row": {UserID: "alice", IsRead: true, Status: models.StatusRead},
		},
	}
	svc := NewNotificationService(repo, &fakeUserRepo{})

	// Missing row: not found.
	_, err := svc.MarkAsRead("alice", "nope")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)

	// Foreign row: forbidden.
	_, err = svc.MarkAsRead("bob", "read-row")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)

	// Owned but already read: idempotent success reporting zero.
	updated, err := svc.MarkAsRead("alice", "read-row")
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)

	repo.markedRead = 1
	updated, err = svc.MarkAsRead("alice", "read-row")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestGetUserNotifications_StaleCursor(t *testing.T) {
	repo := &fakeNotificationRepo{listErr: repositories.ErrNotificationNotFound}
	svc := NewNotificationService(repo, &fakeUserRepo{})

	// A cursor pointing at a vanished row is the client's problem, not
	// a retryable server fault.
	_, err := svc.GetUserNotifications("alice", repositories.NotificationCriteria{Cursor: "gone"})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeBadRequest, appErr.Code)
	assert.False(t, apperrors.Retryable(appErr.Code))
}

func TestCreateNotification_UnknownUser(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationRepo{}, &fakeUserRepo{})

	_, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		UserID: "ghost",
		Type:   "system",
		Title:  "hello",
	})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestCreateNotification_Defaults(t *testing.T) {
	repo := &fakeNotificationRepo{}
	users := &fakeUserRepo{users: map[string]*models.User{"alice": {Email: "a@test.com"}}}
	svc := NewNotificationService(repo, users)

	resp, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		UserID: "alice",
		Type:   "new_message",
		Title:  "hello",
		Data:   map[string]interface{}{"sender_id": "bob"},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	created := repo.created[0]
	assert.Equal(t, models.PriorityNormal, created.Priority)
	assert.Equal(t, models.CategorySocial, created.Category)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "bob", resp.Data["sender_id"])
}

func TestNotifyFactories_ShapePayload(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeUserRepo{})

	require.NoError(t, svc.NotifyNewMatch("alice", "Bob", "match-1"))
	require.NoError(t, svc.NotifyNewMessage("alice", "Bob", "conv-1"))
	require.NoError(t, svc.NotifyNewLike("alice", "Bob"))
	require.Len(t, repo.created, 3)

	match := repo.created[0]
	assert.Equal(t, repositories.NotificationTypeNewMatch, match.Type)
	assert.Equal(t, models.CategoryDating, match.Category)
	assert.Equal(t, models.PriorityHigh, match.Priority)
	assert.Contains(t, match.Body, "Bob")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(match.Data, &data))
	assert.Equal(t, "match-1", data["match_id"])

	message := repo.created[1]
	assert.Equal(t, repositories.NotificationTypeNewMessage, message.Type)
	assert.Equal(t, models.CategorySocial, message.Category)
}
