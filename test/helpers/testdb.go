package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sav3_backend/internal/models"
)

// CreateUser inserts a user, hashing the password when it is not
// already a bcrypt hash.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		require.NoError(t, err, "failed to hash password")
		user.PasswordHash = string(hashed)
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	require.NoError(t, db.Create(user).Error, "failed to create test user")
}

// CreateAndLoginUser creates a user with a unique email and logs them
// in through the API, returning the bearer token.
func CreateAndLoginUser(t *testing.T, ts *TestServer, name string, role models.UserRole) (string, *models.User) {
	email := fmt.Sprintf("%s_%d@test.com", strings.ToLower(strings.ReplaceAll(name, " ", "_")), time.Now().UnixNano())
	password := "password123"

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password,
		Role:         role,
	}
	CreateUser(t, ts.DB, user)

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, "login should succeed, got: "+bodyStr)

	var loginData struct {
		Token string `json:"token"`
	}
	ParseEnvelope(t, bodyStr, &loginData)
	require.NotEmpty(t, loginData.Token, "token must not be empty")

	return loginData.Token, user
}

// CreateNotification inserts a row directly, simulating another service
// producing a notification for the user.
func CreateNotification(t *testing.T, db *gorm.DB, userID, title, body string) models.Notification {
	notification := models.Notification{
		UserID:   userID,
		Type:     "new_message",
		Category: models.CategorySocial,
		Title:    title,
		Body:     body,
		Priority: models.PriorityNormal,
		Status:   models.StatusPending,
	}
	require.NoError(t, db.Create(&notification).Error, "failed to create test notification")
	return notification
}

// CreateNotificationWithData inserts a row with an opaque JSON payload.
func CreateNotificationWithData(t *testing.T, db *gorm.DB, userID string, data map[string]interface{}) models.Notification {
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	notification := models.Notification{
		UserID:   userID,
		Type:     "new_match",
		Category: models.CategoryDating,
		Title:    "New match!",
		Priority: models.PriorityHigh,
		Status:   models.StatusPending,
		Data:     raw,
	}
	require.NoError(t, db.Create(&notification).Error)
	return notification
}
