package integration_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sav3_backend/internal/models"
	"sav3_backend/test/helpers"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	ts := GetTestServer(t)

	email := fmt.Sprintf("register_%d@test.com", time.Now().UnixNano())

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "password123",
		"name":     "New User",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var registerData struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	env := helpers.ParseEnvelope(t, body, &registerData)
	assert.True(t, env.Success)
	assert.NotEmpty(t, registerData.Token)
	assert.Equal(t, email, registerData.User.Email)
	assert.Equal(t, "user", registerData.User.Role)

	// Duplicate registration is rejected.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    email,
		"password": "password123",
		"name":     "New User",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	env = helpers.ParseEnvelope(t, body, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)

	// Login with the right password succeeds.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// Wrong password fails with the unauthorized code, not retryable.
	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
	env = helpers.ParseEnvelope(t, body, nil)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.False(t, env.Error.Retryable)
}

func TestAuth_ValidationErrors(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "not-an-email",
		"password": "short",
		"name":     "X",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAuth_ProtectedRouteRequiresToken(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/v1/notifications", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
	env := helpers.ParseEnvelope(t, body, nil)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAuth_DeviceTokenRegistration(t *testing.T) {
	ts := GetTestServer(t)
	token, user := helpers.CreateAndLoginUser(t, ts, "Device User", models.UserRoleUser)

	res, body := ts.SendRequest(t, http.MethodPut, "/api/v1/users/me/device-token", token, map[string]interface{}{
		"device_token": "fcm-token-abc123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var regData struct {
		Registered bool `json:"registered"`
	}
	helpers.ParseEnvelope(t, body, &regData)
	assert.True(t, regData.Registered)

	var stored models.User
	require.NoError(t, ts.DB.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "fcm-token-abc123", stored.DeviceToken)

	// An empty token unregisters the device.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/users/me/device-token", token, map[string]interface{}{
		"device_token": "",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseEnvelope(t, body, &regData)
	assert.False(t, regData.Registered)

	require.NoError(t, ts.DB.First(&stored, "id = ?", user.ID).Error)
	assert.Empty(t, stored.DeviceToken)

	// Unauthenticated calls are rejected.
	res, body = ts.SendRequest(t, http.MethodPut, "/api/v1/users/me/device-token", "", map[string]interface{}{
		"device_token": "x",
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode, body)
}
