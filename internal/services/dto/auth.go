package dto

import (
	"time"

	"sav3_backend/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=100"`
	Locale   string `json:"locale" validate:"omitempty,len=2"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateDeviceTokenRequest registers the push token the OS handed the
// mobile client. An empty token unregisters the device.
type UpdateDeviceTokenRequest struct {
	DeviceToken string `json:"device_token" validate:"max=4096"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      models.UserRole `json:"role"`
	Locale    string          `json:"locale,omitempty"`
	Timezone  string          `json:"timezone,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}
