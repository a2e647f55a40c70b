package handlers

import (
	"sav3_backend/internal/services"
	"sav3_backend/internal/validator"
	"sav3_backend/pkg/errorreport"
)

// AppHandlers groups every HTTP handler for route registration.
type AppHandlers struct {
	Auth         *AuthHandler
	Notification *NotificationHandler
	Settings     *SettingsHandler
	Campaign     *CampaignHandler
	Diagnostics  *DiagnosticsHandler
}

func NewAppHandlers(container *services.ServiceContainer, v *validator.Validator, errorBuffer *errorreport.Buffer) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		Auth:         NewAuthHandler(base, container.AuthService),
		Notification: NewNotificationHandler(base, container.NotificationService),
		Settings:     NewSettingsHandler(base, container.SettingsService),
		Campaign:     NewCampaignHandler(base, container.CampaignService),
		Diagnostics:  NewDiagnosticsHandler(base, errorBuffer),
	}
}
