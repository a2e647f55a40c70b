package services

import (
	"time"

	"sav3_backend/internal/repositories"
)

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService         AuthService
	NotificationService NotificationService
	SettingsService     SettingsService
	CampaignService     CampaignService
}

func NewServiceContainer(
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	settingsRepo repositories.SettingsRepository,
	campaignRepo repositories.CampaignRepository,
	tokenTTL time.Duration,
) *ServiceContainer {
	return &ServiceContainer{
		AuthService:         NewAuthService(userRepo, tokenTTL),
		NotificationService: NewNotificationService(notificationRepo, userRepo),
		SettingsService:     NewSettingsService(settingsRepo),
		CampaignService:     NewCampaignService(campaignRepo),
	}
}
