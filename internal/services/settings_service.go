package services

import (
	"gorm.io/datatypes"

	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
)

type SettingsService interface {
	GetSettings(userID string) (*dto.SettingsResponse, error)
	UpdateSettings(userID string, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
	UpdatePushSettings(userID string, req *dto.UpdatePushSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
}

func NewSettingsService(settingsRepo repositories.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

func (s *settingsService) GetSettings(userID string) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.GetForUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildSettingsResponse(settings), nil
}

// UpdateSettings overlays the request onto the user's current settings;
// sections the client omits keep their stored values.
func (s *settingsService) UpdateSettings(userID string, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.GetForUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.Channels != nil {
		for ch := range req.Channels {
			if !ch.Valid() {
				return nil, apperrors.NewBadRequestError("unknown channel: " + string(ch))
			}
		}
		settings.Channels = datatypes.NewJSONType(req.Channels)
	}
	if req.QuietHours != nil {
		settings.QuietHours = datatypes.NewJSONType(*req.QuietHours)
	}
	if req.Frequency != nil {
		settings.Frequency = datatypes.NewJSONType(*req.Frequency)
	}
	if req.Rules != nil {
		settings.Rules = datatypes.NewJSONType(req.Rules)
	}

	if err := s.settingsRepo.Upsert(settings); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildSettingsResponse(settings), nil
}

// UpdatePushSettings toggles just the push channel, the shortcut the
// mobile clients call when the OS-level permission changes.
func (s *settingsService) UpdatePushSettings(userID string, req *dto.UpdatePushSettingsRequest) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.GetForUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	channels := settings.Channels.Data()
	if channels == nil {
		channels = map[models.DeliveryChannel]models.ChannelConfig{}
	}

	cfg := settings.ChannelConfigFor(models.ChannelPush)
	cfg.Enabled = req.Enabled
	if req.Types != nil {
		cfg.Types = req.Types
	}
	channels[models.ChannelPush] = cfg
	settings.Channels = datatypes.NewJSONType(channels)

	if err := s.settingsRepo.Upsert(settings); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildSettingsResponse(settings), nil
}

func buildSettingsResponse(settings *models.NotificationSettings) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		Enabled:    settings.Enabled,
		Channels:   settings.Channels.Data(),
		QuietHours: settings.QuietHours.Data(),
		Frequency:  settings.Frequency.Data(),
		Rules:      settings.Rules.Data(),
	}
}
