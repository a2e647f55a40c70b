package repositories

import (
	"errors"

	"sav3_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// GetForUser returns the stored settings, or defaults when the user
	// has never saved any. The defaults are not persisted.
	GetForUser(userID string) (*models.NotificationSettings, error)
	Upsert(settings *models.NotificationSettings) error
	Delete(userID string) error
}

type SettingsRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) GetForUser(userID string) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := r.db.First(&settings, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultNotificationSettings(userID), nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepositoryImpl) Upsert(settings *models.NotificationSettings) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "channels", "quiet_hours", "frequency", "rules", "updated_at",
		}),
	}).Create(settings).Error
}

func (r *SettingsRepositoryImpl) Delete(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.NotificationSettings{}).Error
}
