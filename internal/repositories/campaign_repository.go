package repositories

import (
	"errors"
	"time"

	"sav3_backend/internal/models"

	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	FindByID(id string) (*models.Campaign, error)
	FindAll(page, pageSize int) ([]models.Campaign, int64, error)
	Update(campaign *models.Campaign) error
	Delete(id string) error

	// Worker support
	FindDueCampaigns(now time.Time, limit int) ([]models.Campaign, error)
	TransitionStatus(id string, from, to models.CampaignStatus) error
	MarkCompleted(id string, sentCount int64) error
}

type CampaignRepositoryImpl struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{db: db}
}

func (r *CampaignRepositoryImpl) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *CampaignRepositoryImpl) FindByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.First(&campaign, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepositoryImpl) FindAll(page, pageSize int) ([]models.Campaign, int64, error) {
	var campaigns []models.Campaign

	var total int64
	if err := r.db.Model(&models.Campaign{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&campaigns).Error

	return campaigns, total, err
}

func (r *CampaignRepositoryImpl) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

func (r *CampaignRepositoryImpl) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Campaign{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (r *CampaignRepositoryImpl) FindDueCampaigns(now time.Time, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.
		Where("status = ?", models.CampaignStatusScheduled).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

// TransitionStatus is guarded with WHERE status = from so two workers
// cannot both claim the same campaign.
func (r *CampaignRepositoryImpl) TransitionStatus(id string, from, to models.CampaignStatus) error {
	result := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (r *CampaignRepositoryImpl) MarkCompleted(id string, sentCount int64) error {
	now := time.Now()
	return r.db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.CampaignStatusCompleted,
			"sent_count":   sentCount,
			"completed_at": now,
		}).Error
}
