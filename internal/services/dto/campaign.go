package dto

import (
	"time"

	"sav3_backend/internal/models"
)

type CreateCampaignRequest struct {
	Name         string                      `json:"name" validate:"required,max=100"`
	Type         string                      `json:"type" validate:"required"`
	Category     models.NotificationCategory `json:"category" validate:"omitempty,oneof=dating social community system"`
	Priority     models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ScheduledFor *time.Time                  `json:"scheduled_for"`
	Audience     models.CampaignAudience     `json:"audience" validate:"required"`
	Variants     []models.CampaignVariant    `json:"variants" validate:"required,min=1,dive"`
}

type UpdateCampaignRequest struct {
	Name         *string                   `json:"name,omitempty" validate:"omitempty,max=100"`
	ScheduledFor *time.Time                `json:"scheduled_for,omitempty"`
	Audience     *models.CampaignAudience  `json:"audience,omitempty"`
	Variants     []models.CampaignVariant  `json:"variants,omitempty" validate:"omitempty,min=1,dive"`
	Status       *models.CampaignStatus    `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled cancelled"`
}

type CampaignResponse struct {
	ID           string                      `json:"id"`
	Name         string                      `json:"name"`
	Type         string                      `json:"type"`
	Category     models.NotificationCategory `json:"category"`
	Priority     models.NotificationPriority `json:"priority"`
	Status       models.CampaignStatus       `json:"status"`
	ScheduledFor *time.Time                  `json:"scheduled_for,omitempty"`
	Audience     models.CampaignAudience     `json:"audience"`
	Variants     []models.CampaignVariant    `json:"variants"`
	SentCount    int64                       `json:"sent_count"`
	CompletedAt  *time.Time                  `json:"completed_at,omitempty"`
	CreatedBy    string                      `json:"created_by"`
	CreatedAt    time.Time                   `json:"created_at"`
}

type CampaignListResponse struct {
	Campaigns []*CampaignResponse `json:"campaigns"`
	Total     int64               `json:"total"`
}
