package services

import (
	"errors"

	"gorm.io/datatypes"

	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
)

type CampaignService interface {
	CreateCampaign(adminID string, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error)
	GetCampaign(campaignID string) (*dto.CampaignResponse, error)
	ListCampaigns(page, pageSize int) (*dto.CampaignListResponse, error)
	UpdateCampaign(campaignID string, req *dto.UpdateCampaignRequest) (*dto.CampaignResponse, error)
	CancelCampaign(campaignID string) error
	DeleteCampaign(campaignID string) error
}

type campaignService struct {
	campaignRepo repositories.CampaignRepository
}

func NewCampaignService(campaignRepo repositories.CampaignRepository) CampaignService {
	return &campaignService{campaignRepo: campaignRepo}
}

func (s *campaignService) CreateCampaign(adminID string, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error) {
	if len(req.Audience.Roles) == 0 && len(req.Audience.UserIDs) == 0 {
		return nil, apperrors.NewBadRequestError("audience must name roles or user ids")
	}
	for _, variant := range req.Variants {
		if variant.Weight <= 0 {
			return nil, apperrors.NewBadRequestError("variant weights must be positive")
		}
	}

	status := models.CampaignStatusDraft
	if req.ScheduledFor != nil {
		status = models.CampaignStatusScheduled
	}

	campaign := &models.Campaign{
		Name:         req.Name,
		Type:         req.Type,
		Category:     defaultCategory(req.Category),
		Priority:     defaultPriority(req.Priority),
		Status:       status,
		ScheduledFor: req.ScheduledFor,
		Audience:     datatypes.NewJSONType(req.Audience),
		Variants:     datatypes.NewJSONType(req.Variants),
		CreatedBy:    adminID,
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildCampaignResponse(campaign), nil
}

func (s *campaignService) GetCampaign(campaignID string) (*dto.CampaignResponse, error) {
	campaign, err := s.findCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	return buildCampaignResponse(campaign), nil
}

func (s *campaignService) ListCampaigns(page, pageSize int) (*dto.CampaignListResponse, error) {
	campaigns, total, err := s.campaignRepo.FindAll(page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, buildCampaignResponse(&campaigns[i]))
	}
	return &dto.CampaignListResponse{Campaigns: responses, Total: total}, nil
}

func (s *campaignService) UpdateCampaign(campaignID string, req *dto.UpdateCampaignRequest) (*dto.CampaignResponse, error) {
	campaign, err := s.findCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft && campaign.Status != models.CampaignStatusScheduled {
		return nil, apperrors.NewBadRequestError("only draft or scheduled campaigns can be edited")
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.ScheduledFor != nil {
		campaign.ScheduledFor = req.ScheduledFor
		if campaign.Status == models.CampaignStatusDraft {
			campaign.Status = models.CampaignStatusScheduled
		}
	}
	if req.Audience != nil {
		campaign.Audience = datatypes.NewJSONType(*req.Audience)
	}
	if req.Variants != nil {
		for _, variant := range req.Variants {
			if variant.Weight <= 0 {
				return nil, apperrors.NewBadRequestError("variant weights must be positive")
			}
		}
		campaign.Variants = datatypes.NewJSONType(req.Variants)
	}
	if req.Status != nil {
		campaign.Status = *req.Status
	}

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildCampaignResponse(campaign), nil
}

func (s *campaignService) CancelCampaign(campaignID string) error {
	campaign, err := s.findCampaign(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusCompleted || campaign.Status == models.CampaignStatusCancelled {
		return apperrors.NewBadRequestError("campaign already finished")
	}

	if err := s.campaignRepo.TransitionStatus(campaignID, campaign.Status, models.CampaignStatusCancelled); err != nil {
		if errors.Is(err, repositories.ErrCampaignNotFound) {
			// Lost the race with the worker; the campaign started meanwhile.
			return apperrors.NewBadRequestError("campaign already started")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *campaignService) DeleteCampaign(campaignID string) error {
	campaign, err := s.findCampaign(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusRunning {
		return apperrors.NewBadRequestError("running campaigns cannot be deleted")
	}

	if err := s.campaignRepo.Delete(campaignID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *campaignService) findCampaign(campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(campaignID)
	if err != nil {
		if errors.Is(err, repositories.ErrCampaignNotFound) {
			return nil, apperrors.NewNotFoundError("campaign not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return campaign, nil
}

func buildCampaignResponse(c *models.Campaign) *dto.CampaignResponse {
	return &dto.CampaignResponse{
		ID:           c.ID,
		Name:         c.Name,
		Type:         c.Type,
		Category:     c.Category,
		Priority:     c.Priority,
		Status:       c.Status,
		ScheduledFor: c.ScheduledFor,
		Audience:     c.Audience.Data(),
		Variants:     c.Variants.Data(),
		SentCount:    c.SentCount,
		CompletedAt:  c.CompletedAt,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
	}
}
