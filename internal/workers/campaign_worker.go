package workers

import (
	"context"
	"hash/fnv"
	"time"

	"gorm.io/datatypes"

	"sav3_backend/internal/logger"
	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
)

// CampaignWorker starts due campaigns: expands the audience, assigns
// each user an A/B variant by weighted hash, and bulk-creates pending
// notifications for the dispatch worker to pick up.
type CampaignWorker struct {
	campaignRepo     repositories.CampaignRepository
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository

	interval time.Duration
}

func NewCampaignWorker(
	campaignRepo repositories.CampaignRepository,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	interval time.Duration,
) *CampaignWorker {
	return &CampaignWorker{
		campaignRepo:     campaignRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		interval:         interval,
	}
}

func (w *CampaignWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *CampaignWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("campaign worker stopped")
			return
		case <-ticker.C:
			w.processDue(ctx)
		}
	}
}

func (w *CampaignWorker) processDue(ctx context.Context) {
	due, err := w.campaignRepo.FindDueCampaigns(time.Now(), 10)
	if err != nil {
		logger.WorkerLog("campaign", "find due campaigns", err)
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		w.runCampaign(&due[i])
	}
}

func (w *CampaignWorker) runCampaign(campaign *models.Campaign) {
	// Claiming the campaign moves it to running; losing the claim means
	// another worker instance already has it.
	err := w.campaignRepo.TransitionStatus(campaign.ID, models.CampaignStatusScheduled, models.CampaignStatusRunning)
	if err != nil {
		return
	}

	users, err := w.resolveAudience(campaign.Audience.Data())
	if err != nil {
		logger.WorkerLog("campaign", "resolve audience", err)
		return
	}

	variants := campaign.Variants.Data()
	notifications := make([]*models.Notification, 0, len(users))
	for _, user := range users {
		variant := pickVariant(variants, campaign.ID, user.ID)
		if variant == nil {
			continue
		}

		notifications = append(notifications, &models.Notification{
			UserID:   user.ID,
			Type:     campaign.Type,
			Category: campaign.Category,
			Title:    variant.Title,
			Body:     variant.Body,
			Priority: campaign.Priority,
			Status:   models.StatusPending,
			Metadata: newCampaignMetadata(campaign.ID, variant.Name),
		})
	}

	if len(notifications) > 0 {
		if err := w.notificationRepo.CreateBulkNotifications(notifications); err != nil {
			logger.WorkerLog("campaign", "bulk create", err)
			return
		}
	}

	if err := w.campaignRepo.MarkCompleted(campaign.ID, int64(len(notifications))); err != nil {
		logger.WorkerLog("campaign", "mark completed", err)
		return
	}

	logger.Info("campaign completed",
		"campaign_id", campaign.ID, "name", campaign.Name, "sent", len(notifications))
}

func (w *CampaignWorker) resolveAudience(audience models.CampaignAudience) ([]models.User, error) {
	seen := make(map[string]bool)
	var users []models.User

	if len(audience.Roles) > 0 {
		byRole, err := w.userRepo.FindByRoles(audience.Roles)
		if err != nil {
			return nil, err
		}
		for _, user := range byRole {
			if !seen[user.ID] {
				seen[user.ID] = true
				users = append(users, user)
			}
		}
	}

	if len(audience.UserIDs) > 0 {
		byID, err := w.userRepo.FindByIDs(audience.UserIDs)
		if err != nil {
			return nil, err
		}
		for _, user := range byID {
			if !seen[user.ID] {
				seen[user.ID] = true
				users = append(users, user)
			}
		}
	}

	return users, nil
}

// pickVariant assigns a user to a variant deterministically: hashing
// (campaign, user) keeps the assignment stable across retries while
// spreading users across variants in proportion to their weights.
func pickVariant(variants []models.CampaignVariant, campaignID, userID string) *models.CampaignVariant {
	if len(variants) == 0 {
		return nil
	}

	totalWeight := 0
	for _, v := range variants {
		if v.Weight > 0 {
			totalWeight += v.Weight
		}
	}
	if totalWeight == 0 {
		return &variants[0]
	}

	h := fnv.New32a()
	h.Write([]byte(campaignID))
	h.Write([]byte(userID))
	slot := int(h.Sum32() % uint32(totalWeight))

	for i := range variants {
		if variants[i].Weight <= 0 {
			continue
		}
		slot -= variants[i].Weight
		if slot < 0 {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}

func newCampaignMetadata(campaignID, variant string) datatypes.JSONType[models.NotificationMetadata] {
	return datatypes.NewJSONType(models.NotificationMetadata{
		Source:   "campaign",
		Campaign: campaignID,
		Variant:  variant,
	})
}
