package workers

import (
	"context"
	"time"

	"sav3_backend/internal/logger"
	"sav3_backend/internal/repositories"
)

// CleanupWorker purges read notifications past the retention window.
type CleanupWorker struct {
	notificationRepo repositories.NotificationRepository
	retentionDays    int
}

func NewCleanupWorker(notificationRepo repositories.NotificationRepository, retentionDays int) *CleanupWorker {
	return &CleanupWorker{
		notificationRepo: notificationRepo,
		retentionDays:    retentionDays,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *CleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.notificationRepo.DeleteReadNotifications(cutoff)
			if err != nil {
				logger.WorkerLog("cleanup", "purge read notifications", err)
				continue
			}
			if deleted > 0 {
				logger.Info("read notifications purged", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}
