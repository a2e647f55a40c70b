package workers

import (
	"context"
	"errors"
	"time"

	"sav3_backend/internal/dispatch"
	"sav3_backend/internal/logger"
	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
)

// DispatchWorker drains pending notifications on a ticker: resolves the
// user's preferences, fans out to the allowed channels and records the
// outcome.
type DispatchWorker struct {
	notificationRepo repositories.NotificationRepository
	settingsRepo     repositories.SettingsRepository
	userRepo         repositories.UserRepository
	router           *dispatch.Router

	interval  time.Duration
	batchSize int
}

func NewDispatchWorker(
	notificationRepo repositories.NotificationRepository,
	settingsRepo repositories.SettingsRepository,
	userRepo repositories.UserRepository,
	router *dispatch.Router,
	interval time.Duration,
	batchSize int,
) *DispatchWorker {
	return &DispatchWorker{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		userRepo:         userRepo,
		router:           router,
		interval:         interval,
		batchSize:        batchSize,
	}
}

func (w *DispatchWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *DispatchWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatch worker stopped")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *DispatchWorker) processBatch(ctx context.Context) {
	now := time.Now()

	due, err := w.notificationRepo.FindDueNotifications(now, w.batchSize)
	if err != nil {
		logger.WorkerLog("dispatch", "find due notifications", err)
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, &due[i], now)
	}
}

func (w *DispatchWorker) process(ctx context.Context, notification *models.Notification, now time.Time) {
	// The row may have been cancelled or read between the query and now.
	current, err := w.notificationRepo.FindNotificationByID(notification.ID)
	if err != nil {
		return
	}
	if current.Status != models.StatusPending {
		return
	}

	if current.Expired(now) {
		w.transition(current.ID, models.StatusCancelled, nil)
		return
	}

	settings, err := w.settingsRepo.GetForUser(current.UserID)
	if err != nil {
		logger.WorkerLog("dispatch", "load settings", err)
		return
	}

	usage, err := w.gatherUsage(current, settings, now)
	if err != nil {
		logger.WorkerLog("dispatch", "gather usage", err)
		return
	}

	plan := dispatch.Resolve(current, settings, usage, now)

	switch plan.Verdict {
	case dispatch.VerdictSuppress:
		logger.Info("notification suppressed",
			"notification_id", current.ID, "reason", plan.Reason)
		w.transition(current.ID, models.StatusCancelled, nil)

	case dispatch.VerdictDelay:
		if err := w.notificationRepo.Reschedule(current.ID, plan.Until, false); err != nil {
			logger.WorkerLog("dispatch", "reschedule", err)
		}

	case dispatch.VerdictGroup:
		if err := w.notificationRepo.Reschedule(current.ID, plan.Until, true); err != nil {
			logger.WorkerLog("dispatch", "reschedule grouped", err)
		}

	case dispatch.VerdictAllow:
		w.deliver(ctx, current, plan.Channels, now)
	}
}

func (w *DispatchWorker) deliver(ctx context.Context, notification *models.Notification, channels []models.DeliveryChannel, now time.Time) {
	user, err := w.userRepo.FindByID(notification.UserID)
	if err != nil {
		logger.WorkerLog("dispatch", "load user", err)
		w.transition(notification.ID, models.StatusFailed, nil)
		return
	}

	_, err = w.router.Dispatch(ctx, user, notification, channels)
	if err != nil {
		if errors.Is(err, dispatch.ErrAllChannelsFailed) {
			w.transition(notification.ID, models.StatusFailed, nil)
		}
		return
	}

	sentAt := now
	w.transition(notification.ID, models.StatusSent, &sentAt)
}

func (w *DispatchWorker) transition(id string, to models.NotificationStatus, sentAt *time.Time) {
	err := w.notificationRepo.TransitionStatus(id, models.StatusPending, to, sentAt)
	if err != nil && !errors.Is(err, repositories.ErrStatusConflict) {
		logger.WorkerLog("dispatch", "transition status", err)
	}
}

// gatherUsage collects the sliding-window counts the resolver needs.
// Urgent notifications skip the limit checks, so skip the queries too.
func (w *DispatchWorker) gatherUsage(notification *models.Notification, settings *models.NotificationSettings, now time.Time) (dispatch.Usage, error) {
	var usage dispatch.Usage

	if notification.Priority == models.PriorityUrgent {
		return usage, nil
	}

	freq := settings.Frequency.Data()
	userID := notification.UserID

	var err error
	count := func(notificationType string, since time.Time) int64 {
		if err != nil {
			return 0
		}
		var n int64
		n, err = w.notificationRepo.CountSentSince(userID, notificationType, since)
		return n
	}

	if freq.Global.MaxPerHour > 0 {
		usage.SentLastHour = count("", now.Add(-time.Hour))
	}
	if freq.Global.MaxPerDay > 0 {
		usage.SentLastDay = count("", now.Add(-24*time.Hour))
	}
	if freq.Global.MaxPerWeek > 0 {
		usage.SentLastWeek = count("", now.Add(-7*24*time.Hour))
	}

	if perType, ok := freq.PerType[notification.Type]; ok {
		if perType.MaxPerHour > 0 {
			usage.TypeSentLastHour = count(notification.Type, now.Add(-time.Hour))
		}
		if perType.MaxPerDay > 0 {
			usage.TypeSentLastDay = count(notification.Type, now.Add(-24*time.Hour))
		}
		if perType.MaxPerWeek > 0 {
			usage.TypeSentLastWeek = count(notification.Type, now.Add(-7*24*time.Hour))
		}
		if perType.CooldownMinutes > 0 && err == nil {
			usage.TypeLastSentAt, err = w.notificationRepo.LastSentAt(userID, notification.Type)
		}
	}

	if freq.Burst.Enabled && freq.Burst.WindowMinutes > 0 {
		window := time.Duration(freq.Burst.WindowMinutes) * time.Minute
		usage.SentInBurstWindow = count("", now.Add(-window))
	}

	return usage, err
}
