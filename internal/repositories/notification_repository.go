package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sav3_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
	ErrStatusConflict          = errors.New("illegal notification status transition")
)

// Notification type constants used across the platform.
const (
	NotificationTypeNewMatch      = "new_match"
	NotificationTypeNewMessage    = "new_message"
	NotificationTypeNewLike       = "new_like"
	NotificationTypeNewComment    = "new_comment"
	NotificationTypeNewFollower   = "new_follower"
	NotificationTypeCommunityPost = "community_post"
	NotificationTypeSystem        = "system"
)

type NotificationRepository interface {
	// Notification operations
	CreateNotification(notification *models.Notification) error
	CreateBulkNotifications(notifications []*models.Notification) error
	FindNotificationByID(id string) (*models.Notification, error)
	FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, string, error)
	MarkAsRead(userID string, notificationIDs []string) (int64, error)
	MarkAllAsRead(userID string) (int64, error)
	DeleteNotification(id string) error
	DeleteUserNotifications(userID string) error
	DeleteReadNotifications(olderThan time.Time) (int64, error)
	CleanOldNotifications(days int) error

	// Notification stats
	GetUserNotificationStats(userID string) (*NotificationStats, error)
	GetUnreadCount(userID string) (int64, error)

	// Dispatch support
	FindDueNotifications(now time.Time, limit int) ([]models.Notification, error)
	TransitionStatus(id string, from, to models.NotificationStatus, sentAt *time.Time) error
	Reschedule(id string, until time.Time, grouped bool) error
	CountSentSince(userID, notificationType string, since time.Time) (int64, error)
	LastSentAt(userID, notificationType string) (*time.Time, error)

	// Admin operations
	FindAllNotifications(criteria AdminNotificationCriteria) ([]models.Notification, int64, error)
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NotificationCriteria filters a user's notification listing. Cursor and
// Offset are alternatives; when Cursor is set it wins.
type NotificationCriteria struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type"`
	Cursor     string `form:"cursor"`
	Offset     int    `form:"offset"`
	Limit      int    `form:"limit"`
}

// AdminNotificationCriteria filters the platform-wide listing.
type AdminNotificationCriteria struct {
	UserID     string `form:"user_id"`
	Type       string `form:"type"`
	UnreadOnly bool   `form:"unread_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// NotificationStats summarizes one user's notifications.
type NotificationStats struct {
	TotalNotifications int64            `json:"total_notifications"`
	UnreadCount        int64            `json:"unread_count"`
	ReadCount          int64            `json:"read_count"`
	ByType             map[string]int64 `json:"by_type"`
	TodayCount         int64            `json:"today_count"`
	ThisWeekCount      int64            `json:"this_week_count"`
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

// Notification operations

func (r *NotificationRepositoryImpl) CreateNotification(notification *models.Notification) error {
	if err := r.validateNotification(notification); err != nil {
		return err
	}

	return r.db.Create(notification).Error
}

// CreateBulkNotifications inserts the whole batch in one transaction.
// If any row fails, nothing is persisted.
func (r *NotificationRepositoryImpl) CreateBulkNotifications(notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	for _, notification := range notifications {
		if err := r.validateNotification(notification); err != nil {
			return err
		}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(notifications, 100).Error
	})
}

func (r *NotificationRepositoryImpl) FindNotificationByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// FindUserNotifications returns a newest-first page plus the total count
// and the next cursor. It fetches limit+1 rows and pops the extra one;
// the cursor is the id of the last row on the page.
func (r *NotificationRepositoryImpl) FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, string, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	query := r.db.Where("user_id = ?", userID)

	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	var total int64
	if err := query.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, "", err
	}

	if criteria.Cursor != "" {
		// Seek past the cursor row. Ties on created_at are broken by id
		// so the ordering is total.
		var cursorRow models.Notification
		err := r.db.Select("id", "created_at").
			First(&cursorRow, "id = ? AND user_id = ?", criteria.Cursor, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, "", ErrNotificationNotFound
			}
			return nil, 0, "", err
		}
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursorRow.CreatedAt, cursorRow.CreatedAt, cursorRow.ID,
		)
	} else if criteria.Offset > 0 {
		query = query.Offset(criteria.Offset)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, "", err
	}

	nextCursor := ""
	if len(notifications) > limit {
		notifications = notifications[:limit]
		nextCursor = notifications[limit-1].ID
	}

	return notifications, total, nextCursor, nil
}

// readableStatuses are the states a row may leave for read. Failed and
// cancelled are terminal, so the read markers skip those rows entirely;
// touching them would break the transition table and the read_at
// invariant both.
var readableStatuses = []models.NotificationStatus{
	models.StatusPending, models.StatusSent, models.StatusDelivered,
}

// MarkAsRead flips the given notifications to read, scoped to the owning
// user so foreign ids are silently ignored. Returns the number of rows
// actually updated so callers can tell "nothing matched" from success.
func (r *NotificationRepositoryImpl) MarkAsRead(userID string, notificationIDs []string) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}

	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ? AND is_read = ? AND status IN ?",
			userID, notificationIDs, false, readableStatuses).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
			"status":  models.StatusRead,
		})

	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(userID string) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ? AND status IN ?", userID, false, readableStatuses).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
			"status":  models.StatusRead,
		})

	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) DeleteNotification(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) DeleteUserNotifications(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error
}

// DeleteReadNotifications purges read rows whose read_at passed the
// cutoff. Unread rows are kept regardless of age; the admin cleanup
// endpoint deletes by age unconditionally.
func (r *NotificationRepositoryImpl) DeleteReadNotifications(olderThan time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND read_at < ?", true, olderThan).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) CleanOldNotifications(days int) error {
	cutoffDate := time.Now().AddDate(0, 0, -days)
	return r.db.Where("created_at < ?", cutoffDate).Delete(&models.Notification{}).Error
}

// Notification stats

func (r *NotificationRepositoryImpl) GetUserNotificationStats(userID string) (*NotificationStats, error) {
	var stats NotificationStats
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := todayStart.AddDate(0, 0, -int(todayStart.Weekday()))

	if err := r.db.Model(&models.Notification{}).Where("user_id = ?", userID).
		Count(&stats.TotalNotifications).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).
		Count(&stats.UnreadCount).Error; err != nil {
		return nil, err
	}

	stats.ReadCount = stats.TotalNotifications - stats.UnreadCount

	if err := r.db.Model(&models.Notification{}).Where("user_id = ? AND created_at >= ?", userID, todayStart).
		Count(&stats.TodayCount).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&models.Notification{}).Where("user_id = ? AND created_at >= ?", userID, weekStart).
		Count(&stats.ThisWeekCount).Error; err != nil {
		return nil, err
	}

	stats.ByType = make(map[string]int64)
	var typeStats []struct {
		Type  string
		Count int64
	}

	err := r.db.Model(&models.Notification{}).Where("user_id = ?", userID).
		Select("type, COUNT(*) as count").
		Group("type").Scan(&typeStats).Error
	if err != nil {
		return nil, err
	}

	for _, ts := range typeStats {
		stats.ByType[ts.Type] = ts.Count
	}

	return &stats, nil
}

func (r *NotificationRepositoryImpl) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// Dispatch support

// FindDueNotifications returns pending notifications whose schedule has
// arrived, oldest first so older rows are not starved.
func (r *NotificationRepositoryImpl) FindDueNotifications(now time.Time, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.
		Where("status = ?", models.StatusPending).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// TransitionStatus moves a notification from one status to another. The
// transition table is checked first and the update is guarded with
// WHERE status = from, so a concurrent writer loses cleanly instead of
// regressing the status.
func (r *NotificationRepositoryImpl) TransitionStatus(id string, from, to models.NotificationStatus, sentAt *time.Time) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrStatusConflict, from, to)
	}

	updates := map[string]interface{}{"status": to}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}

	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Reschedule pushes a pending notification's dispatch time forward,
// optionally flagging it as grouped into a digest.
func (r *NotificationRepositoryImpl) Reschedule(id string, until time.Time, grouped bool) error {
	updates := map[string]interface{}{"scheduled_for": until}
	if grouped {
		updates["metadata"] = gorm.Expr(
			`COALESCE(metadata, '{}'::jsonb) || '{"grouped": true}'::jsonb`,
		)
	}

	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// CountSentSince counts sends in a sliding window. Empty type counts
// across all types.
func (r *NotificationRepositoryImpl) CountSentSince(userID, notificationType string, since time.Time) (int64, error) {
	query := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND sent_at >= ?", userID, since)

	if notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) LastSentAt(userID, notificationType string) (*time.Time, error) {
	var notification models.Notification
	query := r.db.Where("user_id = ? AND sent_at IS NOT NULL", userID)

	if notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	err := query.Order("sent_at DESC").First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return notification.SentAt, nil
}

// Admin operations

func (r *NotificationRepositoryImpl) FindAllNotifications(criteria AdminNotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := r.db.Model(&models.Notification{})

	if criteria.UserID != "" {
		query = query.Where("user_id = ?", criteria.UserID)
	}

	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

// Helper methods

func (r *NotificationRepositoryImpl) validateNotification(notification *models.Notification) error {
	if notification.UserID == "" {
		return errors.New("user ID is required")
	}

	if notification.Type == "" {
		return errors.New("notification type is required")
	}

	if notification.Title == "" {
		return errors.New("notification title is required")
	}

	if notification.Priority != "" && !notification.Priority.Valid() {
		return fmt.Errorf("invalid notification priority: %s", notification.Priority)
	}

	for _, ch := range notification.Channels {
		if !ch.Valid() {
			return fmt.Errorf("invalid delivery channel: %s", ch)
		}
	}

	if len(notification.Data) > 0 && !json.Valid(notification.Data) {
		return ErrInvalidNotificationData
	}

	return nil
}
