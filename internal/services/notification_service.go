package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"

	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
)

type NotificationService interface {
	// Notification operations
	CreateNotification(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	CreateBulkNotifications(req *dto.CreateBulkNotificationsRequest) error
	GetNotification(userID, notificationID string) (*dto.NotificationResponse, error)
	GetUserNotifications(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) (int64, error)
	MarkAllAsRead(userID string) (int64, error)
	MarkMultipleAsRead(userID string, notificationIDs []string) (int64, error)
	DeleteNotification(userID, notificationID string) error
	DeleteUserNotifications(userID string) error

	// Notification stats
	GetUserNotificationStats(userID string) (*repositories.NotificationStats, error)
	GetUnreadCount(userID string) (int64, error)

	// Factory methods for common platform events
	NotifyNewMatch(userID, matchedName, matchID string) error
	NotifyNewMessage(recipientID, senderName, conversationID string) error
	NotifyNewLike(userID, likerName string) error
	NotifyNewComment(userID, commenterName, postID string) error
	NotifyNewFollower(userID, followerName string) error
	NotifyCommunityPost(userID, communityName, postID string) error

	// Admin operations
	GetAllNotifications(criteria repositories.AdminNotificationCriteria) (*dto.NotificationListResponse, error)
	SendBulkNotification(req *dto.SendBulkNotificationRequest) (int, error)
	CleanOldNotifications(days int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// ---------------- Notification operations ----------------

func (s *notificationService) CreateNotification(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	if _, err := s.userRepo.FindByID(req.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, apperrors.InternalError(err)
	}

	notification, err := s.buildNotification(req)
	if err != nil {
		return nil, err
	}

	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		if errors.Is(err, repositories.ErrInvalidNotificationData) {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		return nil, apperrors.InternalError(err)
	}

	return buildNotificationResponse(notification), nil
}

func (s *notificationService) CreateBulkNotifications(req *dto.CreateBulkNotificationsRequest) error {
	notifications := make([]*models.Notification, 0, len(req.Notifications))
	for _, item := range req.Notifications {
		notification, err := s.buildNotification(item)
		if err != nil {
			return err
		}
		notifications = append(notifications, notification)
	}

	if err := s.notificationRepo.CreateBulkNotifications(notifications); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) GetNotification(userID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.findOwned(userID, notificationID)
	if err != nil {
		return nil, err
	}
	return buildNotificationResponse(notification), nil
}

func (s *notificationService) GetUserNotifications(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	notifications, total, nextCursor, err := s.notificationRepo.FindUserNotifications(userID, criteria)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			// The cursor names a row that no longer exists (or never
			// belonged to this user). Client input, not a server fault.
			return nil, apperrors.NewBadRequestError("invalid cursor")
		}
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		NextCursor:    nextCursor,
	}, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAsRead(userID, []string{notificationID})
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	if updated == 0 {
		// Zero rows covers missing, foreign, already-read and terminal
		// rows alike. Only the first two are errors; re-marking a read
		// row stays idempotent like read-all.
		if _, err := s.findOwned(userID, notificationID); err != nil {
			return 0, err
		}
	}
	return updated, nil
}

func (s *notificationService) MarkAllAsRead(userID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *notificationService) MarkMultipleAsRead(userID string, notificationIDs []string) (int64, error) {
	updated, err := s.notificationRepo.MarkAsRead(userID, notificationIDs)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *notificationService) DeleteNotification(userID, notificationID string) error {
	if _, err := s.findOwned(userID, notificationID); err != nil {
		return err
	}
	if err := s.notificationRepo.DeleteNotification(notificationID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) DeleteUserNotifications(userID string) error {
	if err := s.notificationRepo.DeleteUserNotifications(userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) GetUserNotificationStats(userID string) (*repositories.NotificationStats, error) {
	stats, err := s.notificationRepo.GetUserNotificationStats(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

// ---------------- Factory methods ----------------

func (s *notificationService) NotifyNewMatch(userID, matchedName, matchID string) error {
	return s.notify(userID, repositories.NotificationTypeNewMatch, models.CategoryDating, models.PriorityHigh,
		"New match!",
		fmt.Sprintf("You and %s liked each other", matchedName),
		map[string]interface{}{"match_id": matchID})
}

func (s *notificationService) NotifyNewMessage(recipientID, senderName, conversationID string) error {
	return s.notify(recipientID, repositories.NotificationTypeNewMessage, models.CategorySocial, models.PriorityHigh,
		"New message",
		fmt.Sprintf("%s sent you a message", senderName),
		map[string]interface{}{"conversation_id": conversationID})
}

func (s *notificationService) NotifyNewLike(userID, likerName string) error {
	return s.notify(userID, repositories.NotificationTypeNewLike, models.CategoryDating, models.PriorityNormal,
		"Someone likes you",
		fmt.Sprintf("%s liked your profile", likerName), nil)
}

func (s *notificationService) NotifyNewComment(userID, commenterName, postID string) error {
	return s.notify(userID, repositories.NotificationTypeNewComment, models.CategorySocial, models.PriorityNormal,
		"New comment",
		fmt.Sprintf("%s commented on your post", commenterName),
		map[string]interface{}{"post_id": postID})
}

func (s *notificationService) NotifyNewFollower(userID, followerName string) error {
	return s.notify(userID, repositories.NotificationTypeNewFollower, models.CategorySocial, models.PriorityLow,
		"New follower",
		fmt.Sprintf("%s started following you", followerName), nil)
}

func (s *notificationService) NotifyCommunityPost(userID, communityName, postID string) error {
	return s.notify(userID, repositories.NotificationTypeCommunityPost, models.CategoryCommunity, models.PriorityLow,
		"New community post",
		fmt.Sprintf("New post in %s", communityName),
		map[string]interface{}{"post_id": postID})
}

func (s *notificationService) notify(userID, notificationType string, category models.NotificationCategory,
	priority models.NotificationPriority, title, body string, data map[string]interface{}) error {

	notification := &models.Notification{
		UserID:   userID,
		Type:     notificationType,
		Category: category,
		Title:    title,
		Body:     body,
		Priority: priority,
		Status:   models.StatusPending,
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return apperrors.InternalError(err)
		}
		notification.Data = datatypes.JSON(raw)
	}

	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ---------------- Admin operations ----------------

func (s *notificationService) GetAllNotifications(criteria repositories.AdminNotificationCriteria) (*dto.NotificationListResponse, error) {
	notifications, total, err := s.notificationRepo.FindAllNotifications(criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{Notifications: responses, Total: total}, nil
}

func (s *notificationService) SendBulkNotification(req *dto.SendBulkNotificationRequest) (int, error) {
	users, err := s.userRepo.FindByIDs(req.UserIDs)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	if len(users) == 0 {
		return 0, apperrors.NewNotFoundError("no recipients found")
	}

	var data datatypes.JSON
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return 0, apperrors.InternalError(err)
		}
		data = datatypes.JSON(raw)
	}

	notifications := make([]*models.Notification, 0, len(users))
	for _, user := range users {
		notifications = append(notifications, &models.Notification{
			UserID:   user.ID,
			Type:     req.Type,
			Category: defaultCategory(req.Category),
			Title:    req.Title,
			Body:     req.Body,
			Data:     data,
			Priority: defaultPriority(req.Priority),
			Status:   models.StatusPending,
			Channels: req.Channels,
		})
	}

	if err := s.notificationRepo.CreateBulkNotifications(notifications); err != nil {
		return 0, apperrors.InternalError(err)
	}
	return len(notifications), nil
}

func (s *notificationService) CleanOldNotifications(days int) error {
	if days <= 0 {
		return apperrors.NewBadRequestError("days must be positive")
	}
	if err := s.notificationRepo.CleanOldNotifications(days); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ---------------- Helpers ----------------

func (s *notificationService) findOwned(userID, notificationID string) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindNotificationByID(notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return nil, apperrors.NewNotFoundError("notification not found")
		}
		return nil, apperrors.InternalError(err)
	}
	if notification.UserID != userID {
		return nil, apperrors.NewForbiddenError("notification belongs to another user")
	}
	return notification, nil
}

func (s *notificationService) buildNotification(req *dto.CreateNotificationRequest) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:       req.UserID,
		Type:         req.Type,
		Category:     defaultCategory(req.Category),
		Title:        req.Title,
		Body:         req.Body,
		Priority:     defaultPriority(req.Priority),
		Status:       models.StatusPending,
		Channels:     req.Channels,
		Actions:      req.Actions,
		ScheduledFor: req.ScheduledFor,
		ExpiresAt:    req.ExpiresAt,
	}

	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		notification.Data = datatypes.JSON(raw)
	}

	return notification, nil
}

func buildNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		Category:     n.Category,
		Title:        n.Title,
		Body:         n.Body,
		Priority:     n.Priority,
		Status:       n.Status,
		Channels:     n.Channels,
		Actions:      n.Actions,
		IsRead:       n.IsRead,
		ReadAt:       n.ReadAt,
		ScheduledFor: n.ScheduledFor,
		SentAt:       n.SentAt,
		ExpiresAt:    n.ExpiresAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}

	if len(n.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(n.Data, &data); err == nil {
			resp.Data = data
		}
	}

	return resp
}

func defaultPriority(p models.NotificationPriority) models.NotificationPriority {
	if !p.Valid() {
		return models.PriorityNormal
	}
	return p
}

func defaultCategory(c models.NotificationCategory) models.NotificationCategory {
	switch c {
	case models.CategoryDating, models.CategorySocial, models.CategoryCommunity, models.CategorySystem:
		return c
	}
	return models.CategorySocial
}
