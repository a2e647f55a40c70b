package handlers

import (
	"github.com/gin-gonic/gin"

	"sav3_backend/internal/middleware"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
	"sav3_backend/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.GetUserNotifications)
		notifications.POST("", middleware.RequireAdmin(), h.CreateNotification)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.GET("/stats", h.GetUserNotificationStats)
		notifications.PUT("/read-all", h.MarkAllAsRead)
		notifications.PUT("/read-multiple", h.MarkMultipleAsRead)
		notifications.GET("/:notificationId", h.GetNotification)
		notifications.PUT("/:notificationId/read", h.MarkAsRead)
		notifications.DELETE("/:notificationId", h.DeleteNotification)
		notifications.DELETE("", h.DeleteUserNotifications)
	}

	admin := r.Group("/admin/notifications")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
	{
		admin.POST("", h.CreateNotification)
		admin.GET("", h.GetAllNotifications)
		admin.POST("/bulk-send", h.SendBulkNotification)
		admin.DELETE("/cleanup", h.CleanOldNotifications)
	}
}

// CreateNotification inserts one notification for any user. Reserved
// for admins and internal services; regular traffic arrives through the
// factory methods on the service.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.notificationService.CreateNotification(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, resp)
}

func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var criteria repositories.NotificationCriteria
	if !h.BindAndValidate_Query(c, &criteria) {
		return
	}
	if criteria.Limit <= 0 {
		criteria.Limit = defaultPageSize
	}
	if criteria.Limit > maxPageSize {
		criteria.Limit = maxPageSize
	}

	resp, err := h.notificationService.GetUserNotifications(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	totalPages := int((resp.Total + int64(criteria.Limit) - 1) / int64(criteria.Limit))
	h.Paginated(c, resp.Notifications, &response.Pagination{
		Total:      resp.Total,
		PerPage:    criteria.Limit,
		TotalPages: totalPages,
		NextCursor: resp.NextCursor,
	})
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.GetNotification(userID, c.Param("notificationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAsRead(userID, c.Param("notificationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, &dto.MarkReadResponse{Updated: updated})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, &dto.MarkReadResponse{Updated: updated})
}

// MarkMultipleAsRead reports how many rows actually changed; ids that
// are foreign or already read simply do not count.
func (h *NotificationHandler) MarkMultipleAsRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.MarkMultipleReadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	updated, err := h.notificationService.MarkMultipleAsRead(userID, req.NotificationIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, &dto.MarkReadResponse{Updated: updated})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(userID, c.Param("notificationId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"deleted": true})
}

func (h *NotificationHandler) DeleteUserNotifications(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.DeleteUserNotifications(userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"deleted": true})
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, &dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) GetUserNotificationStats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	stats, err := h.notificationService.GetUserNotificationStats(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, stats)
}

// ---------------- Admin ----------------

func (h *NotificationHandler) GetAllNotifications(c *gin.Context) {
	var criteria repositories.AdminNotificationCriteria
	if !h.BindAndValidate_Query(c, &criteria) {
		return
	}

	page, pageSize := ParsePagination(c)
	criteria.Page = page
	criteria.PageSize = pageSize

	resp, err := h.notificationService.GetAllNotifications(criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	totalPages := int((resp.Total + int64(pageSize) - 1) / int64(pageSize))
	h.Paginated(c, resp.Notifications, &response.Pagination{
		Total:      resp.Total,
		Page:       page,
		PerPage:    pageSize,
		TotalPages: totalPages,
	})
}

func (h *NotificationHandler) SendBulkNotification(c *gin.Context) {
	var req dto.SendBulkNotificationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	created, err := h.notificationService.SendBulkNotification(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, gin.H{"created": created})
}

func (h *NotificationHandler) CleanOldNotifications(c *gin.Context) {
	days := ParseQueryInt(c, "days", 0)
	if days <= 0 {
		h.HandleServiceError(c, apperrors.NewBadRequestError("days query parameter is required"))
		return
	}

	if err := h.notificationService.CleanOldNotifications(days); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"cleaned": true})
}
