package handlers

import (
	"github.com/gin-gonic/gin"

	"sav3_backend/internal/middleware"
	"sav3_backend/internal/services"
	"sav3_backend/internal/services/dto"
)

type SettingsHandler struct {
	*BaseHandler
	settingsService services.SettingsService
}

func NewSettingsHandler(base *BaseHandler, settingsService services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler:     base,
		settingsService: settingsService,
	}
}

func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	settings := r.Group("/notifications")
	settings.Use(middleware.AuthMiddleware())
	{
		settings.GET("/settings", h.GetSettings)
		settings.PUT("/settings", h.UpdateSettings)
		settings.PUT("/push-settings", h.UpdatePushSettings)
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.settingsService.GetSettings(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSettingsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.settingsService.UpdateSettings(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *SettingsHandler) UpdatePushSettings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePushSettingsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.settingsService.UpdatePushSettings(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}
