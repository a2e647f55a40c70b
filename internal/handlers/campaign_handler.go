package handlers

import (
	"github.com/gin-gonic/gin"

	"sav3_backend/internal/middleware"
	"sav3_backend/internal/services"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/response"
)

type CampaignHandler struct {
	*BaseHandler
	campaignService services.CampaignService
}

func NewCampaignHandler(base *BaseHandler, campaignService services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		BaseHandler:     base,
		campaignService: campaignService,
	}
}

func (h *CampaignHandler) RegisterRoutes(r *gin.RouterGroup) {
	campaigns := r.Group("/admin/campaigns")
	campaigns.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
	{
		campaigns.POST("", h.CreateCampaign)
		campaigns.GET("", h.ListCampaigns)
		campaigns.GET("/:campaignId", h.GetCampaign)
		campaigns.PUT("/:campaignId", h.UpdateCampaign)
		campaigns.PUT("/:campaignId/cancel", h.CancelCampaign)
		campaigns.DELETE("/:campaignId", h.DeleteCampaign)
	}
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCampaignRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.campaignService.CreateCampaign(adminID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.Created(c, resp)
}

func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	resp, err := h.campaignService.ListCampaigns(page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	totalPages := int((resp.Total + int64(pageSize) - 1) / int64(pageSize))
	h.Paginated(c, resp.Campaigns, &response.Pagination{
		Total:      resp.Total,
		Page:       page,
		PerPage:    pageSize,
		TotalPages: totalPages,
	})
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	resp, err := h.campaignService.GetCampaign(c.Param("campaignId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.campaignService.UpdateCampaign(c.Param("campaignId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, resp)
}

func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	if err := h.campaignService.CancelCampaign(c.Param("campaignId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"cancelled": true})
}

func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if err := h.campaignService.DeleteCampaign(c.Param("campaignId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.OK(c, gin.H{"deleted": true})
}
