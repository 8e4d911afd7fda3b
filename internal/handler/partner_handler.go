package handler

import (
	"net/http"

	"couponhub/internal/middleware"
	"couponhub/internal/model"
	"couponhub/internal/service"
	"couponhub/pkg/apperr"
	"couponhub/pkg/pagination"
	"couponhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PartnerHandler struct {
	partnerService service.PartnerService
	auditService   service.AuditService
	jwtSecret      []byte
}

func NewPartnerHandler(partnerService service.PartnerService, auditService service.AuditService, jwtSecret []byte) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService, auditService: auditService, jwtSecret: jwtSecret}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	partners := router.Group("/api/partners", middleware.RequireRole(h.jwtSecret, model.ActorMember, model.ActorPartner))
	{
		partners.GET("", h.Search)
		partners.GET("/:id/products", h.SearchProducts)
	}
	router.GET("/api/audit", middleware.RequireRole(h.jwtSecret, model.ActorPartner), h.ListAudit)
}

// Search finds partners by name keyword
func (h *PartnerHandler) Search(c *gin.Context) {
	params := pagination.Parse(c)
	items, total, err := h.partnerService.Search(c.Request.Context(), c.Query("keyword"), params.Page, params.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, params.Page, params.Size, total))
}

// SearchProducts finds a partner's products by name keyword
func (h *PartnerHandler) SearchProducts(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed partner id"))
		return
	}
	params := pagination.Parse(c)
	items, total, err := h.partnerService.SearchProducts(c.Request.Context(), partnerID, c.Query("keyword"), params.Page, params.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, params.Page, params.Size, total))
}

// ListAudit pages the action trail, optionally filtered by action
func (h *PartnerHandler) ListAudit(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.auditService.List(c.Request.Context(), c.Query("action"), params.Page, params.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, entries, params.Page, params.Size, total))
}
