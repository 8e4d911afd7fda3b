package handler

import (
	"net/http"

	"couponhub/internal/middleware"
	"couponhub/internal/model"
	"couponhub/internal/repository"
	"couponhub/internal/service"
	"couponhub/pkg/apperr"
	"couponhub/pkg/pagination"
	"couponhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type IssueHandler struct {
	issueService service.IssueService
	jwtSecret    []byte
}

func NewIssueHandler(issueService service.IssueService, jwtSecret []byte) *IssueHandler {
	return &IssueHandler{issueService: issueService, jwtSecret: jwtSecret}
}

func (h *IssueHandler) RegisterRoutes(router *gin.RouterGroup) {
	issues := router.Group("/api/issues")
	{
		issues.POST("", middleware.RequireRole(h.jwtSecret, model.ActorMember), h.CreateRequest)
		issues.POST("/self", middleware.RequireRole(h.jwtSecret, model.ActorPartner), h.SelfIssue)
		issues.PUT("/:id/decision", middleware.RequireRole(h.jwtSecret, model.ActorPartner), h.Decide)
		issues.GET("", middleware.RequireRole(h.jwtSecret, model.ActorMember, model.ActorPartner), h.List)
		issues.GET("/:id/request", middleware.RequireRole(h.jwtSecret, model.ActorMember, model.ActorPartner), h.GetRequest)
		issues.GET("/:id/decision", middleware.RequireRole(h.jwtSecret, model.ActorMember, model.ActorPartner), h.GetDecision)
		issues.DELETE("", middleware.RequireRole(h.jwtSecret, model.ActorMember, model.ActorPartner), h.Delete)
	}
}

// CreateRequest files a coupon issue request with a partner
// @Summary      Create an issue request
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateIssueRequestDTO  true  "Issue Request Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/issues [post]
func (h *IssueHandler) CreateRequest(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req service.CreateIssueRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	issueID, err := h.issueService.CreateRequest(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"issue_id": issueID.String()}))
}

// SelfIssue mints coupons for the partner's own products without a vendor
// @Summary      Self-issue coupons
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SelfIssueDTO  true  "Self Issue Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/issues/self [post]
func (h *IssueHandler) SelfIssue(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req service.SelfIssueDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	issueID, err := h.issueService.SelfIssue(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"issue_id": issueID.String()}))
}

// Decide approves or rejects a pending issue request
// @Summary      Decide an issue request
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Issue ID"
// @Param        payload  body      service.DecideIssueDTO  true  "Decision Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/issues/{id}/decision [put]
func (h *IssueHandler) Decide(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed issue id"))
		return
	}

	var req service.DecideIssueDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	if err := h.issueService.Decide(c.Request.Context(), issueID, actorID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// List pages the caller's issue requests
// @Summary      List issue requests
// @Tags         issues
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter (PENDING, ISSUED, REJECTED, COMPLETED)"
// @Param        title   query     string  false  "Title keyword"
// @Param        page    query     int     false  "Page"
// @Param        size    query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]service.IssueListItem}
// @Router       /api/issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	role, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	params := pagination.Parse(c)
	filter := repository.IssueFilter{
		Status: c.Query("status"),
		Title:  c.Query("title"),
		Page:   params.Page,
		Size:   params.Size,
	}

	items, total, err := h.issueService.List(c.Request.Context(), role, actorID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, params.Page, params.Size, total))
}

// GetRequest returns the original request sheet
func (h *IssueHandler) GetRequest(c *gin.Context) {
	role, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed issue id"))
		return
	}

	sheet, err := h.issueService.GetRequest(c.Request.Context(), issueID, role, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheet))
}

// GetDecision returns the decided outcome of a request
func (h *IssueHandler) GetDecision(c *gin.Context) {
	role, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	issueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed issue id"))
		return
	}

	decision, err := h.issueService.GetDecision(c.Request.Context(), issueID, role, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, decision))
}

type deleteIssuesRequest struct {
	IssueIDs []string `json:"issue_ids" binding:"required"`
}

// Delete hides or withdraws a batch of issue requests for the caller
// @Summary      Delete issue requests
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      deleteIssuesRequest  true  "Issue IDs"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/issues [delete]
func (h *IssueHandler) Delete(c *gin.Context) {
	role, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req deleteIssuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	issueIDs := make([]uuid.UUID, 0, len(req.IssueIDs))
	for _, raw := range req.IssueIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed issue id"))
			return
		}
		issueIDs = append(issueIDs, id)
	}

	if err := h.issueService.Delete(c.Request.Context(), role, actorID, issueIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}
