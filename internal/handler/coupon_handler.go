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

type CouponHandler struct {
	couponService service.CouponService
	jwtSecret     []byte
}

func NewCouponHandler(couponService service.CouponService, jwtSecret []byte) *CouponHandler {
	return &CouponHandler{couponService: couponService, jwtSecret: jwtSecret}
}

func (h *CouponHandler) RegisterRoutes(router *gin.RouterGroup) {
	coupons := router.Group("/api/coupons")
	{
		// Preview is anonymous: the holder of a printed code has not
		// necessarily signed up yet.
		coupons.GET("/preview/:code", h.Preview)

		member := coupons.Group("", middleware.RequireRole(h.jwtSecret, model.ActorMember))
		{
			member.POST("/register", h.Register)
			member.GET("", h.List)
			member.GET("/:id", h.Detail)
			member.DELETE("", h.Delete)
			member.GET("/history", h.UsageHistory)
		}
	}
}

// Preview resolves a printed registration code anonymously
// @Summary      Preview a coupon by code
// @Tags         coupons
// @Produce      json
// @Param        code  path      string  true  "Registration Code"
// @Success      200   {object}  response.Response{data=service.CouponPreview}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /api/coupons/preview/{code} [get]
func (h *CouponHandler) Preview(c *gin.Context) {
	preview, err := h.couponService.PreviewByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

type registerCouponRequest struct {
	RegistrationCode string `json:"registration_code" binding:"required"`
	SignatureCode    string `json:"signature_code"`
}

// Register claims a coupon for the authenticated member
// @Summary      Register a coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      registerCouponRequest  true  "Registration Code"
// @Success      200      {object}  response.Response{data=service.CouponDetail}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/coupons/register [post]
func (h *CouponHandler) Register(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req registerCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	detail, err := h.couponService.Register(c.Request.Context(), req.RegistrationCode, req.SignatureCode, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// List pages the member's wallet
func (h *CouponHandler) List(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	params := pagination.Parse(c)

	items, total, err := h.couponService.List(c.Request.Context(), actorID, params.Page, params.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, params.Page, params.Size, total))
}

// Detail returns one coupon from the member's wallet
func (h *CouponHandler) Detail(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed coupon id"))
		return
	}

	detail, err := h.couponService.Detail(c.Request.Context(), couponID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

type deleteCouponsRequest struct {
	CouponIDs []string `json:"coupon_ids" binding:"required"`
}

// Delete hides a batch of coupons from the member's wallet
// @Summary      Delete coupons
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      deleteCouponsRequest  true  "Coupon IDs"
// @Success      200      {object}  response.Response{data=[]service.CouponDetail}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/coupons [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req deleteCouponsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	couponIDs := make([]uuid.UUID, 0, len(req.CouponIDs))
	for _, raw := range req.CouponIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed coupon id"))
			return
		}
		couponIDs = append(couponIDs, id)
	}

	unused, err := h.couponService.SoftDelete(c.Request.Context(), actorID, couponIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unused))
}

// UsageHistory pages the member's settled coupons
func (h *CouponHandler) UsageHistory(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}
	params := pagination.Parse(c)

	items, total, err := h.couponService.UsageHistory(c.Request.Context(), actorID, params.Page, params.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, params.Page, params.Size, total))
}
