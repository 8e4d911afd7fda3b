package handler

import (
	"net/http"

	"couponhub/internal/middleware"
	"couponhub/internal/model"
	"couponhub/internal/service"
	"couponhub/pkg/apperr"
	"couponhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	jwtSecret      []byte
}

func NewPaymentHandler(paymentService service.PaymentService, jwtSecret []byte) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, jwtSecret: jwtSecret}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.POST("/qr", middleware.RequireRole(h.jwtSecret, model.ActorMember), h.CreateQr)
		// Resolve and confirm come from settlement terminals, which carry no
		// account; the short-lived payment code is the credential.
		payments.GET("/:code", h.Resolve)
		payments.POST("/:code/confirm", h.Confirm)
	}
}

type createQrRequest struct {
	CouponID string `json:"coupon_id" binding:"required"`
}

// CreateQr issues a fresh 60-second payment token for a coupon
// @Summary      Create a payment QR
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      createQrRequest  true  "Coupon ID"
// @Success      201      {object}  response.Response{data=service.PaymentQrView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/payments/qr [post]
func (h *PaymentHandler) CreateQr(c *gin.Context) {
	_, actorID, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthenticated"))
		return
	}

	var req createQrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	couponID, err := uuid.Parse(req.CouponID)
	if err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidValue, "malformed coupon id"))
		return
	}

	view, err := h.paymentService.CreateQr(c.Request.Context(), couponID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, view))
}

// Resolve looks up a scanned payment code for the terminal
// @Summary      Resolve a payment code
// @Tags         payments
// @Produce      json
// @Param        code  path      string  true  "Payment Code"
// @Success      200   {object}  response.Response{data=service.PaymentResolution}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /api/payments/{code} [get]
func (h *PaymentHandler) Resolve(c *gin.Context) {
	resolution, err := h.paymentService.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resolution))
}

// Confirm settles the coupon behind a payment code
// @Summary      Confirm a payment
// @Tags         payments
// @Produce      json
// @Param        code  path      string  true  "Payment Code"
// @Success      200   {object}  response.Response{data=service.PaymentConfirmation}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /api/payments/{code}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	confirmation, err := h.paymentService.Confirm(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, confirmation))
}
