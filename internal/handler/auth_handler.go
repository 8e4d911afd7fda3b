package handler

import (
	"net/http"

	"couponhub/internal/service"
	"couponhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/members/join", h.JoinMember)
		auth.POST("/members/login", h.LoginMember)
		auth.POST("/partners/join", h.JoinPartner)
		auth.POST("/partners/login", h.LoginPartner)
		auth.POST("/refresh", h.Refresh)
	}
}

// JoinMember registers a consumer account
// @Summary      Register a member
// @Description  Creates a consumer account and returns a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.MemberJoinRequest  true  "Member Join Payload"
// @Success      201      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/members/join [post]
func (h *AuthHandler) JoinMember(c *gin.Context) {
	var req service.MemberJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	tokens, err := h.authService.JoinMember(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokens))
}

// JoinPartner registers a partner account
// @Summary      Register a partner
// @Description  Creates a partner account; pending issue requests addressed to the phone are bound to it
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PartnerJoinRequest  true  "Partner Join Payload"
// @Success      201      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/partners/join [post]
func (h *AuthHandler) JoinPartner(c *gin.Context) {
	var req service.PartnerJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	tokens, err := h.authService.JoinPartner(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokens))
}

// LoginMember authenticates a consumer
// @Summary      Login member
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Payload"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/members/login [post]
func (h *AuthHandler) LoginMember(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	tokens, err := h.authService.LoginMember(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// LoginPartner authenticates a partner
// @Summary      Login partner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Payload"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/partners/login [post]
func (h *AuthHandler) LoginPartner(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	tokens, err := h.authService.LoginPartner(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh rotates a refresh token into a new token pair
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  true  "Refresh Payload"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}
