package handler

import (
	"net/http"

	"couponhub/pkg/apperr"
	"couponhub/pkg/logger"
	"couponhub/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps an application error code to its HTTP status. Anything
// without a code is an internal fault and is logged, not surfaced.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	var status int
	switch code {
	case apperr.CodeInvalidValue:
		status = http.StatusBadRequest
	case apperr.CodeNotYours:
		status = http.StatusForbidden
	case apperr.CodeAlreadyUsed, apperr.CodeAlreadyDecided, apperr.CodeNotDecided:
		status = http.StatusConflict
	default:
		logger.L().Error("unhandled service error",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError,
			response.Error(http.StatusInternalServerError, "internal server error"))
		return
	}
	c.JSON(status, response.ErrorWithCode(status, string(code), err.Error()))
}
