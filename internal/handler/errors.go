package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reliefboard/internal/service"
	"reliefboard/pkg/logger"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// currentUser returns the authenticated caller.
func currentUser(c *gin.Context) (int64, string, bool) {
	id, ok := c.Get(CtxUserID)
	if !ok {
		return 0, "", false
	}
	userID, ok := id.(int64)
	if !ok {
		return 0, "", false
	}
	return userID, c.GetString(CtxRole), true
}

func mustUser(c *gin.Context) (int64, string, bool) {
	userID, role, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	}
	return userID, role, ok
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as 500 without details.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrEmailExists), errors.Is(err, service.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.WithTrace(c.Request.Context(), log).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
