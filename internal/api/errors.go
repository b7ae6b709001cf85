package api

import (
	"errors"
	"net/http"

	"daily_quest/internal/notify"
	"daily_quest/internal/service"
	"daily_quest/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError maps service errors to status codes. Anything unexpected is
// logged and reported as a bare 500.
func abortWithError(c *gin.Context, err error, action string) {
	log := logger.Logger()

	switch {
	case errors.Is(err, service.ErrMissingSession):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing session"})
	case errors.Is(err, service.ErrUnknownSession):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown session"})
	case errors.Is(err, service.ErrQuestNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "quest not found"})
	case errors.Is(err, service.ErrEmptyFeedback):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message is required"})
	case errors.Is(err, service.ErrFeedbackTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message is too long"})
	case errors.Is(err, service.ErrInvariantViolation):
		log.Error("failed to "+action, zap.Bool("invariant_violation", true), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	case errors.Is(err, notify.ErrNotConfigured):
		log.Error("failed to "+action, zap.String("reason", "notification channel not configured"), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		log.Error("failed to "+action, zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
