package http

import (
	"errors"
	"net/http"

	"mediahub/domain/model"
	"mediahub/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidAccount),
		errors.Is(err, model.ErrUnsupportedPlatform),
		errors.Is(err, model.ErrUnsupportedContent),
		errors.Is(err, model.ErrStateMissing),
		errors.Is(err, model.ErrStateInvalid),
		errors.Is(err, model.ErrStateExpired):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthenticated),
		errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrSignatureMismatch):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotConfigured):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Unmapped errors are logged and
// reported without their detail.
func respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.GetLogger().
			WithField("path", ctx.FullPath()).
			WithField("error", err).
			Error("Unhandled error while serving request")
		ctx.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

// requireUser reads the authenticated user id set by the auth middleware.
func requireUser(ctx *gin.Context) (string, bool) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return "", false
	}
	return userID, true
}
