package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/service"
)

// respondError maps a service error to its status code. Anything not in
// the taxonomy is a durable store or programming failure: it is logged and
// answered with 500 without details.
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	status, title := statusFor(err)
	if status == 500 {
		logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(500, gin.H{
			"error":   "Internal server error",
			"message": "Something went wrong, please try again later",
		})
		return
	}
	_ = ctx.Error(err)
	ctx.JSON(status, gin.H{
		"error":   title,
		"message": err.Error(),
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return 400, "Invalid request"
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrInvalidVote):
		return 400, "Request not allowed"
	case errors.Is(err, service.ErrNotFound):
		return 404, "Not found"
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrHasDependents):
		return 409, "Conflict"
	case errors.Is(err, service.ErrUnauthorized):
		return 401, "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return 403, "Forbidden"
	case errors.Is(err, cache.ErrCacheUnavailable):
		return 503, "Service unavailable"
	default:
		return 500, ""
	}
}

func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(400, gin.H{
		"error":   "Invalid request format",
		"message": err.Error(),
	})
}
