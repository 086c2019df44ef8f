package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/service/domain"
)

func (h *Handler) HandleListReviews(ctx *gin.Context) {
	submissionID, err := parseID(ctx.Query("submission_id"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	reviews, err := h.app.ReviewService.ListReviews(ctx.Request.Context(), submissionID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	if reviews == nil {
		reviews = []model.ReviewWithAdmin{}
	}
	ctx.JSON(200, reviews)
}

func (h *Handler) HandleVote(ctx *gin.Context) {
	var req domain.VoteInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	claims, _ := currentClaims(ctx)
	review, err := h.app.ReviewService.RecordVote(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success": true,
		"review":  review,
	})
}
