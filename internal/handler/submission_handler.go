package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service/domain"
)

type CreateSubmissionRequest struct {
	EventID uint `json:"eventId"`
	domain.SubmitterInfo
	domain.FilmInfo
}

func (h *Handler) HandleCreateSubmission(ctx *gin.Context) {
	var req CreateSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	var sessionUserID *uint
	if claims, ok := currentClaims(ctx); ok {
		sessionUserID = &claims.UserID
	}
	submission, err := h.app.SubmissionService.Create(ctx.Request.Context(), req.EventID, req.SubmitterInfo, req.FilmInfo, sessionUserID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(201, gin.H{
		"message":    "Submission received",
		"submission": submission,
	})
}

type UpdateStatusRequest struct {
	SubmissionID uint `json:"submissionId"`
	domain.StatusUpdate
}

func (h *Handler) HandleUpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	if req.SubmissionID == 0 {
		ctx.JSON(400, gin.H{
			"error":   "Invalid request",
			"message": "submission ID and status are required",
		})
		return
	}

	submission, err := h.app.SubmissionService.SetStatus(ctx.Request.Context(), req.SubmissionID, req.StatusUpdate)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success":    true,
		"submission": submission,
	})
}

type ReorderRequest struct {
	Order []repository.SortOrderEntry `json:"order"`
}

func (h *Handler) HandleReorder(ctx *gin.Context) {
	var req ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	n, err := h.app.SubmissionService.Reorder(ctx.Request.Context(), req.Order)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success": true,
		"updated": n,
	})
}

type SubmissionRefRequest struct {
	SubmissionID uint `json:"submissionId"`
}

func (h *Handler) HandleRequestFile(ctx *gin.Context) {
	var req SubmissionRefRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	if req.SubmissionID == 0 {
		ctx.JSON(400, gin.H{
			"error":   "Invalid request",
			"message": "submission ID is required",
		})
		return
	}
	request, err := h.app.SubmissionService.RequestFullResolutionFile(ctx.Request.Context(), req.SubmissionID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success": true,
		"message": "File request email sent",
		"request": request,
	})
}

func (h *Handler) HandleListSubmissions(ctx *gin.Context) {
	eventID, err := parseID(ctx.Query("event_id"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	listing, err := h.app.SubmissionService.ListForEvent(ctx.Request.Context(), eventID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, listing)
}

func (h *Handler) HandleListMySubmissions(ctx *gin.Context) {
	claims, _ := currentClaims(ctx)
	submissions, err := h.app.SubmissionService.ListForFilmmaker(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"submissions": submissions})
}

type VideoURLRequest struct {
	SubmissionID uint   `json:"submissionId"`
	VideoURL     string `json:"videoUrl"`
}

func (h *Handler) HandleUpdateVideoURL(ctx *gin.Context) {
	var req VideoURLRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	if req.SubmissionID == 0 {
		ctx.JSON(400, gin.H{
			"error":   "Invalid request",
			"message": "submission ID is required",
		})
		return
	}
	claims, _ := currentClaims(ctx)
	submission, err := h.app.SubmissionService.UpdateVideoURL(ctx.Request.Context(), claims.UserID, req.SubmissionID, req.VideoURL)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success":    true,
		"submission": submission,
	})
}
