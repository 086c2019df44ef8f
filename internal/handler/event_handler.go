package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/spotlight/internal/service/domain"
)

func (h *Handler) HandleListEvents(ctx *gin.Context) {
	events, err := h.app.EventService.ListEvents(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"events": events})
}

func (h *Handler) HandleGetEvent(ctx *gin.Context) {
	event, err := h.app.EventService.GetEventBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"event":          event,
		"submissionOpen": h.app.EventService.IsSubmissionOpen(event, h.app.Clock.Now()),
	})
}

func (h *Handler) HandleCreateEvent(ctx *gin.Context) {
	var req domain.EventInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	event, err := h.app.EventService.CreateEvent(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(201, gin.H{"event": event})
}

func (h *Handler) HandleUpdateEvent(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	var req domain.EventPatch
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	event, err := h.app.EventService.UpdateEvent(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"event": event})
}

func (h *Handler) HandleDeleteEvent(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	if err := h.app.EventService.DeleteEvent(ctx.Request.Context(), id); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"success": true})
}
