package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/spotlight/internal/service/domain"
)

func (h *Handler) HandleGetBanner(ctx *gin.Context) {
	ctx.JSON(200, h.app.BannerService.GetBanner(ctx.Request.Context()))
}

func (h *Handler) HandleUpdateBanner(ctx *gin.Context) {
	var req domain.BannerUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	settings, err := h.app.BannerService.UpdateBanner(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"success": true,
		"banner":  settings,
	})
}

type RevealContactRequest struct {
	FilmmakerID uint `json:"filmmakerId"`
}

func (h *Handler) HandleRevealContact(ctx *gin.Context) {
	var req RevealContactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	contact, err := h.app.ContactService.RevealContact(ctx.Request.Context(), req.FilmmakerID)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, contact)
}

func (h *Handler) HandleListCalendar(ctx *gin.Context) {
	entries, err := h.app.CalendarService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"events": entries})
}

type TrackCalendarRequest struct {
	EventID         uint   `json:"eventId"`
	ExternalEventID string `json:"externalEventId"`
}

func (h *Handler) HandleTrackCalendar(ctx *gin.Context) {
	var req TrackCalendarRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	if err := h.app.CalendarService.Track(ctx.Request.Context(), req.EventID, req.ExternalEventID); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{
		"message":         "Event added to calendar successfully",
		"eventId":         req.EventID,
		"externalEventId": req.ExternalEventID,
	})
}

func (h *Handler) HandleUntrackCalendar(ctx *gin.Context) {
	eventID, err := parseID(ctx.Param("eventId"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	if err := h.app.CalendarService.Untrack(ctx.Request.Context(), eventID); err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	ctx.JSON(200, gin.H{"success": true})
}
