package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/spotlight/internal/auth"
	"github.com/qs-lzh/spotlight/internal/service/domain"
)

func (h *Handler) HandleLogin(ctx *gin.Context) {
	var req domain.LoginInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	session, err := h.app.AccountService.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	h.setSessionCookie(ctx, session.Token)
	ctx.JSON(200, session)
}

func (h *Handler) HandleClaimProfile(ctx *gin.Context) {
	var req domain.ClaimInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}
	session, err := h.app.AccountService.Claim(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, h.app.Logger, err)
		return
	}
	h.setSessionCookie(ctx, session.Token)
	ctx.JSON(200, session)
}

func (h *Handler) setSessionCookie(ctx *gin.Context, token string) {
	maxAge := int(auth.DefaultTokenTTL.Seconds())
	ctx.SetCookie(sessionCookie, token, maxAge, "/", "", !h.app.Config.IsDevelopment(), true)
}
