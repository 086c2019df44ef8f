package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qs-lzh/spotlight/internal/app"
	"github.com/qs-lzh/spotlight/internal/metrics"
)

// reveal-contact allows 20 requests per client ip and hour
const (
	revealContactMax    = 20
	revealContactWindow = time.Hour
)

type Handler struct {
	app *app.App
}

func NewHandler(app *app.App) *Handler {
	return &Handler{
		app: app,
	}
}

// NewRouter wires every endpoint onto a gin engine.
func NewRouter(app *app.App) (*gin.Engine, error) {
	if !app.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	r := gin.New()
	if err := r.SetTrustedProxies(app.Config.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), RequestLogger(app.Logger), Authenticate(app.Tokens))

	h := NewHandler(app)

	r.GET("/healthz", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/events", h.HandleListEvents)
	r.GET("/events/:slug", h.HandleGetEvent)
	r.GET("/banner", h.HandleGetBanner)
	r.POST("/submissions", h.HandleCreateSubmission)
	r.POST("/reveal-contact",
		RateLimit(app.RateLimiter, "reveal", revealContactMax, revealContactWindow, app.Config.RateLimitFailOpen, app.Logger),
		h.HandleRevealContact)

	r.POST("/auth/login", h.HandleLogin)
	r.POST("/account/claim", h.HandleClaimProfile)

	account := r.Group("/", RequireAuth())
	account.GET("/account/submissions", h.HandleListMySubmissions)
	account.POST("/submissions/video-url", h.HandleUpdateVideoURL)

	admin := r.Group("/admin", RequireAdmin())
	admin.GET("/submissions", h.HandleListSubmissions)
	admin.POST("/submissions/update-status", h.HandleUpdateStatus)
	admin.POST("/submissions/reorder", h.HandleReorder)
	admin.POST("/submissions/request-file", h.HandleRequestFile)
	admin.GET("/reviews/list", h.HandleListReviews)
	admin.POST("/reviews/vote", h.HandleVote)
	admin.POST("/events", h.HandleCreateEvent)
	admin.PUT("/events/:id", h.HandleUpdateEvent)
	admin.DELETE("/events/:id", h.HandleDeleteEvent)
	admin.POST("/banner", h.HandleUpdateBanner)
	admin.GET("/calendar", h.HandleListCalendar)
	admin.POST("/calendar", h.HandleTrackCalendar)
	admin.DELETE("/calendar/:eventId", h.HandleUntrackCalendar)

	return r, nil
}

func (h *Handler) HandleHealth(ctx *gin.Context) {
	status := 200
	body := gin.H{"database": "ok", "cache": "ok"}

	sqlDB, err := h.app.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}
	if err != nil {
		status = 503
		body["database"] = "unavailable"
	}
	// The cache is optional, so its outage alone does not fail the check.
	if err := h.app.Cache.Ping(ctx.Request.Context()); err != nil {
		body["cache"] = "unavailable"
	}
	ctx.JSON(status, body)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
