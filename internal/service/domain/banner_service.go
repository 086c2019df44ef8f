package domain

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
	"k8s.io/utils/ptr"

	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service"
)

const (
	bannerHTMLKey    = "banner_html"
	bannerEnabledKey = "banner_enabled"

	DefaultBannerHTML = "<p>Welcome to AVL Film!</p>"
)

type BannerSettings struct {
	HTML    string `json:"html"`
	Enabled bool   `json:"enabled"`
}

type BannerUpdate struct {
	HTML    *string `json:"banner_html"`
	Enabled *bool   `json:"banner_enabled"`
}

type BannerService interface {
	GetBanner(ctx context.Context) BannerSettings
	UpdateBanner(ctx context.Context, update BannerUpdate) (BannerSettings, error)
}

type bannerService struct {
	repo   repository.SettingRepo
	aside  *cache.Aside
	clock  clock.PassiveClock
	logger *zap.Logger
}

var _ BannerService = (*bannerService)(nil)

func NewBannerService(settingRepo repository.SettingRepo, aside *cache.Aside, clk clock.PassiveClock, logger *zap.Logger) *bannerService {
	return &bannerService{
		repo:   settingRepo,
		aside:  aside,
		clock:  clk,
		logger: logger,
	}
}

// GetBanner never fails. When neither the cache nor the store can answer,
// the default banner is shown.
func (s *bannerService) GetBanner(ctx context.Context) BannerSettings {
	settings, err := cache.GetOrLoad(ctx, s.aside, cache.BannerSettingsKey, 0,
		func(ctx context.Context) (BannerSettings, error) {
			values, err := s.repo.GetByKeys(ctx, bannerHTMLKey, bannerEnabledKey)
			if err != nil {
				return BannerSettings{}, err
			}
			html := values[bannerHTMLKey]
			if html == "" {
				html = DefaultBannerHTML
			}
			return BannerSettings{HTML: html, Enabled: values[bannerEnabledKey] == "true"}, nil
		})
	if err != nil {
		s.logger.Error("banner settings unavailable, serving defaults", zap.Error(err))
		return BannerSettings{HTML: DefaultBannerHTML, Enabled: true}
	}
	return settings
}

func (s *bannerService) UpdateBanner(ctx context.Context, update BannerUpdate) (BannerSettings, error) {
	if update.HTML == nil {
		return BannerSettings{}, service.Invalid("banner_html must be a string")
	}
	if update.Enabled == nil {
		return BannerSettings{}, service.Invalid("banner_enabled must be a boolean")
	}
	now := s.clock.Now()
	err := s.repo.UpsertMany(ctx, []model.SiteSetting{
		{Key: bannerHTMLKey, Value: update.HTML, UpdatedAt: now},
		{Key: bannerEnabledKey, Value: ptr.To(strconv.FormatBool(*update.Enabled)), UpdatedAt: now},
	})
	if err != nil {
		return BannerSettings{}, err
	}
	s.aside.Invalidate(ctx, cache.BannerSettingsKey)
	return BannerSettings{HTML: *update.HTML, Enabled: *update.Enabled}, nil
}
