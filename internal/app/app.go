package app

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/qs-lzh/spotlight/config"
	"github.com/qs-lzh/spotlight/internal/auth"
	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/mq"
	"github.com/qs-lzh/spotlight/internal/notify"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/service/domain"
	"github.com/qs-lzh/spotlight/internal/service/workflow"
)

type App struct {
	Config *config.Config

	DB     *gorm.DB
	Cache  *cache.RedisCache
	Logger *zap.Logger
	MQConn *amqp.Connection
	Clock  clock.PassiveClock

	Tokens      *auth.TokenIssuer
	RateLimiter *cache.RateLimiter

	EventRepo      repository.EventRepo
	SubmissionRepo repository.SubmissionRepo
	ReviewRepo     repository.ReviewRepo
	FilmmakerRepo  repository.FilmmakerRepo
	SettingRepo    repository.SettingRepo

	EventService      domain.EventService
	SubmissionService domain.SubmissionService
	ReviewService     domain.ReviewService
	AccountService    domain.AccountService
	ContactService    domain.ContactService
	BannerService     domain.BannerService
	CalendarService   domain.CalendarService

	// NotificationWorkflow is nil when a dispatcher was injected with
	// WithDispatcher.
	NotificationWorkflow *workflow.NotificationWorkflow

	publisher *mq.ChannelPublisher
}

type options struct {
	clock      clock.PassiveClock
	dispatcher notify.Dispatcher
}

type Option func(*options)

// WithClock replaces the wall clock used for deadlines and timestamps.
func WithClock(clk clock.PassiveClock) Option {
	return func(o *options) { o.clock = clk }
}

// WithDispatcher bypasses the message queue for notifications.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

func New(cfg *config.Config, db *gorm.DB, redisCache *cache.RedisCache, mqConn *amqp.Connection, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Cache:  redisCache,
		Logger: logger,
		MQConn: mqConn,
		Clock:  o.clock,
	}

	dispatcher := o.dispatcher
	if dispatcher == nil {
		if mqConn == nil {
			return nil, errors.New("app: a message queue connection or a dispatcher is required")
		}
		publisher, err := mq.NewChannelPublisher(mqConn)
		if err != nil {
			return nil, fmt.Errorf("open publish channel: %w", err)
		}
		app.publisher = publisher
		app.NotificationWorkflow = workflow.NewNotificationWorkflow(publisher, newDeliverer(cfg, logger), logger)
		dispatcher = app.NotificationWorkflow
	}

	app.Tokens = auth.NewTokenIssuer(cfg.JWTSecret, auth.DefaultTokenTTL, o.clock)
	app.RateLimiter = cache.NewRateLimiter(redisCache)
	aside := cache.NewAside(redisCache, logger)

	app.EventRepo = repository.NewEventRepoGorm(db)
	app.SubmissionRepo = repository.NewSubmissionRepoGorm(db)
	app.ReviewRepo = repository.NewReviewRepoGorm(db)
	app.FilmmakerRepo = repository.NewFilmmakerRepoGorm(db)
	app.SettingRepo = repository.NewSettingRepoGorm(db)

	eventService := domain.NewEventService(db, app.EventRepo, app.SubmissionRepo, aside, logger)
	app.EventService = eventService
	app.SubmissionService = domain.NewSubmissionService(app.SubmissionRepo, app.FilmmakerRepo, app.ReviewRepo,
		eventService, dispatcher, o.clock, logger, cfg.SiteURL)
	app.ReviewService = domain.NewReviewService(app.ReviewRepo, app.SubmissionRepo, o.clock)
	app.AccountService = domain.NewAccountService(app.FilmmakerRepo, app.Tokens, o.clock, logger)
	app.ContactService = domain.NewContactService(app.FilmmakerRepo)
	app.BannerService = domain.NewBannerService(app.SettingRepo, aside, o.clock, logger)
	app.CalendarService = domain.NewCalendarService(cache.NewCalendarTracker(redisCache), eventService)

	return app, nil
}

// newDeliverer picks the real providers when they are configured and
// falls back to logging otherwise.
func newDeliverer(cfg *config.Config, logger *zap.Logger) *notify.Deliverer {
	logSender := notify.NewLogSender(logger)
	var mailer notify.Mailer = logSender
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}
	var chat notify.ChatNotifier = logSender
	if cfg.SlackWebhookURL != "" {
		chat = notify.NewSlackNotifier(cfg.SlackWebhookURL)
	}
	return notify.NewDeliverer(notify.NewTemplateStore(), mailer, chat)
}

// Init declares the queues and checks the cache. An unreachable cache is
// only logged: every cache user degrades on its own.
func (app *App) Init(ctx context.Context) error {
	if err := app.Cache.EnsureConnected(ctx); err != nil {
		app.Logger.Warn("cache not reachable at startup", zap.Error(err))
	}

	// init rabbit mq
	if app.MQConn != nil {
		if err := mq.InitQueues(app.MQConn); err != nil {
			return fmt.Errorf("declare queues: %w", err)
		}
	}
	return nil
}

// RunWorkers consumes notification queues until ctx is done. It returns
// at once when notifications are not queued.
func (app *App) RunWorkers(ctx context.Context) error {
	if app.NotificationWorkflow == nil || app.MQConn == nil {
		return nil
	}
	return app.NotificationWorkflow.Run(ctx, app.MQConn)
}

func (app *App) Close() error {
	var errs []error
	if app.publisher != nil {
		errs = append(errs, app.publisher.Close())
	}
	if app.MQConn != nil {
		errs = append(errs, app.MQConn.Close())
	}
	errs = append(errs, app.Cache.Close())
	sqlDB, err := app.DB.DB()
	if err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
