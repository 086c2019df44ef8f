package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/qs-lzh/spotlight/config"
	"github.com/qs-lzh/spotlight/internal/app"
	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/handler"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/mq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var (
		envFiles []string
		migrate  bool
	)
	pflag.StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment (default .env)")
	pflag.BoolVar(&migrate, "migrate", false, "run database migrations before serving")
	pflag.Parse()

	if err := run(envFiles, migrate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFiles []string, migrate bool) error {
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if migrate {
		if err := model.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrated")
	}

	redisCache, err := cache.NewRedisCache(cfg.CacheURL)
	if err != nil {
		return err
	}

	mqConn, err := mq.NewMQConn(cfg.MQURL)
	if err != nil {
		return fmt.Errorf("connect message queue: %w", err)
	}

	a, err := app.New(cfg, db, redisCache, mqConn, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close resources", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Init(ctx); err != nil {
		return err
	}

	router, err := handler.NewRouter(a)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.RunWorkers(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
