package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/grade-ledger-api/api/swagger"
	"github.com/noah-isme/grade-ledger-api/internal/handler"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	"github.com/noah-isme/grade-ledger-api/internal/service"
	"github.com/noah-isme/grade-ledger-api/pkg/cache"
	"github.com/noah-isme/grade-ledger-api/pkg/config"
	"github.com/noah-isme/grade-ledger-api/pkg/database"
	"github.com/noah-isme/grade-ledger-api/pkg/logger"
	"github.com/noah-isme/grade-ledger-api/pkg/storage"
	"github.com/noah-isme/grade-ledger-api/pkg/validation"
)

// @title Grade Ledger API
// @version 1.0.0
// @description Tamper-evident grade approval ledger
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var journal service.Journal
	switch cfg.Ledger.JournalDriver {
	case config.JournalDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect journal database: %w", err)
		}
		defer db.Close() //nolint:errcheck
		repo := repository.NewEventRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = repo
		checks["postgres"] = pingDB(db)
	default:
		journal = repository.NewMemoryJournal()
		logr.Warn("ledger journal is in memory; state is lost on restart")
	}

	redisClient := connectRedis(ctx, cfg, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var dispatcher service.EventDispatcher
	var notifier *service.NotificationService
	if cfg.Notify.Enabled {
		subscribers := []service.EventSubscriber{service.NewLogSubscriber(logr)}
		if redisClient != nil {
			subscribers = append(subscribers, repository.NewEventPublisher(redisClient, cfg.Notify.Channel))
		}
		notifier = service.NewNotificationService(subscribers, service.NotificationConfig{
			BufferSize: cfg.Notify.BufferSize,
			Retries:    cfg.Notify.Retries,
			RetryDelay: cfg.Notify.RetryDelay,
		}, metricsSvc, logr)
		notifier.Start(ctx)
		defer notifier.Stop()
		dispatcher = notifier
	}

	ledger, err := service.NewLedger(service.LedgerOptions{
		Authority:  cfg.Ledger.Authority,
		Journal:    journal,
		Dispatcher: dispatcher,
		Metrics:    metricsSvc,
		Logger:     logr,
	})
	if err != nil {
		return err
	}
	replayed, err := ledger.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore ledger after %d events: %w", replayed, err)
	}

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "grade-ledger")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Query.CacheTTL, logr, cfg.Query.CacheEnabled)

	validate := validation.New()
	services := routerServices{
		auth: service.NewAuthService(validate, logr, service.AuthConfig{
			Secret:     cfg.JWT.Secret,
			Issuer:     cfg.JWT.Issuer,
			Expiration: cfg.JWT.Expiration,
		}),
		roles:   service.NewRoleService(ledger, logr),
		courses: service.NewCourseService(ledger, validate, logr),
		access:  service.NewAccessService(ledger, logr),
		grades:  service.NewGradeWorkflowService(ledger, validate, logr),
		queries: service.NewGradeQueryService(ledger, cacheSvc, logr),
		journal: service.NewJournalService(ledger, logr),
		metrics: metricsSvc,
		ledger:  ledger,
		checks:  checks,
	}
	if cfg.Transcripts.Enabled {
		store, err := storage.NewLocalStorage(cfg.Transcripts.StorageDir)
		if err != nil {
			return fmt.Errorf("init transcript storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Transcripts.SignedURLSecret, cfg.Transcripts.SignedURLTTL)
		services.transcripts = service.NewTranscriptService(ledger, store, signer, service.TranscriptConfig{APIPrefix: cfg.APIPrefix}, logr)
		go cleanupTranscripts(ctx, store, cfg.Transcripts.SignedURLTTL, logr)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("journal", cfg.Ledger.JournalDriver),
			zap.Uint64("sequence", ledger.Sequence()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connectRedis returns nil when neither the stats cache nor event
// publishing needs Redis, or when Redis cannot be reached.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Query.CacheEnabled && !cfg.Notify.Enabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; stats cache and event publishing disabled", zap.Error(err))
		return nil
	}
	return client
}

func pingDB(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func cleanupTranscripts(ctx context.Context, store *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warn("transcript cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired transcripts removed", zap.Int("count", len(removed)))
			}
		}
	}
}
