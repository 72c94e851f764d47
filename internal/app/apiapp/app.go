package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/config"
	"github.com/ivankudzin/tagbot/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/tagbot/internal/infra/s3"
	"github.com/ivankudzin/tagbot/internal/infra/telegram"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tagbot/internal/repo/redis"
	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	archivesvc "github.com/ivankudzin/tagbot/internal/services/archive"
	broadcastsvc "github.com/ivankudzin/tagbot/internal/services/broadcast"
	deliverysvc "github.com/ivankudzin/tagbot/internal/services/delivery"
	modsvc "github.com/ivankudzin/tagbot/internal/services/moderation"
	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
	webhooksvc "github.com/ivankudzin/tagbot/internal/services/webhook"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pgrepo.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ruleCache := redrepo.NewRuleCacheRepo(redisClient, 0)

	tagRepo := pgrepo.NewTagRepo(pool)
	logRepo := pgrepo.NewLogRepo(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)
	reactionQueueRepo := pgrepo.NewReactionQueueRepo(pool)
	mediaHashRepo := pgrepo.NewMediaHashRepo(pool)

	var bot *telegram.Bot
	if b, err := telegram.NewBot(cfg.Bot.Token, cfg.Delivery.Timeout); err != nil {
		log.Warn("telegram init failed, continuing in degraded mode", zap.Error(err))
	} else {
		bot = b
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	registryService := regsvc.NewService(tagRepo, ruleCache, log)
	activityService := activitysvc.NewService(logRepo)
	moderationService := modsvc.NewService(moderationRepo)
	notifier := webhooksvc.NewNotifier(cfg.Webhook, httpclient.New(cfg.Webhook.Timeout), log)
	archiveService := archivesvc.NewService(s3Client, bot, cfg.S3.Bucket, log)
	broadcastService := broadcastsvc.NewService(logRepo, bot, log)

	var deliverer *deliverysvc.Service
	var reactor deliverysvc.Reactor
	if bot != nil {
		reactor = bot
		deliverer = deliverysvc.NewService(
			bot,
			reactionQueueRepo,
			moderationService,
			notifier,
			activityService,
			cfg.Delivery,
			log,
		)
	}

	deps := Dependencies{
		RegistryService:   registryService,
		ModerationService: moderationService,
		ActivityService:   activityService,
		BroadcastService:  broadcastService,
		ArchiveService:    archiveService,
		LogRepo:           logRepo,
		TagRepo:           tagRepo,
		ModerationRepo:    moderationRepo,
		ReactionQueueRepo: reactionQueueRepo,
		MediaHashRepo:     mediaHashRepo,
		Logger:            log,
		Config:            cfg,
	}
	if deliverer != nil {
		deps.Deliverer = deliverer
	}
	if reactor != nil {
		deps.Reactor = reactor
	}

	RegisterRoutes(r, deps)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("admin api started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
