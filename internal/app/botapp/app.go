package botapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/config"
	"github.com/ivankudzin/tagbot/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/tagbot/internal/infra/s3"
	tginfra "github.com/ivankudzin/tagbot/internal/infra/telegram"
	"github.com/ivankudzin/tagbot/internal/jobs/drain"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tagbot/internal/repo/redis"
	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	archivesvc "github.com/ivankudzin/tagbot/internal/services/archive"
	dedupsvc "github.com/ivankudzin/tagbot/internal/services/dedup"
	deliverysvc "github.com/ivankudzin/tagbot/internal/services/delivery"
	modsvc "github.com/ivankudzin/tagbot/internal/services/moderation"
	pipelinesvc "github.com/ivankudzin/tagbot/internal/services/pipeline"
	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
	webhooksvc "github.com/ivankudzin/tagbot/internal/services/webhook"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	s3       *minio.Client
	bot      *tginfra.Bot
	pipeline *pipelinesvc.Service
	drainJob *drain.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}
	if err := pgrepo.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Delivery.Timeout)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		logger.Warn("s3 init failed, media archiving disabled", zap.Error(err))
	} else {
		s3Client = c
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ruleCache := redrepo.NewRuleCacheRepo(redisClient, 0)

	tagRepo := pgrepo.NewTagRepo(pool)
	logRepo := pgrepo.NewLogRepo(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)
	reactionQueueRepo := pgrepo.NewReactionQueueRepo(pool)
	mediaHashRepo := pgrepo.NewMediaHashRepo(pool)

	registryService := regsvc.NewService(tagRepo, ruleCache, logger)
	activityService := activitysvc.NewService(logRepo)
	moderationService := modsvc.NewService(moderationRepo)
	dedupService := dedupsvc.NewService(mediaHashRepo)
	notifier := webhooksvc.NewNotifier(cfg.Webhook, httpclient.New(cfg.Webhook.Timeout), logger)
	archiveService := archivesvc.NewService(s3Client, bot, cfg.S3.Bucket, logger)

	deliveryService := deliverysvc.NewService(
		bot,
		reactionQueueRepo,
		moderationService,
		notifier,
		activityService,
		cfg.Delivery,
		logger,
	)

	pipelineService := pipelinesvc.NewService(
		registryService,
		moderationService,
		dedupService,
		deliveryService,
		archiveService,
		bot,
		bot,
		logger,
	)

	drainJob := drain.NewJob(deliveryService, cfg.Delivery.DrainInterval, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		redis:    redisClient,
		s3:       s3Client,
		bot:      bot,
		pipeline: pipelineService,
		drainJob: drainJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.drainJob.Run(ctx)
	}()
	go func() {
		errCh <- a.bot.Listen(ctx, a.pipeline.HandleMessage)
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
