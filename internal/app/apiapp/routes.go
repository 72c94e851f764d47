package apiapp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/config"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	archivesvc "github.com/ivankudzin/tagbot/internal/services/archive"
	broadcastsvc "github.com/ivankudzin/tagbot/internal/services/broadcast"
	modsvc "github.com/ivankudzin/tagbot/internal/services/moderation"
	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
	"github.com/ivankudzin/tagbot/internal/transport/http/handlers"
)

type Dependencies struct {
	RegistryService   *regsvc.Service
	ModerationService *modsvc.Service
	ActivityService   *activitysvc.Service
	BroadcastService  *broadcastsvc.Service
	ArchiveService    *archivesvc.Service
	Deliverer         handlers.ApprovedDeliverer
	Reactor           handlers.Reactor
	LogRepo           *pgrepo.LogRepo
	TagRepo           *pgrepo.TagRepo
	ModerationRepo    *pgrepo.ModerationRepo
	ReactionQueueRepo *pgrepo.ReactionQueueRepo
	MediaHashRepo     *pgrepo.MediaHashRepo
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	tagHandler := handlers.NewTagHandler(deps.RegistryService)
	logHandler := handlers.NewLogHandler(deps.ActivityService, deps.LogRepo, deps.ReactionQueueRepo, deps.ModerationRepo)
	statsHandler := handlers.NewStatsHandler(
		deps.ActivityService,
		deps.TagRepo,
		deps.ModerationRepo,
		deps.ReactionQueueRepo,
		deps.MediaHashRepo,
	)
	moderationHandler := handlers.NewModerationHandler(
		deps.ModerationService,
		deps.Deliverer,
		deps.ActivityService,
		deps.Logger,
	)
	reactionHandler := handlers.NewReactionHandler(deps.Reactor, deps.ReactionQueueRepo)
	broadcastHandler := handlers.NewBroadcastHandler(deps.BroadcastService)
	mediaHandler := handlers.NewMediaHandler(deps.ArchiveService)
	authMW := AuthMiddleware(deps.Config.Admin.Token, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)
			r.Get("/{id}", tagHandler.Get)
			r.Put("/{id}", tagHandler.Update)
			r.Delete("/{id}", tagHandler.Delete)
		})

		r.Get("/logs", logHandler.List)
		r.Delete("/logs", logHandler.Clear)
		r.Get("/stats", statsHandler.Get)

		r.Route("/moderation", func(r chi.Router) {
			r.Get("/", moderationHandler.ListPending)
			r.Get("/{id}", moderationHandler.Get)
			r.Post("/{id}/approve", moderationHandler.Approve)
			r.Post("/{id}/reject", moderationHandler.Reject)
			r.Get("/{id}/media/{fileID}", mediaHandler.View)
		})

		r.Post("/reactions", reactionHandler.Set)
		r.Delete("/reactions", reactionHandler.Remove)
		r.Get("/reactions/queue", reactionHandler.Queue)
		r.Delete("/reactions/queue", reactionHandler.ClearQueue)

		r.Get("/broadcast/preview", broadcastHandler.Preview)
		r.Post("/broadcast", broadcastHandler.Send)
	})
}
