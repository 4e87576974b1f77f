package main

import (
	"context"
	"fmt"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
	"github.com/slipstream/netcollections/internal/database"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/history"
	"github.com/slipstream/netcollections/internal/jellyfin"
	"github.com/slipstream/netcollections/internal/logger"
	"github.com/slipstream/netcollections/internal/metadata"
	"github.com/slipstream/netcollections/internal/notification"
	"github.com/slipstream/netcollections/internal/progress"
	"github.com/slipstream/netcollections/internal/scheduler/tasks"
)

// app holds the services shared by the serve and sync commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	metadata *metadata.Service
	catalog  *jellyfin.Client
	history  *history.Service
	progress *progress.Manager
	health   *health.Service
	notifier *notification.Webhook
	task     *tasks.NetworkCollectionsTask
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Close()
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		log.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		metadata: metadata.NewService(cfg.TMDB, log.Logger),
		catalog:  jellyfin.NewClient(cfg.Jellyfin, log.Logger),
		history:  history.NewService(db.Conn(), log.Logger),
		progress: progress.NewManager(log.Logger),
		health:   health.NewService(log.Logger),
		notifier: notification.NewWebhook(cfg.Notifications, log.Logger),
	}
	a.history.SetRetentionDays(cfg.History.RetentionDays)
	a.health.RegisterItem(health.CategoryServices, health.ServiceTMDB, "TMDB")
	a.health.RegisterItem(health.CategoryServices, health.ServiceJellyfin, "Jellyfin")

	if !a.metadata.IsTMDBConfigured() {
		log.Warn().Msg("TMDB API key is not configured, every network will fail remote lookup")
		a.health.SetError(health.CategoryServices, health.ServiceTMDB, "API key is not configured")
	}
	if !a.catalog.IsConfigured() {
		log.Warn().Msg("Jellyfin URL or API key is not configured, every network will fail catalog reads")
		a.health.SetError(health.CategoryServices, health.ServiceJellyfin, "URL or API key is not configured")
	}

	syncer := collections.NewSyncer(a.metadata, a.catalog, collections.Options{MaxPages: cfg.Collections.MaxPages}, log.Logger)
	syncer.SetCollectionHistory(a.history)
	a.task = tasks.NewNetworkCollectionsTask(syncer, a.history, a.progress, cfg.Collections.Networks, log.Logger)
	a.task.SetHealthService(a.health)
	if a.notifier.IsConfigured() {
		a.task.SetNotifier(a.notifier)
	}

	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close database")
	}
	a.log.Close()
}
