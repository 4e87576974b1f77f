package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slipstream/netcollections/internal/api"
	"github.com/slipstream/netcollections/internal/config"
	"github.com/slipstream/netcollections/internal/scheduler"
	"github.com/slipstream/netcollections/internal/scheduler/tasks"
	"github.com/slipstream/netcollections/internal/startup"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log.Logger
	log.Info().
		Str("version", config.Version).
		Str("networks", a.cfg.Collections.Networks).
		Str("cron", a.cfg.Collections.Cron).
		Msg("Starting netcollections")

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if err := tasks.RegisterNetworkCollectionsTask(sched, a.task, a.cfg.Collections.Cron, false); err != nil {
		return err
	}
	if err := tasks.RegisterHistoryCleanupTask(sched, a.history, a.progress); err != nil {
		return err
	}

	server := api.NewServer(a.cfg, api.Deps{
		DB:        a.db,
		Scheduler: sched,
		History:   a.history,
		Progress:  a.progress,
		Metadata:  a.metadata,
		Catalog:   a.catalog,
		Health:    a.health,
		Notifier:  a.notifier,
		Logs:      a.log,
	}, log)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(a.cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := sched.Start(); err != nil {
		return err
	}

	if a.cfg.Collections.RunOnStart {
		go func() {
			gate := startup.NewCatalogGate(a.catalog, a.health, log)
			if _, err := gate.Wait(ctx); err != nil {
				log.Warn().Err(err).Msg("Running startup sync without a reachable catalog")
			}
			if err := sched.RunNow(tasks.NetworkCollectionsTaskID); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Failed to start startup sync")
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
		sched.Stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}

	log.Info().Msg("Stopped")
	return nil
}
