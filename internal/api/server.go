//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/config"
	"github.com/slipstream/netcollections/internal/database"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/history"
	"github.com/slipstream/netcollections/internal/jellyfin"
	"github.com/slipstream/netcollections/internal/metadata"
	"github.com/slipstream/netcollections/internal/notification"
	"github.com/slipstream/netcollections/internal/progress"
	"github.com/slipstream/netcollections/internal/scheduler"
)

// Deps are the services the API serves. Health, Notifier and Logs may be nil.
type Deps struct {
	DB        *database.DB
	Scheduler *scheduler.Scheduler
	History   *history.Service
	Progress  *progress.Manager
	Metadata  *metadata.Service
	Catalog   *jellyfin.Client
	Health    *health.Service
	Notifier  *notification.Webhook
	Logs      LogsProvider
}

// Server handles HTTP requests for the netcollections API.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	deps      Deps
	logger    zerolog.Logger
	startedAt time.Time
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		deps:      deps,
		logger:    logger.With().Str("component", "api").Logger(),
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
