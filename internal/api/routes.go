package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slipstream/netcollections/internal/api/handlers"
	apimw "github.com/slipstream/netcollections/internal/api/middleware"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/history"
	"github.com/slipstream/netcollections/internal/progress"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")
	if s.cfg.Server.APIKey != "" {
		api.Use(apimw.APIKey(s.cfg.Server.APIKey))
	}

	api.GET("/status", s.getStatus)
	api.GET("/networks/:id", s.getNetwork)
	api.DELETE("/networks/cache", s.clearNetworkCache)

	system := api.Group("/system")
	system.POST("/test/tmdb", s.testTMDB)
	system.POST("/test/jellyfin", s.testJellyfin)
	system.POST("/test/webhook", s.testWebhook)

	if s.deps.Scheduler != nil {
		sched := handlers.NewSchedulerHandler(s.deps.Scheduler)
		tasks := api.Group("/scheduler/tasks")
		tasks.GET("", sched.ListTasks)
		tasks.GET("/:id", sched.GetTask)
		tasks.POST("/:id/run", sched.RunTask)
		tasks.POST("/:id/cancel", sched.CancelTask)
	}

	if s.deps.History != nil {
		history.NewHandlers(s.deps.History).RegisterRoutes(api.Group("/runs"))
	}

	if s.deps.Progress != nil {
		progress.NewHandlers(s.deps.Progress).RegisterRoutes(api.Group("/progress"))
	}

	if s.deps.Health != nil {
		health.NewHandlers(s.deps.Health).RegisterRoutes(api.Group("/health"))
	}

	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs).RegisterRoutes(api.Group("/logs"))
	}
}
