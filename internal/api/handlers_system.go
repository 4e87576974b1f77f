package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/metadata"
)

const healthTimeout = 2 * time.Second

func (s *Server) healthCheck(c echo.Context) error {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	networks, invalid := collections.ParseNetworkIDs(s.cfg.Collections.Networks)

	invalidTokens := make([]string, 0, len(invalid))
	for _, d := range invalid {
		invalidTokens = append(invalidTokens, d.Token)
	}

	cached := 0
	if s.deps.Metadata != nil {
		cached = s.deps.Metadata.CachedNetworks()
	}

	response := map[string]interface{}{
		"version":            config.Version,
		"startTime":          s.startedAt.Format(time.RFC3339),
		"networks":           networks,
		"invalidNetworks":    invalidTokens,
		"cron":               s.cfg.Collections.Cron,
		"tmdbConfigured":     s.deps.Metadata != nil && s.deps.Metadata.IsTMDBConfigured(),
		"jellyfinConfigured": s.deps.Catalog != nil && s.deps.Catalog.IsConfigured(),
		"cachedNetworks":     cached,
	}
	return c.JSON(http.StatusOK, response)
}

// getNetwork resolves a network id to its name so ids can be checked before
// they are added to the configuration.
func (s *Server) getNetwork(c echo.Context) error {
	if s.deps.Metadata == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metadata service unavailable")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid network id")
	}

	network, err := s.deps.Metadata.LookupNetwork(c.Request().Context(), collections.NetworkID(id))
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "network not found")
	case errors.Is(err, metadata.ErrNoProvidersConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, network)
}

func (s *Server) clearNetworkCache(c echo.Context) error {
	if s.deps.Metadata == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metadata service unavailable")
	}
	s.deps.Metadata.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) testTMDB(c echo.Context) error {
	if s.deps.Metadata == nil || !s.deps.Metadata.IsTMDBConfigured() {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": "TMDB API key is not configured"})
	}
	err := s.deps.Metadata.TestTMDB(c.Request().Context())
	s.recordCheck(health.ServiceTMDB, err)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "Connection successful"})
}

func (s *Server) testJellyfin(c echo.Context) error {
	if s.deps.Catalog == nil || !s.deps.Catalog.IsConfigured() {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": "Jellyfin is not configured"})
	}
	info, err := s.deps.Catalog.Test(c.Request().Context())
	s.recordCheck(health.ServiceJellyfin, err)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Connection successful",
		"server":  info.ServerName,
		"version": info.Version,
	})
}

func (s *Server) testWebhook(c echo.Context) error {
	if s.deps.Notifier == nil || !s.deps.Notifier.IsConfigured() {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": "Webhook URL is not configured"})
	}
	if err := s.deps.Notifier.Test(c.Request().Context()); err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"success": false, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "Notification sent"})
}

func (s *Server) recordCheck(id string, err error) {
	if s.deps.Health != nil {
		s.deps.Health.RecordCheck(id, err)
	}
}
