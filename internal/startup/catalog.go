// Package startup holds the gate that delays the startup sync until the
// Jellyfin catalog answers.
package startup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/jellyfin"
)

// Catalog is the connection check of the media catalog.
type Catalog interface {
	Test(ctx context.Context) (*jellyfin.SystemInfo, error)
}

// DefaultWaitSchedule gives a booting media server a little under five minutes.
var DefaultWaitSchedule = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	40 * time.Second,
	80 * time.Second,
	2 * time.Minute,
}

// CatalogGate waits for the catalog and keeps its health item current while
// doing so.
type CatalogGate struct {
	catalog  Catalog
	health   *health.Service
	schedule []time.Duration
	logger   zerolog.Logger
}

// NewCatalogGate creates a gate using DefaultWaitSchedule. hs may be nil.
func NewCatalogGate(catalog Catalog, hs *health.Service, logger zerolog.Logger) *CatalogGate {
	return &CatalogGate{
		catalog:  catalog,
		health:   hs,
		schedule: DefaultWaitSchedule,
		logger:   logger.With().Str("component", "startup").Logger(),
	}
}

// SetSchedule sets the pauses between checks. The gate checks once more than
// there are pauses.
func (g *CatalogGate) SetSchedule(schedule []time.Duration) {
	g.schedule = schedule
}

// Wait checks the catalog until it answers, rejects the configuration, the
// schedule runs out, or ctx is done. The jellyfin health item is a warning
// while the server is still coming up and an error once the gate gives up.
func (g *CatalogGate) Wait(ctx context.Context) (*jellyfin.SystemInfo, error) {
	attempts := len(g.schedule) + 1

	for attempt := 1; ; attempt++ {
		info, err := g.catalog.Test(ctx)
		if err == nil {
			g.setStatus(nil)
			g.logger.Info().
				Str("server", info.ServerName).
				Str("version", info.Version).
				Int("attempt", attempt).
				Msg("Jellyfin is reachable")
			return info, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if misconfigured(err) {
			g.setStatus(err)
			g.logger.Error().Err(err).Msg("Jellyfin rejected the configuration")
			return nil, err
		}
		if attempt == attempts {
			g.setStatus(err)
			g.logger.Error().Err(err).Int("attempts", attempts).Msg("Jellyfin still unreachable")
			return nil, err
		}

		pause := g.schedule[attempt-1]
		if g.health != nil {
			g.health.SetWarning(health.CategoryServices, health.ServiceJellyfin,
				fmt.Sprintf("waiting for server (attempt %d of %d): %v", attempt, attempts, err))
		}
		g.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("maxAttempts", attempts).
			Dur("nextCheckIn", pause).
			Msg("Jellyfin unreachable, waiting")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pause):
		}
	}
}

func (g *CatalogGate) setStatus(err error) {
	if g.health != nil {
		g.health.RecordCheck(health.ServiceJellyfin, err)
	}
}

// misconfigured reports errors that waiting cannot fix.
func misconfigured(err error) bool {
	return errors.Is(err, jellyfin.ErrNotConfigured) ||
		errors.Is(err, jellyfin.ErrUnauthorized) ||
		errors.Is(err, jellyfin.ErrNotFound)
}
