package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
	"github.com/slipstream/netcollections/internal/metadata/tmdb"
	"github.com/slipstream/netcollections/internal/metrics"
)

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrNotFound              = errors.New("metadata not found")
)

// Service is the remote network directory backed by TMDB.
type Service struct {
	tmdb   TMDBClient
	cache  *Cache
	logger zerolog.Logger
}

var _ collections.NetworkDirectory = (*Service)(nil)

// NewService creates a new metadata service with a real TMDB client.
func NewService(cfg config.TMDBConfig, logger zerolog.Logger) *Service {
	return NewServiceWithClient(tmdb.NewClient(cfg, logger), logger)
}

// NewServiceWithClient creates a new metadata service with a custom client (for testing).
func NewServiceWithClient(client TMDBClient, logger zerolog.Logger) *Service {
	return &Service{
		tmdb:   client,
		cache:  NewCache(DefaultCacheConfig()),
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// IsTMDBConfigured returns true if TMDB has an API key.
func (s *Service) IsTMDBConfigured() bool {
	return s.tmdb.IsConfigured()
}

// TestTMDB verifies TMDB connectivity.
func (s *Service) TestTMDB(ctx context.Context) error {
	return s.tmdb.Test(ctx)
}

// ClearCache drops all cached network metadata so the next lookup goes
// to TMDB, e.g. after a network is renamed upstream.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info().Msg("Network cache cleared")
}

// CachedNetworks returns how many networks are currently cached.
func (s *Service) CachedNetworks() int {
	return s.cache.Len()
}

// LookupNetwork returns the network's metadata, served from cache when fresh.
func (s *Service) LookupNetwork(ctx context.Context, id collections.NetworkID) (*collections.Network, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	if network, ok := s.cache.GetNetwork(id); ok {
		metrics.NetworkCacheHitsTotal.Inc()
		s.logger.Debug().Int("network", int(id)).Msg("Network cache hit")
		return network, nil
	}
	metrics.NetworkCacheMissesTotal.Inc()

	result, err := s.tmdb.GetNetwork(ctx, int(id))
	if err != nil {
		if errors.Is(err, tmdb.ErrNetworkNotFound) {
			return nil, fmt.Errorf("%w: network %d", ErrNotFound, id)
		}
		return nil, err
	}

	network := collections.Network{ID: id, Name: result.Name}
	s.cache.SetNetwork(network)
	return &network, nil
}

// DiscoverShowsByNetwork returns one page of the network's shows. Pages are
// never cached so each run sees the directory's current state.
func (s *Service) DiscoverShowsByNetwork(ctx context.Context, id collections.NetworkID, page int) (*collections.DiscoverPage, error) {
	if !s.tmdb.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	result, err := s.tmdb.DiscoverTVByNetwork(ctx, int(id), page)
	if err != nil {
		return nil, err
	}

	items := make([]collections.RemoteShowID, len(result.SeriesIDs))
	for i, seriesID := range result.SeriesIDs {
		items[i] = collections.RemoteShowID(seriesID)
	}

	return &collections.DiscoverPage{
		Items:      items,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}, nil
}
