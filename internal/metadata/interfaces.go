package metadata

import (
	"context"

	"github.com/slipstream/netcollections/internal/metadata/tmdb"
)

// TMDBClient defines the TMDB API operations the network directory needs.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	GetNetwork(ctx context.Context, id int) (*tmdb.NormalizedNetwork, error)
	DiscoverTVByNetwork(ctx context.Context, networkID, page int) (*tmdb.NormalizedDiscoverPage, error)
}
