package collections

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultMaxPages bounds discovery for a single network.
const DefaultMaxPages = 500

// ShowIndex aggregates a network's paginated discovery results into a set.
type ShowIndex struct {
	directory NetworkDirectory
	maxPages  int
	logger    zerolog.Logger
}

// NewShowIndex creates a show index. maxPages <= 0 uses DefaultMaxPages.
func NewShowIndex(directory NetworkDirectory, maxPages int, logger zerolog.Logger) *ShowIndex {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &ShowIndex{
		directory: directory,
		maxPages:  maxPages,
		logger:    logger.With().Str("component", "show-index").Logger(),
	}
}

// Build fetches every discovery page for the network, starting at page 1, and
// stops once the page just fetched is the last one reported by the directory.
// Every error is wrapped in ErrRemoteLookupFailed.
func (x *ShowIndex) Build(ctx context.Context, id NetworkID) (ShowSet, error) {
	shows := make(ShowSet)
	page := 1
	lastPage := 0

	for fetched := 0; ; fetched++ {
		if fetched >= x.maxPages {
			return nil, fmt.Errorf("%w: network %d: %w after %d pages", ErrRemoteLookupFailed, id, ErrPageLimit, fetched)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: network %d: %w", ErrRemoteLookupFailed, id, err)
		}

		result, err := x.directory.DiscoverShowsByNetwork(ctx, id, page)
		if err != nil {
			return nil, fmt.Errorf("%w: network %d page %d: %w", ErrRemoteLookupFailed, id, page, err)
		}
		if result == nil {
			return nil, fmt.Errorf("%w: network %d page %d: empty response", ErrRemoteLookupFailed, id, page)
		}
		if result.Page <= lastPage {
			return nil, fmt.Errorf("%w: network %d: %w (requested page %d, got %d)", ErrRemoteLookupFailed, id, ErrNoProgress, page, result.Page)
		}

		for _, show := range result.Items {
			shows[show] = struct{}{}
		}

		x.logger.Debug().
			Int("network", int(id)).
			Int("page", result.Page).
			Int("totalPages", result.TotalPages).
			Int("items", len(result.Items)).
			Msg("Fetched discovery page")

		if result.Page >= result.TotalPages {
			break
		}
		lastPage = result.Page
		page = result.Page + 1
	}

	return shows, nil
}
