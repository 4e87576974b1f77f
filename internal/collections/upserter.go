package collections

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// UpsertResult describes the effect of an upsert.
type UpsertResult struct {
	CollectionID string
	Created      bool
	Added        int
	// Shared is set when more than one collection carries the name.
	Shared bool
}

// Upserter finds or creates a named collection and merges shows into it.
//
// Membership is additive: shows that left a network since an earlier run stay
// in the collection.
type Upserter struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewUpserter creates an upserter over the catalog.
func NewUpserter(catalog Catalog, logger zerolog.Logger) *Upserter {
	return &Upserter{
		catalog: catalog,
		logger:  logger.With().Str("component", "upserter").Logger(),
	}
}

// Upsert reuses the first collection named exactly name, or creates it, then
// adds the shows not already in it.
func (u *Upserter) Upsert(ctx context.Context, name string, showIDs []string) (*UpsertResult, error) {
	existing, err := u.catalog.QueryCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %w", ErrCatalogReadFailed, err)
	}

	result := &UpsertResult{}
	var collection *Collection
	for i := range existing {
		if existing[i].Name != name {
			continue
		}
		if collection == nil {
			collection = &existing[i]
			continue
		}
		result.Shared = true
	}

	if result.Shared {
		u.logger.Warn().
			Str("name", name).
			Str("collectionId", collection.ID).
			Msg("Multiple collections share this name, using the first")
	}

	if collection == nil {
		collection, err = u.catalog.CreateCollection(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %q: %w", ErrCatalogWriteFailed, ErrCreateFailed, name, err)
		}
		result.Created = true
		u.logger.Info().Str("name", name).Str("collectionId", collection.ID).Msg("Created collection")
	}
	result.CollectionID = collection.ID

	missing := newMembers(nil, showIDs)
	if !result.Created {
		members, err := u.catalog.CollectionMembers(ctx, collection.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: members of %q: %w", ErrCatalogReadFailed, name, err)
		}
		missing = newMembers(members, showIDs)
	}

	if len(missing) == 0 {
		u.logger.Debug().Str("name", name).Msg("Collection already up to date")
		return result, nil
	}

	if err := u.catalog.AddMembers(ctx, collection.ID, missing); err != nil {
		return nil, fmt.Errorf("%w: %w: %q: %w", ErrCatalogWriteFailed, ErrAddFailed, name, err)
	}
	result.Added = len(missing)

	u.logger.Info().
		Str("name", name).
		Str("collectionId", collection.ID).
		Int("added", result.Added).
		Msg("Added shows to collection")

	return result, nil
}

// newMembers returns the ids in candidates that are not in members, keeping
// candidate order and dropping duplicates.
func newMembers(members, candidates []string) []string {
	present := make(map[string]struct{}, len(members)+len(candidates))
	for _, id := range members {
		present[id] = struct{}{}
	}

	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
