package collections

import (
	"context"
	"errors"
)

var (
	ErrRemoteLookupFailed = errors.New("remote lookup failed")
	ErrCatalogReadFailed  = errors.New("catalog read failed")
	ErrCatalogWriteFailed = errors.New("catalog write failed")
	ErrCreateFailed       = errors.New("create collection failed")
	ErrAddFailed          = errors.New("add collection members failed")
	ErrNoProgress         = errors.New("discovery made no forward progress")
	ErrPageLimit          = errors.New("discovery page limit reached")
)

// NetworkDirectory is the remote directory of networks and their shows.
type NetworkDirectory interface {
	LookupNetwork(ctx context.Context, id NetworkID) (*Network, error)
	DiscoverShowsByNetwork(ctx context.Context, id NetworkID, page int) (*DiscoverPage, error)
}

// Catalog is the local media catalog.
type Catalog interface {
	// QueryShows returns non-virtual series that carry a Tmdb provider id.
	QueryShows(ctx context.Context) ([]LocalShow, error)
	QueryCollections(ctx context.Context) ([]Collection, error)
	CreateCollection(ctx context.Context, name string) (*Collection, error)
	CollectionMembers(ctx context.Context, collectionID string) ([]string, error)
	AddMembers(ctx context.Context, collectionID string, showIDs []string) error
}

// ProgressSink receives run progress as a percentage in [0, 100].
type ProgressSink interface {
	Report(percent float64)
}

// CollectionHistory returns the collection id used for a network in an earlier run.
type CollectionHistory interface {
	LastCollectionFor(ctx context.Context, id NetworkID) (string, error)
}

type nopProgress struct{}

func (nopProgress) Report(float64) {}

// NopProgress discards progress reports.
var NopProgress ProgressSink = nopProgress{}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(percent float64)

func (f ProgressFunc) Report(percent float64) { f(percent) }
