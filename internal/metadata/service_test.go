package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/metadata/tmdb"
)

type stubTMDB struct {
	configured    bool
	networks      map[int]string
	pages         map[int]*tmdb.NormalizedDiscoverPage
	networkCalls  int
	discoverCalls int
}

func (s *stubTMDB) Name() string                   { return "tmdb-stub" }
func (s *stubTMDB) IsConfigured() bool             { return s.configured }
func (s *stubTMDB) Test(ctx context.Context) error { return nil }

func (s *stubTMDB) GetNetwork(_ context.Context, id int) (*tmdb.NormalizedNetwork, error) {
	s.networkCalls++
	name, ok := s.networks[id]
	if !ok {
		return nil, tmdb.ErrNetworkNotFound
	}
	return &tmdb.NormalizedNetwork{ID: id, Name: name}, nil
}

func (s *stubTMDB) DiscoverTVByNetwork(_ context.Context, networkID, page int) (*tmdb.NormalizedDiscoverPage, error) {
	s.discoverCalls++
	p, ok := s.pages[page]
	if !ok {
		return nil, tmdb.ErrAPIError
	}
	return p, nil
}

func TestService_LookupNetwork_Caches(t *testing.T) {
	stub := &stubTMDB{configured: true, networks: map[int]string{49: "HBO"}}
	svc := NewServiceWithClient(stub, zerolog.Nop())

	for i := 0; i < 3; i++ {
		network, err := svc.LookupNetwork(context.Background(), 49)
		require.NoError(t, err)
		assert.Equal(t, "HBO", network.Name)
		assert.Equal(t, collections.NetworkID(49), network.ID)
	}
	assert.Equal(t, 1, stub.networkCalls)

	svc.ClearCache()
	_, err := svc.LookupNetwork(context.Background(), 49)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.networkCalls)
}

func TestService_LookupNetwork_NotFound(t *testing.T) {
	svc := NewServiceWithClient(&stubTMDB{configured: true}, zerolog.Nop())

	_, err := svc.LookupNetwork(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewServiceWithClient(&stubTMDB{}, zerolog.Nop())

	_, err := svc.LookupNetwork(context.Background(), 49)
	assert.True(t, errors.Is(err, ErrNoProvidersConfigured))

	_, err = svc.DiscoverShowsByNetwork(context.Background(), 49, 1)
	assert.True(t, errors.Is(err, ErrNoProvidersConfigured))
}

func TestService_DiscoverShowsByNetwork(t *testing.T) {
	stub := &stubTMDB{
		configured: true,
		pages: map[int]*tmdb.NormalizedDiscoverPage{
			1: {SeriesIDs: []int{1399, 1396}, Page: 1, TotalPages: 2},
		},
	}
	svc := NewServiceWithClient(stub, zerolog.Nop())

	page, err := svc.DiscoverShowsByNetwork(context.Background(), 49, 1)
	require.NoError(t, err)
	assert.Equal(t, []collections.RemoteShowID{1399, 1396}, page.Items)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.DiscoverShowsByNetwork(context.Background(), 49, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.discoverCalls, "discover pages must not be cached")
}
