package collections

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type pageCall struct {
	network NetworkID
	page    int
}

// fakeDirectory serves canned networks and discovery pages.
type fakeDirectory struct {
	mu        sync.Mutex
	names     map[NetworkID]string
	pages     map[NetworkID][]DiscoverPage
	lookupErr map[NetworkID]error
	pageErr   map[NetworkID]error
	lookups   []NetworkID
	calls     []pageCall
	onLookup  func(NetworkID)
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		names:     make(map[NetworkID]string),
		pages:     make(map[NetworkID][]DiscoverPage),
		lookupErr: make(map[NetworkID]error),
		pageErr:   make(map[NetworkID]error),
	}
}

// addNetwork registers a network whose pages hold the given items.
func (d *fakeDirectory) addNetwork(id NetworkID, name string, pages ...[]RemoteShowID) {
	d.names[id] = name
	for i, items := range pages {
		d.pages[id] = append(d.pages[id], DiscoverPage{Items: items, Page: i + 1, TotalPages: len(pages)})
	}
}

func (d *fakeDirectory) LookupNetwork(_ context.Context, id NetworkID) (*Network, error) {
	d.mu.Lock()
	d.lookups = append(d.lookups, id)
	hook := d.onLookup
	d.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if err := d.lookupErr[id]; err != nil {
		return nil, err
	}
	name, ok := d.names[id]
	if !ok {
		return nil, errors.New("network not found")
	}
	return &Network{ID: id, Name: name}, nil
}

func (d *fakeDirectory) DiscoverShowsByNetwork(_ context.Context, id NetworkID, page int) (*DiscoverPage, error) {
	d.mu.Lock()
	d.calls = append(d.calls, pageCall{network: id, page: page})
	d.mu.Unlock()

	if err := d.pageErr[id]; err != nil {
		return nil, err
	}
	pages := d.pages[id]
	if page < 1 || page > len(pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	p := pages[page-1]
	return &p, nil
}

func (d *fakeDirectory) pagesRequested(id NetworkID) []int {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []int
	for _, c := range d.calls {
		if c.network == id {
			out = append(out, c.page)
		}
	}
	return out
}

// fakeCatalog is an in-memory catalog.
type fakeCatalog struct {
	mu          sync.Mutex
	shows       []LocalShow
	collections []Collection
	members     map[string][]string
	nextID      int
	queryErr    error
	listErr     error
	createErr   error
	addErr      error
	addCalls    int
}

func newFakeCatalog(shows ...LocalShow) *fakeCatalog {
	return &fakeCatalog{
		shows:   shows,
		members: make(map[string][]string),
	}
}

func (c *fakeCatalog) QueryShows(context.Context) ([]LocalShow, error) {
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return append([]LocalShow(nil), c.shows...), nil
}

func (c *fakeCatalog) QueryCollections(context.Context) ([]Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]Collection(nil), c.collections...), nil
}

func (c *fakeCatalog) CreateCollection(_ context.Context, name string) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.nextID++
	col := Collection{ID: fmt.Sprintf("boxset-%d", c.nextID), Name: name}
	c.collections = append(c.collections, col)
	return &col, nil
}

func (c *fakeCatalog) CollectionMembers(_ context.Context, id string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.members[id]...), nil
}

func (c *fakeCatalog) AddMembers(_ context.Context, id string, showIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addCalls++
	if c.addErr != nil {
		return c.addErr
	}
	for _, showID := range showIDs {
		found := false
		for _, m := range c.members[id] {
			if m == showID {
				found = true
				break
			}
		}
		if !found {
			c.members[id] = append(c.members[id], showID)
		}
	}
	return nil
}

func (c *fakeCatalog) collectionNamed(name string) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.collections {
		if c.collections[i].Name == name {
			col := c.collections[i]
			return &col
		}
	}
	return nil
}

func show(id, name, tmdb string) LocalShow {
	providers := map[string]string{}
	if tmdb != "" {
		providers[ProviderTmdb] = tmdb
	}
	return LocalShow{ID: id, Name: name, ProviderIDs: providers}
}
