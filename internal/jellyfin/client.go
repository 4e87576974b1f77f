// Package jellyfin implements the local catalog on top of the Jellyfin REST API.
package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
)

var (
	ErrNotConfigured = errors.New("jellyfin url or api key is not configured")
	ErrUnauthorized  = errors.New("jellyfin rejected the api key")
	ErrNotFound      = errors.New("jellyfin resource not found")
	ErrAPIError      = errors.New("jellyfin API error")
)

const (
	defaultPageSize = 500
	addBatchSize    = 100
)

// HTTPDoer describes the HTTP client used by the Jellyfin catalog.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Jellyfin catalog client.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	apiKey     string
	userID     string
	pageSize   int
	logger     zerolog.Logger
}

var _ collections.Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize overrides the number of items requested per /Items page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a Jellyfin client from configuration.
func NewClient(cfg config.JellyfinConfig, logger zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	c := &Client{
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		userID:     strings.TrimSpace(cfg.UserID),
		pageSize:   defaultPageSize,
		logger:     logger.With().Str("component", "jellyfin").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured returns true if the server URL and API key are set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Test verifies connectivity and credentials.
func (c *Client) Test(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.do(ctx, http.MethodGet, "/System/Info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// QueryShows returns every non-virtual series that has a Tmdb provider id.
func (c *Client) QueryShows(ctx context.Context) ([]collections.LocalShow, error) {
	params := url.Values{}
	params.Set("IncludeItemTypes", itemTypeSeries)
	params.Set("Recursive", "true")
	params.Set("HasTmdbId", "true")
	params.Set("IsVirtualItem", "false")
	params.Set("Fields", "ProviderIds")

	items, err := c.queryItems(ctx, params)
	if err != nil {
		return nil, err
	}

	shows := make([]collections.LocalShow, 0, len(items))
	for _, item := range items {
		shows = append(shows, collections.LocalShow{
			ID:          item.ID,
			Name:        item.Name,
			ProviderIDs: item.ProviderIDs,
		})
	}

	c.logger.Debug().Int("shows", len(shows)).Msg("Queried series")
	return shows, nil
}

// QueryCollections returns every collection (box set) in the library.
func (c *Client) QueryCollections(ctx context.Context) ([]collections.Collection, error) {
	params := url.Values{}
	params.Set("IncludeItemTypes", itemTypeBoxSet)
	params.Set("Recursive", "true")
	params.Set("CollapseBoxSetItems", "false")

	items, err := c.queryItems(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]collections.Collection, 0, len(items))
	for _, item := range items {
		out = append(out, collections.Collection{ID: item.ID, Name: item.Name})
	}
	return out, nil
}

// CreateCollection creates an empty, unlocked collection.
func (c *Client) CreateCollection(ctx context.Context, name string) (*collections.Collection, error) {
	params := url.Values{}
	params.Set("Name", name)
	params.Set("IsLocked", "false")

	var created CollectionCreationResult
	if err := c.do(ctx, http.MethodPost, "/Collections", params, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: create collection %q returned no id", ErrAPIError, name)
	}

	return &collections.Collection{ID: created.ID, Name: name}, nil
}

// CollectionMembers returns the ids of the items directly in the collection.
func (c *Client) CollectionMembers(ctx context.Context, collectionID string) ([]string, error) {
	params := url.Values{}
	params.Set("ParentId", collectionID)

	items, err := c.queryItems(ctx, params)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// AddMembers adds items to a collection in batches.
func (c *Client) AddMembers(ctx context.Context, collectionID string, showIDs []string) error {
	path := fmt.Sprintf("/Collections/%s/Items", url.PathEscape(collectionID))

	for start := 0; start < len(showIDs); start += addBatchSize {
		end := start + addBatchSize
		if end > len(showIDs) {
			end = len(showIDs)
		}

		params := url.Values{}
		params.Set("Ids", strings.Join(showIDs[start:end], ","))
		if err := c.do(ctx, http.MethodPost, path, params, nil); err != nil {
			return err
		}
	}
	return nil
}

// queryItems pages through /Items until every record has been read.
func (c *Client) queryItems(ctx context.Context, params url.Values) ([]BaseItem, error) {
	if c.userID != "" {
		params.Set("userId", c.userID)
	}
	params.Set("Limit", strconv.Itoa(c.pageSize))

	var items []BaseItem
	for start := 0; ; {
		params.Set("StartIndex", strconv.Itoa(start))

		var page ItemsResponse
		if err := c.do(ctx, http.MethodGet, "/Items", params, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		start += len(page.Items)
		if len(page.Items) == 0 || start >= page.TotalRecordCount {
			break
		}
	}
	return items, nil
}

// do performs an authenticated request and decodes a JSON body into result
// when result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, result interface{}) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("jellyfin request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("body", strings.TrimSpace(string(body))).
			Msg("Jellyfin API error")

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		default:
			return fmt.Errorf("%w: %s %s returned %d", ErrAPIError, method, path, resp.StatusCode)
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode jellyfin response: %w", err)
	}
	return nil
}
