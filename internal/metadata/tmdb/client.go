package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/slipstream/netcollections/internal/config"
)

var (
	ErrAPIKeyMissing   = errors.New("TMDB API key is not configured")
	ErrNetworkNotFound = errors.New("network not found")
	ErrAPIError        = errors.New("TMDB API error")
	ErrRateLimited     = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client. The API key is taken from cfg only.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/configuration", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}

	return c.doRequest(ctx, endpoint, params, &result)
}

// GetNetwork gets a TV network by TMDB network ID.
func (c *Client) GetNetwork(ctx context.Context, id int) (*NormalizedNetwork, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/network/%d", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)

	var details NetworkDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	result := &NormalizedNetwork{
		ID:            details.ID,
		Name:          details.Name,
		OriginCountry: details.OriginCountry,
	}
	if details.LogoPath != nil {
		result.LogoPath = *details.LogoPath
	}

	c.logger.Debug().
		Int("id", id).
		Str("name", result.Name).
		Msg("Got network details")

	return result, nil
}

// DiscoverTVByNetwork returns one page of TV series aired by the network.
// Pages are 1-based.
func (c *Client) DiscoverTVByNetwork(ctx context.Context, networkID, page int) (*NormalizedDiscoverPage, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/discover/tv", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("with_networks", strconv.Itoa(networkID))
	params.Set("page", strconv.Itoa(page))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")

	var response DiscoverTVResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	ids := make([]int, len(response.Results))
	for i, tv := range response.Results {
		ids[i] = tv.ID
	}

	c.logger.Debug().
		Int("networkID", networkID).
		Int("page", response.Page).
		Int("totalPages", response.TotalPages).
		Int("results", len(ids)).
		Msg("Discover TV page fetched")

	return &NormalizedDiscoverPage{
		SeriesIDs:    ids,
		Page:         response.Page,
		TotalPages:   response.TotalPages,
		TotalResults: response.TotalResults,
	}, nil
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNetworkNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
