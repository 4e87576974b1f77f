package tmdb

// DiscoverTVResponse is one page of a TMDB /discover/tv query.
type DiscoverTVResponse struct {
	Page         int        `json:"page"`
	Results      []TVResult `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

// TVResult is a TV series entry in a discover result page. Only the
// identifier is decoded.
type TVResult struct {
	ID int `json:"id"`
}

// NetworkDetails is the TMDB /network/{id} payload.
type NetworkDetails struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Headquarters  string  `json:"headquarters"`
	Homepage      string  `json:"homepage"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// ErrorResponse is an error from the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// NormalizedNetwork is the normalized network returned by the client.
type NormalizedNetwork struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	OriginCountry string `json:"originCountry,omitempty"`
	LogoPath      string `json:"logoPath,omitempty"`
}

// NormalizedDiscoverPage is one normalized discover page.
type NormalizedDiscoverPage struct {
	SeriesIDs    []int `json:"seriesIds"`
	Page         int   `json:"page"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int   `json:"totalResults"`
}
