package jellyfin

// BaseItem is the subset of Jellyfin's BaseItemDto the catalog uses.
type BaseItem struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ProviderIDs map[string]string `json:"ProviderIds,omitempty"`
}

// ItemsResponse is a page of a Jellyfin /Items query.
type ItemsResponse struct {
	Items            []BaseItem `json:"Items"`
	TotalRecordCount int        `json:"TotalRecordCount"`
	StartIndex       int        `json:"StartIndex"`
}

// CollectionCreationResult is returned by POST /Collections.
type CollectionCreationResult struct {
	ID string `json:"Id"`
}

// SystemInfo is the subset of /System/Info used for connectivity tests.
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
	ID         string `json:"Id"`
}

const (
	itemTypeSeries = "Series"
	itemTypeBoxSet = "BoxSet"
)
