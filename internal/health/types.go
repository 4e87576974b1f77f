package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an item.
type HealthStatus string

const (
	StatusOK      HealthStatus = "ok"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
)

// HealthCategory represents the category of health items.
type HealthCategory string

const (
	// CategoryServices holds the upstream services: the remote directory and the local catalog.
	CategoryServices HealthCategory = "services"
	// CategoryNetworks holds the outcome of each network's most recent sync.
	CategoryNetworks HealthCategory = "networks"
)

// Service item ids.
const (
	ServiceTMDB     = "tmdb"
	ServiceJellyfin = "jellyfin"
)

// AllCategories returns all health categories in display order.
func AllCategories() []HealthCategory {
	return []HealthCategory{CategoryServices, CategoryNetworks}
}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c HealthCategory) bool {
	for _, cat := range AllCategories() {
		if cat == c {
			return true
		}
	}
	return false
}

// HealthItem represents a single health-tracked item.
type HealthItem struct {
	ID        string         `json:"id"`
	Category  HealthCategory `json:"category"`
	Name      string         `json:"name"`
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// MarshalJSON omits the timestamp and message for OK items.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// CategorySummary provides counts for a health category.
type CategorySummary struct {
	Category HealthCategory `json:"category"`
	OK       int            `json:"ok"`
	Warning  int            `json:"warning"`
	Error    int            `json:"error"`
}

// Total returns the total number of items in the category.
func (c CategorySummary) Total() int {
	return c.OK + c.Warning + c.Error
}

// HasIssues returns true if there are any warning or error items.
func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// HealthResponse contains all health items grouped by category.
type HealthResponse struct {
	Services []HealthItem `json:"services"`
	Networks []HealthItem `json:"networks"`
}

// HealthSummary provides an overview of system health.
type HealthSummary struct {
	Categories []CategorySummary `json:"categories"`
	HasIssues  bool              `json:"hasIssues"`
}
