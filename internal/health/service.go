package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service manages the health state of all tracked items.
// All state is in-memory and resets on application restart.
type Service struct {
	items  map[HealthCategory]map[string]*HealthItem
	mu     sync.RWMutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		now:    time.Now,
		logger: logger.With().Str("component", "health").Logger(),
	}

	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}

	return s
}

// RegisterItem adds an item with OK status. An already registered item keeps
// its status and only has its name updated.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, exists := s.items[category][id]; exists {
		item.Name = name
		return
	}

	s.items[category][id] = &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}

	s.logger.Debug().
		Str("category", string(category)).
		Str("id", id).
		Str("name", name).
		Msg("Registered health item")
}

// UnregisterItem removes an item from health tracking.
func (s *Service) UnregisterItem(category HealthCategory, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[category], id)
}

// SetError sets an item to Error status with a message.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning sets an item to Warning status with a message.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus resets an item to OK status.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[category][id]
	if !exists {
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message

	if status != StatusOK {
		now := s.now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	event := s.logger.Info()
	if status == StatusError {
		event = s.logger.Warn()
	}
	event.
		Str("category", string(category)).
		Str("id", id).
		Str("name", item.Name).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &HealthResponse{
		Services: s.itemsToSlice(CategoryServices),
		Networks: s.itemsToSlice(CategoryNetworks),
	}
}

// GetByCategory returns all items in a specific category.
func (s *Service) GetByCategory(category HealthCategory) []HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.itemsToSlice(category)
}

// GetItem returns a single item by category and ID.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		copy := *item
		return &copy
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}

	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}

		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}

		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}

	return summary
}

// IsHealthy returns true if the specified item is OK.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		return item.Status == StatusOK
	}
	return false
}

// itemsToSlice returns the items of a category ordered by id.
func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}
