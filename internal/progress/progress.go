// Package progress tracks long-running activities such as sync runs so their
// state can be polled over the API.
package progress

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
)

// ActivityType identifies the type of activity being tracked.
type ActivityType string

const (
	ActivityTypeNetworkSync    ActivityType = "network-sync"
	ActivityTypeHistoryCleanup ActivityType = "history-cleanup"
)

// Status represents the current state of an activity.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

const defaultFinishedTTL = 10 * time.Minute

// Activity represents a trackable activity with progress.
type Activity struct {
	ID          string         `json:"id"`
	Type        ActivityType   `json:"type"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	Progress    int            `json:"progress"` // 0-100
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
	Metadata    map[string]any `json:"metadata"`
}

func (a *Activity) clone() *Activity {
	c := *a
	c.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// Manager tracks activities in memory. Finished activities stay visible for
// a while and are then pruned.
type Manager struct {
	activities  map[string]*Activity
	finishedTTL time.Duration
	now         func() time.Time
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewManager creates a new progress manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		activities:  make(map[string]*Activity),
		finishedTTL: defaultFinishedTTL,
		now:         time.Now,
		logger:      logger.With().Str("component", "progress").Logger(),
	}
}

// StartActivity creates and starts tracking a new activity.
func (m *Manager) StartActivity(id string, activityType ActivityType, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activities[id] = &Activity{
		ID:        id,
		Type:      activityType,
		Title:     title,
		Subtitle:  "Starting...",
		Status:    StatusInProgress,
		StartedAt: m.now(),
		Metadata:  make(map[string]any),
	}

	m.logger.Debug().
		Str("id", id).
		Str("type", string(activityType)).
		Str("title", title).
		Msg("Activity started")
}

// UpdateActivity updates an in-progress activity.
func (m *Manager) UpdateActivity(id, subtitle string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, ok := m.activities[id]
	if !ok || activity.Status != StatusInProgress {
		return
	}
	activity.Subtitle = subtitle
	activity.Progress = clampPercent(progress)
}

// SetMetadata sets an activity metadata value.
func (m *Manager) SetMetadata(id, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if activity, ok := m.activities[id]; ok {
		activity.Metadata[key] = value
	}
}

// CompleteActivity marks an activity as completed.
func (m *Manager) CompleteActivity(id, subtitle string) {
	m.finish(id, StatusCompleted, subtitle)
}

// FailActivity marks an activity as failed.
func (m *Manager) FailActivity(id, errorMsg string) {
	m.finish(id, StatusFailed, errorMsg)
}

// CancelActivity marks an activity as cancelled.
func (m *Manager) CancelActivity(id string) {
	m.finish(id, StatusCancelled, "Cancelled")
}

func (m *Manager) finish(id string, status Status, subtitle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, ok := m.activities[id]
	if !ok || activity.Status != StatusInProgress {
		return
	}

	now := m.now()
	activity.Status = status
	activity.Subtitle = subtitle
	activity.CompletedAt = &now
	if status == StatusCompleted {
		activity.Progress = 100
	}
	if status == StatusFailed {
		activity.Metadata["error"] = subtitle
	}

	m.logger.Debug().
		Str("id", id).
		Str("title", activity.Title).
		Str("status", string(status)).
		Msg("Activity finished")
}

// GetActivity returns a snapshot of an activity, or nil.
func (m *Manager) GetActivity(id string) *Activity {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	if activity, ok := m.activities[id]; ok {
		return activity.clone()
	}
	return nil
}

// GetAllActivities returns snapshots of all tracked activities, newest first.
func (m *Manager) GetAllActivities() []*Activity {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	result := make([]*Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		result = append(result, activity.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })
	return result
}

func (m *Manager) pruneLocked() {
	cutoff := m.now().Add(-m.finishedTTL)
	for id, activity := range m.activities {
		if activity.CompletedAt != nil && activity.CompletedAt.Before(cutoff) {
			delete(m.activities, id)
		}
	}
}

// Sink returns a collections.ProgressSink that updates the activity.
func (m *Manager) Sink(id string) collections.ProgressSink {
	return collections.ProgressFunc(func(percent float64) {
		p := int(math.Round(percent))
		m.UpdateActivity(id, fmt.Sprintf("%d%% of networks processed", clampPercent(p)), p)
	})
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
