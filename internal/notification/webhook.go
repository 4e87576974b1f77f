// Package notification posts run outcomes to a user-configured webhook.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
)

const instanceName = "netcollections"

// Event types sent in Payload.EventType.
const (
	EventTest          = "test"
	EventSyncCompleted = "syncCompleted"
)

var ErrNotConfigured = errors.New("webhook url is not configured")

// Webhook sends notifications to a custom webhook endpoint.
type Webhook struct {
	cfg        config.NotificationsConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewWebhook creates a webhook notifier. A zero timeout defaults to 10 seconds.
func NewWebhook(cfg config.NotificationsConfig, logger zerolog.Logger) *Webhook {
	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &Webhook{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		logger:     logger.With().Str("component", "notification").Str("notifier", "webhook").Logger(),
	}
}

// IsConfigured returns true if a webhook URL is set.
func (w *Webhook) IsConfigured() bool {
	return strings.TrimSpace(w.cfg.WebhookURL) != ""
}

// Test sends a test payload.
func (w *Webhook) Test(ctx context.Context) error {
	return w.send(ctx, Payload{
		EventType:    EventTest,
		InstanceName: instanceName,
		Message:      "Test notification from netcollections",
		Timestamp:    time.Now().UTC(),
	})
}

// OnSyncComplete sends a run report. With OnFailureOnly set, runs where
// every network succeeded are skipped.
func (w *Webhook) OnSyncComplete(ctx context.Context, report *collections.Report) error {
	if !w.IsConfigured() || report == nil {
		return nil
	}
	if w.cfg.OnFailureOnly && report.Failed() == 0 && !report.Cancelled {
		return nil
	}

	payload := Payload{
		EventType:    EventSyncCompleted,
		InstanceName: instanceName,
		Message: fmt.Sprintf("%d synced, %d failed, %d shows added",
			report.Succeeded(), report.Failed(), report.Added()),
		Timestamp: report.FinishedAt,
		Run:       mapRun(report),
	}

	if err := w.send(ctx, payload); err != nil {
		w.logger.Warn().Err(err).Str("runId", report.RunID).Msg("Failed to send run notification")
		return err
	}
	w.logger.Debug().Str("runId", report.RunID).Msg("Sent run notification")
	return nil
}

func (w *Webhook) send(ctx context.Context, payload Payload) error {
	if !w.IsConfigured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.cfg.Method, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if w.cfg.Username != "" && w.cfg.Password != "" {
		req.SetBasicAuth(w.cfg.Username, w.cfg.Password)
	}
	for key, value := range w.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func mapRun(report *collections.Report) *PayloadRun {
	run := &PayloadRun{
		ID:         report.RunID,
		Config:     report.Config,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Cancelled:  report.Cancelled,
		Succeeded:  report.Succeeded(),
		Failed:     report.Failed(),
		Added:      report.Added(),
		Networks:   make([]PayloadNetwork, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		run.Networks = append(run.Networks, PayloadNetwork{
			ID:           int(r.NetworkID),
			Name:         r.NetworkName,
			Status:       string(r.Status),
			Kind:         string(r.Kind),
			Error:        r.Error,
			CollectionID: r.CollectionID,
			Matched:      r.Matched,
			Added:        r.Added,
		})
	}
	return run
}

type Payload struct {
	EventType    string      `json:"eventType"`
	InstanceName string      `json:"instanceName"`
	Message      string      `json:"message,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Run          *PayloadRun `json:"run,omitempty"`
}

type PayloadRun struct {
	ID         string           `json:"id"`
	Config     string           `json:"config"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Cancelled  bool             `json:"cancelled"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Added      int              `json:"added"`
	Networks   []PayloadNetwork `json:"networks"`
}

type PayloadNetwork struct {
	ID           int    `json:"id"`
	Name         string `json:"name,omitempty"`
	Status       string `json:"status"`
	Kind         string `json:"kind,omitempty"`
	Error        string `json:"error,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
	Matched      int    `json:"matched"`
	Added        int    `json:"added"`
}
