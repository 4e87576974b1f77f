package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/config"
)

func newTestReport(failed bool) *collections.Report {
	report := &collections.Report{
		RunID:      "run-1",
		Config:     "49,7",
		StartedAt:  time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 5, 1, 1, 2, 0, 0, time.UTC),
		Results: []collections.Result{
			{NetworkID: 49, NetworkName: "HBO", Status: collections.StatusSuccess, CollectionID: "bs1", Matched: 3, Added: 2},
		},
	}
	if failed {
		report.Results = append(report.Results, collections.Result{
			NetworkID: 7, Status: collections.StatusFailed, Kind: collections.FailureRemoteLookup, Error: "not found",
		})
	}
	return report
}

func captureServer(t *testing.T, received *[]Payload) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		*received = append(*received, p)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebhook_OnSyncComplete(t *testing.T) {
	var received []Payload
	server := captureServer(t, &received)

	w := NewWebhook(config.NotificationsConfig{WebhookURL: server.URL}, zerolog.Nop())
	if err := w.OnSyncComplete(context.Background(), newTestReport(true)); err != nil {
		t.Fatalf("OnSyncComplete() error = %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("received %d payloads, want 1", len(received))
	}
	p := received[0]
	if p.EventType != EventSyncCompleted {
		t.Errorf("EventType = %q", p.EventType)
	}
	if p.Run == nil || p.Run.Succeeded != 1 || p.Run.Failed != 1 || p.Run.Added != 2 {
		t.Fatalf("Run = %+v", p.Run)
	}
	if len(p.Run.Networks) != 2 || p.Run.Networks[1].Kind != "remote_lookup_failed" {
		t.Errorf("Networks = %+v", p.Run.Networks)
	}
	if p.Message != "1 synced, 1 failed, 2 shows added" {
		t.Errorf("Message = %q", p.Message)
	}
}

func TestWebhook_OnFailureOnly(t *testing.T) {
	var received []Payload
	server := captureServer(t, &received)

	w := NewWebhook(config.NotificationsConfig{WebhookURL: server.URL, OnFailureOnly: true}, zerolog.Nop())
	ctx := context.Background()

	if err := w.OnSyncComplete(ctx, newTestReport(false)); err != nil {
		t.Fatalf("OnSyncComplete() error = %v", err)
	}
	if len(received) != 0 {
		t.Fatalf("successful run should not notify, got %d payloads", len(received))
	}

	if err := w.OnSyncComplete(ctx, newTestReport(true)); err != nil {
		t.Fatalf("OnSyncComplete() error = %v", err)
	}
	if len(received) != 1 {
		t.Errorf("failed run should notify, got %d payloads", len(received))
	}
}

func TestWebhook_AuthAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Method = %s, want PUT", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("BasicAuth = %q %q %v", user, pass, ok)
		}
		if r.Header.Get("X-Custom") != "value" {
			t.Errorf("X-Custom = %q", r.Header.Get("X-Custom"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	w := NewWebhook(config.NotificationsConfig{
		WebhookURL: server.URL,
		Method:     "put",
		Username:   "admin",
		Password:   "secret",
		Headers:    map[string]string{"X-Custom": "value"},
	}, zerolog.Nop())

	if err := w.Test(context.Background()); err != nil {
		t.Fatalf("Test() error = %v", err)
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	w := NewWebhook(config.NotificationsConfig{WebhookURL: server.URL}, zerolog.Nop())
	if err := w.OnSyncComplete(context.Background(), newTestReport(false)); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestWebhook_NotConfigured(t *testing.T) {
	w := NewWebhook(config.NotificationsConfig{}, zerolog.Nop())

	if w.IsConfigured() {
		t.Error("IsConfigured() = true, want false")
	}
	if err := w.OnSyncComplete(context.Background(), newTestReport(true)); err != nil {
		t.Errorf("OnSyncComplete() error = %v, want nil", err)
	}
	if err := w.Test(context.Background()); err != ErrNotConfigured {
		t.Errorf("Test() error = %v, want ErrNotConfigured", err)
	}
}
