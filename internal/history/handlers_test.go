package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/netcollections/internal/testutil"
)

func newTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, tdb.Logger)

	e := echo.New()
	NewHandlers(service).RegisterRoutes(e.Group("/api/v1/runs"))
	return e, service
}

func TestHandlers_ListAndGet(t *testing.T) {
	e, service := newTestServer(t)
	if err := service.Save(context.Background(), sampleReport("run-1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?page=1&pageSize=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}

	var list ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.TotalCount != 1 || list.Items[0].ID != "run-1" {
		t.Errorf("list = %+v", list)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	var run Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(run.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(run.Results))
	}
}

func TestHandlers_GetNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlers_Clear(t *testing.T) {
	e, service := newTestServer(t)
	ctx := context.Background()
	if err := service.Save(ctx, sampleReport("run-1", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/runs", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	list, err := service.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", list.TotalCount)
	}
}
