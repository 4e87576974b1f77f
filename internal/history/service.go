package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/netcollections/internal/collections"
)

var ErrRunNotFound = errors.New("run not found")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service stores sync run reports.
type Service struct {
	db            *sql.DB
	retentionDays int
	logger        zerolog.Logger
	now           func() time.Time
}

var _ collections.CollectionHistory = (*Service)(nil)

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
		now:    time.Now,
	}
}

// SetRetentionDays sets how long runs are kept by CleanupOldEntries. Zero or
// less keeps runs forever.
func (s *Service) SetRetentionDays(days int) {
	s.retentionDays = days
}

// Save persists a run report and its per-network results.
func (s *Service) Save(ctx context.Context, report *collections.Report) error {
	diags, err := marshalDiagnostics(report.Diagnostics)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_runs (id, config, started_at, finished_at, cancelled, succeeded, failed, added, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Config, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Cancelled, report.Succeeded(), report.Failed(), report.Added(), diags)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	for i := range report.Results {
		r := &report.Results[i]
		resultDiags, err := marshalDiagnostics(r.Diagnostics)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sync_results (run_id, position, network_id, network_name, status, failure_kind, error,
				collection_id, collection_created, remote_shows, matched, added, diagnostics)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, int(r.NetworkID), r.NetworkName, string(r.Status), string(r.Kind), r.Error,
			r.CollectionID, r.CollectionCreated, r.RemoteShows, r.Matched, r.Added, resultDiags)
		if err != nil {
			return fmt.Errorf("insert result for network %d: %w", r.NetworkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", report.RunID, err)
	}

	s.logger.Debug().Str("runId", report.RunID).Int("results", len(report.Results)).Msg("Saved run report")
	return nil
}

// List returns run summaries, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = defaultPageSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}

	var totalCount int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_runs`).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config, started_at, finished_at, cancelled, succeeded, failed, added
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		opts.PageSize, (opts.Page-1)*opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	items := make([]*RunSummary, 0, opts.PageSize)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	totalPages := int(totalCount) / opts.PageSize
	if int(totalCount)%opts.PageSize > 0 {
		totalPages++
	}

	return &ListResponse{
		Items:      items,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// Get returns a stored run with its results in processing order.
func (s *Service) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, config, started_at, finished_at, cancelled, succeeded, failed, added, diagnostics
		FROM sync_runs WHERE id = ?`, runID)

	var run Run
	var diags string
	err := row.Scan(&run.ID, &run.Config, &run.StartedAt, &run.FinishedAt, &run.Cancelled,
		&run.Succeeded, &run.Failed, &run.Added, &diags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if run.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
		return nil, err
	}

	results, err := s.results(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Results = results
	return &run, nil
}

// LastCollectionFor returns the collection id the most recent successful sync
// of the network used, or "" if there is none.
func (s *Service) LastCollectionFor(ctx context.Context, id collections.NetworkID) (string, error) {
	var collectionID string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.collection_id
		FROM sync_results r
		JOIN sync_runs runs ON runs.id = r.run_id
		WHERE r.network_id = ? AND r.status = ? AND r.collection_id != ''
		ORDER BY runs.started_at DESC
		LIMIT 1`, int(id), string(collections.StatusSuccess)).Scan(&collectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last collection for network %d: %w", id, err)
	}
	return collectionID, nil
}

// DeleteOlderThan removes runs that started before cutoff and returns how
// many were removed.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sync_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

// DeleteAll removes every stored run.
func (s *Service) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_runs`); err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}
	return nil
}

// CleanupOldEntries deletes runs older than the retention period and returns
// how many were removed.
func (s *Service) CleanupOldEntries(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		s.logger.Debug().Msg("History retention disabled, skipping cleanup")
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("deleted", deleted).
		Int("retentionDays", s.retentionDays).
		Msg("Cleaned up old runs")
	return deleted, nil
}

func (s *Service) results(ctx context.Context, runID string) ([]collections.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT network_id, network_name, status, failure_kind, error, collection_id,
			collection_created, remote_shows, matched, added, diagnostics
		FROM sync_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results for run %s: %w", runID, err)
	}
	defer rows.Close()

	results := make([]collections.Result, 0)
	for rows.Next() {
		var r collections.Result
		var networkID int
		var status, kind, diags string
		if err := rows.Scan(&networkID, &r.NetworkName, &status, &kind, &r.Error, &r.CollectionID,
			&r.CollectionCreated, &r.RemoteShows, &r.Matched, &r.Added, &diags); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.NetworkID = collections.NetworkID(networkID)
		r.Status = collections.Status(status)
		r.Kind = collections.FailureKind(kind)
		if r.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanSummary(rows *sql.Rows) (*RunSummary, error) {
	var s RunSummary
	if err := rows.Scan(&s.ID, &s.Config, &s.StartedAt, &s.FinishedAt, &s.Cancelled,
		&s.Succeeded, &s.Failed, &s.Added); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &s, nil
}

func marshalDiagnostics(diags []collections.Diagnostic) (string, error) {
	if len(diags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(diags)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return string(data), nil
}

func unmarshalDiagnostics(raw string) ([]collections.Diagnostic, error) {
	if raw == "" {
		return nil, nil
	}
	var diags []collections.Diagnostic
	if err := json.Unmarshal([]byte(raw), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	if len(diags) == 0 {
		return nil, nil
	}
	return diags, nil
}
