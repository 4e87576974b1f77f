package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNew_MigrateAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 {
		t.Errorf("Version() = %d, want 1", version)
	}

	var count int
	if err := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_runs").Scan(&count); err != nil {
		t.Fatalf("query sync_runs: %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if _, err := db.Conn().ExecContext(ctx, "SELECT 1 FROM sync_runs"); err == nil {
		t.Error("sync_runs should be dropped after rollback")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i, err)
		}
	}
}
