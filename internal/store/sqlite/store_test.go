package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// makeTestTitle creates a domain.Title with sensible defaults for testing.
func makeTestTitle(externalID int64, kind domain.MediaKind, name string) *domain.Title {
	now := time.Now()
	t := &domain.Title{
		ID:         id.MustGenerate(id.PrefixTitle),
		ExternalID: externalID,
		MediaKind:  kind,
	}
	t.InitTimestamps(now)
	t.Apply(domain.TitleAttributes{
		Name:     name,
		Slug:     "test-" + name,
		GenreIDs: []int{18},
	})
	return t
}

// mustInsertTitle inserts a title and fails the test if it was not created.
func mustInsertTitle(t *testing.T, s *Store, title *domain.Title) *domain.Title {
	t.Helper()
	got, created, err := s.InsertTitleOrGet(context.Background(), title)
	if err != nil {
		t.Fatalf("insert title: %v", err)
	}
	if !created {
		t.Fatalf("expected title %s to be created", title.Key())
	}
	return got
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"titles", "seasons", "hive_entries"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (migrations already applied).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
