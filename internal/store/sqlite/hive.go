package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/store"
)

// hiveColumns is qualified with the table alias so it can be joined with titles.
const hiveColumns = `h.id, h.user_id, h.title_id, h.status, h.current_season, h.current_episode,
	h.current_runtime_minutes, h.started_at, h.finished_at, h.rating, h.is_favorite,
	h.created_at, h.updated_at, t.media_kind`

const hiveFrom = ` FROM hive_entries h JOIN titles t ON t.id = h.title_id`

// hiveRow holds the raw column values of one row selected with hiveColumns.
type hiveRow struct {
	e          domain.HiveEntry
	status     string
	season     sql.NullInt64
	episode    sql.NullInt64
	runtime    sql.NullInt64
	startedAt  sql.NullString
	finishedAt sql.NullString
	rating     int
	favorite   int
	createdAt  string
	updatedAt  string
	mediaKind  string
}

func (r *hiveRow) dest() []any {
	return []any{
		&r.e.ID,
		&r.e.UserID,
		&r.e.TitleID,
		&r.status,
		&r.season,
		&r.episode,
		&r.runtime,
		&r.startedAt,
		&r.finishedAt,
		&r.rating,
		&r.favorite,
		&r.createdAt,
		&r.updatedAt,
		&r.mediaKind,
	}
}

// entry builds the hive entry. The title's media kind decides which
// position fields survive into the progress variant.
func (r *hiveRow) entry() (*domain.HiveEntry, error) {
	e := r.e
	fields := domain.ProgressFields{
		Status:                domain.WatchStatus(r.status),
		CurrentSeason:         int(r.season.Int64),
		CurrentEpisode:        int(r.episode.Int64),
		CurrentRuntimeMinutes: int(r.runtime.Int64),
		Rating:                r.rating,
	}

	var err error
	if fields.StartedAt, err = parseNullableTime(r.startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if fields.FinishedAt, err = parseNullableTime(r.finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}

	if e.Progress, err = domain.BuildProgress(fields, domain.MediaKind(r.mediaKind)); err != nil {
		return nil, fmt.Errorf("hive entry %s: %w", e.ID, err)
	}
	e.IsFavorite = r.favorite != 0

	if e.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// scanHiveEntry scans a row selected with hiveColumns.
func scanHiveEntry(scanner interface{ Scan(dest ...any) error }) (*domain.HiveEntry, error) {
	var row hiveRow
	if err := scanner.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.entry()
}

// scanHiveItem scans a row selected with hiveColumns followed by joinedTitleColumns.
func scanHiveItem(scanner interface{ Scan(dest ...any) error }) (domain.HiveItem, error) {
	var (
		entryRow hiveRow
		titleRow titleRow
	)
	if err := scanner.Scan(append(entryRow.dest(), titleRow.dest()...)...); err != nil {
		return domain.HiveItem{}, err
	}

	entry, err := entryRow.entry()
	if err != nil {
		return domain.HiveItem{}, err
	}
	title, err := titleRow.title()
	if err != nil {
		return domain.HiveItem{}, err
	}
	return domain.HiveItem{Entry: entry, Title: title}, nil
}

// InsertHiveEntry stores a new hive entry.
// Returns store.ErrAlreadyExists if the user already tracks the title.
func (s *Store) InsertHiveEntry(ctx context.Context, e *domain.HiveEntry) error {
	if e.Progress == nil {
		return store.ErrInvalidInput.WithMessage("hive entry has no progress")
	}
	f := domain.Flatten(e.Progress)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hive_entries (
			id, user_id, title_id, status, current_season, current_episode,
			current_runtime_minutes, started_at, finished_at, rating, is_favorite,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.UserID,
		e.TitleID,
		string(f.Status),
		nullInt64(int64(f.CurrentSeason)),
		nullInt64(int64(f.CurrentEpisode)),
		nullInt64(int64(f.CurrentRuntimeMinutes)),
		nullTimeString(f.StartedAt),
		nullTimeString(f.FinishedAt),
		f.Rating,
		boolToInt(e.IsFavorite),
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert hive entry: %w", err)
	}
	return nil
}

// GetHiveEntry returns the user's entry for a title.
// Returns store.ErrNotFound if the user does not track it.
func (s *Store) GetHiveEntry(ctx context.Context, userID, titleID string) (*domain.HiveEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+hiveColumns+hiveFrom+` WHERE h.user_id = ? AND h.title_id = ?`,
		userID, titleID)

	e, err := scanHiveEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("hive entry not found")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// HiveEntryExists reports whether the user already tracks the title.
func (s *Store) HiveEntryExists(ctx context.Context, userID, titleID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM hive_entries WHERE user_id = ? AND title_id = ?)`,
		userID, titleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hive entry: %w", err)
	}
	return exists, nil
}

// ListHiveItems returns every entry of a user with its title, most recently
// updated first.
func (s *Store) ListHiveItems(ctx context.Context, userID string) ([]domain.HiveItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+hiveColumns+`, `+joinedTitleColumns+hiveFrom+
			` WHERE h.user_id = ? ORDER BY h.updated_at DESC, h.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list hive entries: %w", err)
	}
	defer rows.Close()

	var items []domain.HiveItem
	for rows.Next() {
		item, err := scanHiveItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hive entry: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteHiveEntry removes the user's entry for a title. The title itself stays.
// Returns store.ErrNotFound if there was nothing to remove.
func (s *Store) DeleteHiveEntry(ctx context.Context, userID, titleID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hive_entries WHERE user_id = ? AND title_id = ?`, userID, titleID)
	if err != nil {
		return fmt.Errorf("delete hive entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete hive entry: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound.WithMessage("hive entry not found")
	}
	return nil
}
