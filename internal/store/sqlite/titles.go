package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/store"
)

// titleColumns is the ordered list of columns selected in title queries.
// Must match the scan order in titleRow.dest.
const titleColumns = `id, external_id, media_kind, name, slug, description, release_date,
	poster_path, poster_blur_placeholder, runtime_minutes, public_rating, genre_ids,
	external_secondary_id, created_at, updated_at`

// joinedTitleColumns is titleColumns qualified with the "t" alias for joins.
const joinedTitleColumns = `t.id, t.external_id, t.media_kind, t.name, t.slug, t.description,
	t.release_date, t.poster_path, t.poster_blur_placeholder, t.runtime_minutes, t.public_rating,
	t.genre_ids, t.external_secondary_id, t.created_at, t.updated_at`

// titleRow holds the raw column values of one title row.
type titleRow struct {
	t           domain.Title
	mediaKind   string
	description sql.NullString
	releaseDate sql.NullString
	posterPath  sql.NullString
	placeholder sql.NullString
	runtime     sql.NullInt64
	rating      sql.NullFloat64
	genreIDs    string
	secondaryID sql.NullString
	createdAt   string
	updatedAt   string
}

func (r *titleRow) dest() []any {
	return []any{
		&r.t.ID,
		&r.t.ExternalID,
		&r.mediaKind,
		&r.t.Name,
		&r.t.Slug,
		&r.description,
		&r.releaseDate,
		&r.posterPath,
		&r.placeholder,
		&r.runtime,
		&r.rating,
		&r.genreIDs,
		&r.secondaryID,
		&r.createdAt,
		&r.updatedAt,
	}
}

func (r *titleRow) title() (*domain.Title, error) {
	t := r.t
	t.MediaKind = domain.MediaKind(r.mediaKind)
	t.Description = r.description.String
	t.PosterPath = r.posterPath.String
	t.PosterBlurPlaceholder = r.placeholder.String
	t.RuntimeMinutes = int(r.runtime.Int64)
	t.PublicRating = r.rating.Float64
	if r.secondaryID.Valid {
		v := r.secondaryID.String
		t.ExternalSecondaryID = &v
	}

	var err error
	if t.ReleaseDate, err = parseNullableDate(r.releaseDate); err != nil {
		return nil, fmt.Errorf("parse release_date: %w", err)
	}
	if err := json.Unmarshal([]byte(r.genreIDs), &t.GenreIDs); err != nil {
		return nil, fmt.Errorf("parse genre_ids: %w", err)
	}
	t.GenreIDs = domain.NormalizeGenreIDs(t.GenreIDs)

	if t.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTitle scans a sql.Row (or sql.Rows via its Scan method) into a domain.Title.
func scanTitle(scanner interface{ Scan(dest ...any) error }) (*domain.Title, error) {
	var row titleRow
	if err := scanner.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.title()
}

func encodeGenreIDs(ids []int) (string, error) {
	data, err := json.Marshal(domain.NormalizeGenreIDs(ids))
	if err != nil {
		return "", fmt.Errorf("encode genre_ids: %w", err)
	}
	return string(data), nil
}

// GetTitle retrieves a title by local ID.
// Returns store.ErrNotFound if the title does not exist.
func (s *Store) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+titleColumns+` FROM titles WHERE id = ?`, id)

	t, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("title not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTitleByKey retrieves a title by its catalog identity.
// Returns store.ErrNotFound if the title does not exist.
func (s *Store) GetTitleByKey(ctx context.Context, key domain.TitleKey) (*domain.Title, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+titleColumns+` FROM titles WHERE external_id = ? AND media_kind = ?`,
		key.ExternalID, string(key.MediaKind))

	t, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("title not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// InsertTitleOrGet inserts t unless a title with the same catalog identity exists.
// It returns the stored row and whether this call created it. Concurrent callers
// for the same key all receive the single row that won the insert.
func (s *Store) InsertTitleOrGet(ctx context.Context, t *domain.Title) (*domain.Title, bool, error) {
	genreIDs, err := encodeGenreIDs(t.GenreIDs)
	if err != nil {
		return nil, false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO titles (
			id, external_id, media_kind, name, slug, description, release_date,
			poster_path, poster_blur_placeholder, runtime_minutes, public_rating, genre_ids,
			external_secondary_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id, media_kind) DO NOTHING`,
		t.ID,
		t.ExternalID,
		string(t.MediaKind),
		t.Name,
		t.Slug,
		nullString(t.Description),
		nullDate(t.ReleaseDate),
		nullString(t.PosterPath),
		nullString(t.PosterBlurPlaceholder),
		nullInt64(int64(t.RuntimeMinutes)),
		nullFloat64(t.PublicRating),
		genreIDs,
		nullableString(t.ExternalSecondaryID),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert title: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert title: %w", err)
	}
	if affected == 1 {
		return t, true, nil
	}

	existing, err := s.GetTitleByKey(ctx, t.Key())
	if err != nil {
		return nil, false, fmt.Errorf("fetch conflicting title: %w", err)
	}

	s.logger.Debug("title insert lost race, using existing row",
		"key", t.Key().String(),
		"title_id", existing.ID,
	)
	return existing, false, nil
}

// UpdateTitleAttributes rewrites the catalog-sourced columns of a title and its updated_at.
// Identity columns are never touched.
func (s *Store) UpdateTitleAttributes(ctx context.Context, t *domain.Title) error {
	genreIDs, err := encodeGenreIDs(t.GenreIDs)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE titles SET
			name = ?, slug = ?, description = ?, release_date = ?, poster_path = ?,
			poster_blur_placeholder = ?, runtime_minutes = ?, public_rating = ?, genre_ids = ?,
			external_secondary_id = ?, updated_at = ?
		WHERE id = ?`,
		t.Name,
		t.Slug,
		nullString(t.Description),
		nullDate(t.ReleaseDate),
		nullString(t.PosterPath),
		nullString(t.PosterBlurPlaceholder),
		nullInt64(int64(t.RuntimeMinutes)),
		nullFloat64(t.PublicRating),
		genreIDs,
		nullableString(t.ExternalSecondaryID),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound.WithMessage("title not found")
	}
	return nil
}
