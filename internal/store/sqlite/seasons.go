package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hiveapp/hive-server/internal/domain"
)

const seasonColumns = `id, title_id, season_number, episode_count, air_date, created_at, updated_at`

func scanSeason(scanner interface{ Scan(dest ...any) error }) (*domain.Season, error) {
	var (
		s         domain.Season
		airDate   sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&s.ID, &s.TitleID, &s.SeasonNumber, &s.EpisodeCount, &airDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if s.AirDate, err = parseNullableDate(airDate); err != nil {
		return nil, fmt.Errorf("parse air_date: %w", err)
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSeasons returns the seasons of a title ordered by season number.
func (s *Store) ListSeasons(ctx context.Context, titleID string) ([]domain.Season, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE title_id = ? ORDER BY season_number`, titleID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []domain.Season
	for rows.Next() {
		season, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, *season)
	}
	return seasons, rows.Err()
}

// ApplySeasonChanges writes a reconciliation plan for one title in a single transaction:
// one multi-row INSERT for new seasons and one UPDATE for changed ones.
// Inserts that collide with a concurrently created season are skipped; the
// returned slice holds only the inserts that were written.
func (s *Store) ApplySeasonChanges(ctx context.Context, titleID string, inserts, updates []domain.Season) ([]domain.Season, error) {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var written []domain.Season
	if len(inserts) > 0 {
		values := make([]string, 0, len(inserts))
		args := make([]any, 0, len(inserts)*7)
		for _, season := range inserts {
			values = append(values, "("+placeholders(7)+")")
			args = append(args,
				season.ID,
				titleID,
				season.SeasonNumber,
				season.EpisodeCount,
				nullDate(season.AirDate),
				formatTime(season.CreatedAt),
				formatTime(season.UpdatedAt),
			)
		}

		query := `INSERT INTO seasons (` + seasonColumns + `) VALUES ` +
			strings.Join(values, ", ") +
			` ON CONFLICT (title_id, season_number) DO NOTHING RETURNING season_number`
		numbers, err := insertedSeasonNumbers(ctx, tx, query, args)
		if err != nil {
			return nil, err
		}
		for _, season := range inserts {
			if _, ok := numbers[season.SeasonNumber]; ok {
				written = append(written, season)
			}
		}
	}

	if len(updates) > 0 {
		var (
			countCases strings.Builder
			dateCases  strings.Builder
			countArgs  []any
			dateArgs   []any
			numbers    []any
		)
		for _, season := range updates {
			countCases.WriteString(" WHEN ? THEN ?")
			countArgs = append(countArgs, season.SeasonNumber, season.EpisodeCount)
			dateCases.WriteString(" WHEN ? THEN ?")
			dateArgs = append(dateArgs, season.SeasonNumber, nullDate(season.AirDate))
			numbers = append(numbers, season.SeasonNumber)
		}

		query := `UPDATE seasons SET
			episode_count = CASE season_number` + countCases.String() + ` END,
			air_date = CASE season_number` + dateCases.String() + ` END,
			updated_at = ?
			WHERE title_id = ? AND season_number IN (` + placeholders(len(numbers)) + `)`

		args := make([]any, 0, len(countArgs)+len(dateArgs)+2+len(numbers))
		args = append(args, countArgs...)
		args = append(args, dateArgs...)
		args = append(args, formatTime(updates[0].UpdatedAt), titleID)
		args = append(args, numbers...)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update seasons: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seasons: %w", err)
	}
	return written, nil
}

// insertedSeasonNumbers runs a RETURNING insert and collects the season
// numbers of the rows it actually created.
func insertedSeasonNumbers(ctx context.Context, tx *sql.Tx, query string, args []any) (map[int]struct{}, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert seasons: %w", err)
	}
	defer rows.Close()

	numbers := make(map[int]struct{})
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan inserted season: %w", err)
		}
		numbers[n] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert seasons: %w", err)
	}
	return numbers, nil
}
