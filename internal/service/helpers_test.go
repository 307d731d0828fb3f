package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/id"
	"github.com/hiveapp/hive-server/internal/metadata/tmdb"
	"github.com/hiveapp/hive-server/internal/store/sqlite"
	"github.com/hiveapp/hive-server/internal/validation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

func fightClubRecord() *tmdb.Record {
	return &tmdb.Record{
		ID:          550,
		MediaKind:   domain.MediaKindMovie,
		Title:       "Fight Club",
		ReleaseDate: "1999-10-15",
		Overview:    "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression.",
		PosterPath:  "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		Runtime:     139,
		VoteAverage: 8.4,
		GenreIDs:    []int{18, 53, 35},
		IMDbID:      "tt0137523",
	}
}

func breakingBadRecord() *tmdb.Record {
	return &tmdb.Record{
		ID:           1396,
		MediaKind:    domain.MediaKindSeries,
		Name:         "Breaking Bad",
		FirstAirDate: "2008-01-20",
		Overview:     "A chemistry teacher diagnosed with cancer turns to crime.",
		PosterPath:   "/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
		VoteAverage:  8.9,
		GenreIDs:     []int{18, 80},
		IMDbID:       "tt0903747",
	}
}

func movieKey(externalID int64) domain.TitleKey {
	return domain.TitleKey{ExternalID: externalID, MediaKind: domain.MediaKindMovie}
}

func seriesKey(externalID int64) domain.TitleKey {
	return domain.TitleKey{ExternalID: externalID, MediaKind: domain.MediaKindSeries}
}

// createTestSeries stores a series title and the given seasons directly.
func createTestSeries(t *testing.T, s *sqlite.Store, externalID int64, episodeCounts ...int) *domain.Title {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	title := &domain.Title{ID: id.MustGenerate(id.PrefixTitle), ExternalID: externalID, MediaKind: domain.MediaKindSeries}
	title.InitTimestamps(now)
	title.Apply(domain.TitleAttributes{Name: "Test Series", Slug: "test-series"})
	stored, _, err := s.InsertTitleOrGet(ctx, title)
	require.NoError(t, err)

	source := make([]domain.SourceSeason, 0, len(episodeCounts))
	for i, n := range episodeCounts {
		source = append(source, domain.SourceSeason{SeasonNumber: i + 1, EpisodeCount: n, AirDate: &now})
	}
	inserts, _, err := PlanSeasonChanges(stored.ID, nil, source, now)
	require.NoError(t, err)
	_, err = s.ApplySeasonChanges(ctx, stored.ID, inserts, nil)
	require.NoError(t, err)
	return stored
}

func newTestGuard(s *sqlite.Store) *MembershipGuard {
	return NewMembershipGuard(s, s, validation.New(), discardLogger())
}
