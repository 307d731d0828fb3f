package api

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/hiveapp/hive-server/internal/auth"
	"github.com/hiveapp/hive-server/internal/domain"
	"github.com/hiveapp/hive-server/internal/metadata/tmdb"
	"github.com/hiveapp/hive-server/internal/ratelimit"
	"github.com/hiveapp/hive-server/internal/service"
	"github.com/hiveapp/hive-server/internal/store/sqlite"
	"github.com/hiveapp/hive-server/internal/validation"
)

const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

// fakeCatalog serves canned catalog records.
type fakeCatalog struct {
	mu        sync.Mutex
	records   map[int64]*tmdb.Record
	seasons   map[int64][]domain.SourceSeason
	titleErr  error
	seasonErr error
	lookups   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		records: make(map[int64]*tmdb.Record),
		seasons: make(map[int64][]domain.SourceSeason),
	}
}

func (f *fakeCatalog) LookupTitle(_ context.Context, externalID int64, kind domain.MediaKind) (*tmdb.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	rec, ok := f.records[externalID]
	if !ok || rec.MediaKind != kind {
		return nil, tmdb.ErrNotFound
	}
	return rec, nil
}

func (f *fakeCatalog) LookupSeasons(_ context.Context, externalID int64) ([]domain.SourceSeason, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seasonErr != nil {
		return nil, f.seasonErr
	}
	return f.seasons[externalID], nil
}

type noPlaceholder struct{}

func (noPlaceholder) Generate(context.Context, string) (string, error) { return "", nil }

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api     humatest.TestAPI
	store   *sqlite.Store
	catalog *fakeCatalog
	tokens  *auth.TokenService
}

func setupTestServer(t *testing.T, admissionLimit int) *testServer {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens, err := auth.NewTokenService(testKeyHex)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	catalog := newFakeCatalog()
	v := validation.New()

	limiter := ratelimit.NewWindow(admissionLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	titles := service.NewTitleStore(st, catalog, noPlaceholder{}, service.DefaultStaleAfter, logger)
	seasons := service.NewSeasonReconciler(st, catalog, logger)
	guard := service.NewMembershipGuard(st, st, v, logger)

	services := &Services{
		Admission: service.NewAdmissionService(limiter, titles, seasons, guard, v, logger),
		Hive:      service.NewHiveService(st, st, st, logger),
		Database:  st,
	}

	s := NewServer(services, tokens, Options{Title: "Hive API Test"}, logger)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		store:   st,
		catalog: catalog,
		tokens:  tokens,
	}
}

func (ts *testServer) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func (ts *testServer) addBreakingBad() {
	ts.catalog.records[1396] = &tmdb.Record{
		ID:           1396,
		MediaKind:    domain.MediaKindSeries,
		Name:         "Breaking Bad",
		FirstAirDate: "2008-01-20",
		PosterPath:   "/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
		VoteAverage:  8.9,
		GenreIDs:     []int{18, 80},
	}
	aired := time.Date(2008, 1, 20, 0, 0, 0, 0, time.UTC)
	ts.catalog.seasons[1396] = []domain.SourceSeason{
		{SeasonNumber: 0, EpisodeCount: 9, AirDate: &aired},
		{SeasonNumber: 1, EpisodeCount: 7, AirDate: &aired},
		{SeasonNumber: 2, EpisodeCount: 13, AirDate: &aired},
	}
}

func (ts *testServer) addFightClub() {
	ts.catalog.records[550] = &tmdb.Record{
		ID:          550,
		MediaKind:   domain.MediaKindMovie,
		Title:       "Fight Club",
		ReleaseDate: "1999-10-15",
		Runtime:     139,
		GenreIDs:    []int{18, 53},
	}
}

// testEnvelope is the success envelope with typed data.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func decodeError(t *testing.T, body []byte) APIErrorEnvelope {
	t.Helper()
	var env APIErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}
