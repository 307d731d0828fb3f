package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/id"
)

func createTestMovie(t *testing.T, runtime int) *domain.Title {
	t.Helper()
	title := &domain.Title{ID: id.MustGenerate(id.PrefixTitle), ExternalID: 550, MediaKind: domain.MediaKindMovie}
	title.InitTimestamps(time.Now())
	title.Apply(domain.TitleAttributes{Name: "Fight Club", Slug: "fight-club-1999", RuntimeMinutes: runtime})
	return title
}

func TestCheckNotMember(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396, 7)

	require.NoError(t, g.CheckNotMember(ctx, "user-1", title.ID))

	_, err := g.Admit(ctx, "user-1", title, domain.Pending{}, false)
	require.NoError(t, err)

	err = g.CheckNotMember(ctx, "user-1", title.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyMember)

	// Another user is unaffected.
	assert.NoError(t, g.CheckNotMember(ctx, "user-2", title.ID))
}

func TestAdmit_SecondAdmissionIsAlreadyMember(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396, 7)

	entry, err := g.Admit(ctx, "user-1", title, domain.Pending{}, true)
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(entry.ID, id.PrefixEntry))
	assert.True(t, entry.IsFavorite)

	_, err = g.Admit(ctx, "user-1", title, domain.Pending{}, false)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyMember)

	entries, err := s.ListHiveItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestValidateForm_EpisodeBeyondSeason(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396, 10)

	_, err := g.ValidateForm(context.Background(), title, HiveForm{
		Status:         string(domain.StatusWatching),
		CurrentSeason:  1,
		CurrentEpisode: 99,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidProgress)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must not exceed 10", details["current_episode"])
}

func TestValidateForm_Series(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396, 7, 13)

	tests := []struct {
		name    string
		form    HiveForm
		wantErr *domainerrors.Error
	}{
		{
			name: "valid position",
			form: HiveForm{Status: "WATCHING", CurrentSeason: 2, CurrentEpisode: 13},
		},
		{
			name:    "no position",
			form:    HiveForm{Status: "WATCHING"},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name:    "finished without position",
			form:    HiveForm{Status: "FINISHED"},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name:    "season zero",
			form:    HiveForm{Status: "UNFINISHED", CurrentSeason: 0, CurrentEpisode: 3},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name: "dropped needs no position",
			form: HiveForm{Status: "DROPPED"},
		},
		{
			name:    "unknown season",
			form:    HiveForm{Status: "WATCHING", CurrentSeason: 3, CurrentEpisode: 1},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name:    "episode without season",
			form:    HiveForm{Status: "WATCHING", CurrentEpisode: 4},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name:    "season without episode",
			form:    HiveForm{Status: "REWATCHING", CurrentSeason: 1},
			wantErr: domainerrors.ErrInvalidProgress,
		},
		{
			name: "pending ignores position",
			form: HiveForm{Status: "PENDING", CurrentSeason: 9, CurrentEpisode: 99},
		},
		{
			name:    "unknown status",
			form:    HiveForm{Status: "BINGING"},
			wantErr: domainerrors.ErrValidation,
		},
		{
			name:    "rating out of range",
			form:    HiveForm{Status: "FINISHED", Rating: 11},
			wantErr: domainerrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.ValidateForm(context.Background(), title, tt.form)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateForm_WatchingWithoutPositionNamesField(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396, 10)

	_, err := g.ValidateForm(context.Background(), title, HiveForm{Status: "WATCHING"})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeInvalidProgress, domainErr.Code)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at least 1", details["current_season"])
}

func TestValidateForm_SeriesWithoutSeasonsAcceptsEmptyPosition(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396)

	_, err := g.ValidateForm(context.Background(), title, HiveForm{Status: "WATCHING"})
	assert.NoError(t, err)

	_, err = g.ValidateForm(context.Background(), title, HiveForm{Status: "WATCHING", CurrentSeason: 2})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidProgress)
}

func TestValidateForm_SeriesWithoutSeasonsAcceptsPosition(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestSeries(t, s, 1396)

	progress, err := g.ValidateForm(context.Background(), title, HiveForm{
		Status:         "WATCHING",
		CurrentSeason:  3,
		CurrentEpisode: 4,
	})
	require.NoError(t, err)

	pos, ok := domain.PositionOf(progress)
	require.True(t, ok)
	assert.Equal(t, domain.Position{Season: 3, Episode: 4}, pos)
}

func TestValidateForm_Movie(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGuard(s)
	title := createTestMovie(t, 139)
	finished := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	started := finished.Add(-3 * time.Hour)

	t.Run("finished with rating", func(t *testing.T) {
		progress, err := g.ValidateForm(context.Background(), title, HiveForm{
			Status:     "FINISHED",
			Rating:     9,
			StartedAt:  &started,
			FinishedAt: &finished,
		})
		require.NoError(t, err)

		fin, ok := progress.(domain.Finished)
		require.True(t, ok)
		require.NotNil(t, fin.Completion)
		assert.Equal(t, 9, fin.Completion.Rating)
		assert.True(t, fin.Completion.At.Equal(finished))
	})

	t.Run("rating without finish date is dropped", func(t *testing.T) {
		progress, err := g.ValidateForm(context.Background(), title, HiveForm{Status: "FINISHED", Rating: 9})
		require.NoError(t, err)

		fin, ok := progress.(domain.Finished)
		require.True(t, ok)
		assert.Nil(t, fin.Completion)
	})

	t.Run("runtime past the end", func(t *testing.T) {
		_, err := g.ValidateForm(context.Background(), title, HiveForm{Status: "WATCHING", CurrentRuntimeMinutes: 200})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidProgress)
	})

	t.Run("finish before start", func(t *testing.T) {
		_, err := g.ValidateForm(context.Background(), title, HiveForm{
			Status:     "FINISHED",
			StartedAt:  &finished,
			FinishedAt: &started,
		})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})
}
