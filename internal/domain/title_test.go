package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in   string
		want MediaKind
		ok   bool
	}{
		{"movie", MediaKindMovie, true},
		{"MOVIE", MediaKindMovie, true},
		{"tv", MediaKindSeries, true},
		{" Series ", MediaKindSeries, true},
		{"podcast", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMediaKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitleKey_String(t *testing.T) {
	assert.Equal(t, "movie:550", TitleKey{ExternalID: 550, MediaKind: MediaKindMovie}.String())
	assert.Equal(t, "series:1399", TitleKey{ExternalID: 1399, MediaKind: MediaKindSeries}.String())
}

func TestTitle_IsStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	title := &Title{Timestamps: Timestamps{UpdatedAt: now.Add(-24 * time.Hour)}}

	assert.True(t, title.IsStale(now, 24*time.Hour), "exactly at threshold is stale")
	assert.False(t, title.IsStale(now.Add(-time.Second), 24*time.Hour))
}

func TestTitle_ApplyKeepsIdentity(t *testing.T) {
	title := &Title{ID: "ttl-1", ExternalID: 550, MediaKind: MediaKindMovie}
	title.Apply(TitleAttributes{Name: "Fight Club", GenreIDs: []int{53, 18, 18}})

	assert.Equal(t, "ttl-1", title.ID)
	assert.Equal(t, int64(550), title.ExternalID)
	assert.Equal(t, MediaKindMovie, title.MediaKind)
	assert.Equal(t, "Fight Club", title.Name)
	assert.Equal(t, []int{18, 53}, title.GenreIDs)
}

func TestNormalizeGenreIDs(t *testing.T) {
	assert.Equal(t, []int{}, NormalizeGenreIDs(nil))
	assert.Equal(t, []int{1, 2, 3}, NormalizeGenreIDs([]int{3, 1, 2, 3, 1}))
}

func TestSourceSeason_Reconcilable(t *testing.T) {
	aired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		season SourceSeason
		want   bool
	}{
		{"specials", SourceSeason{SeasonNumber: 0, EpisodeCount: 5, AirDate: &aired}, false},
		{"no episodes", SourceSeason{SeasonNumber: 3, EpisodeCount: 0, AirDate: &aired}, false},
		{"not aired", SourceSeason{SeasonNumber: 4, EpisodeCount: 8}, false},
		{"regular", SourceSeason{SeasonNumber: 1, EpisodeCount: 10, AirDate: &aired}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.season.Reconcilable())
		})
	}
}
