package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/hiveapp/hive-server/internal/errors"
)

func TestGetTitle_SeriesDetail(t *testing.T) {
	ts := setupTestServer(t, 10)
	ts.addBreakingBad()

	resp := ts.api.Post("/api/v1/hive", ts.bearer(t, "user-1"), map[string]any{
		"external_id": 1396, "media_kind": "series", "status": "PENDING",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	titleID := decodeEnvelope[AddToHiveResponse](t, resp.Body.Bytes()).Data.Title.ID

	// Any signed-in user can read a stored title.
	resp = ts.api.Get("/api/v1/titles/"+titleID, ts.bearer(t, "user-2"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	detail := decodeEnvelope[TitleDetailResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Breaking Bad", detail.Title.Name)
	assert.Equal(t, []int{18, 80}, detail.Title.GenreIDs)
	assert.Equal(t, []string{"Drama", "Crime"}, detail.Genres)
	require.Len(t, detail.Seasons, 2)
	assert.Equal(t, 1, detail.Seasons[0].SeasonNumber)
	assert.Equal(t, 7, detail.Seasons[0].EpisodeCount)
	require.NotNil(t, detail.Seasons[0].AirDate)
	assert.Equal(t, "2008-01-20", *detail.Seasons[0].AirDate)
}

func TestGetTitle_NotFound(t *testing.T) {
	ts := setupTestServer(t, 10)

	resp := ts.api.Get("/api/v1/titles/ttl-missing", ts.bearer(t, "user-1"))

	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	assert.Equal(t, string(domainerrors.CodeNotFound), decodeError(t, resp.Body.Bytes()).Code)
}

func TestGetTitle_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t, 10)

	resp := ts.api.Get("/api/v1/titles/ttl-any")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
