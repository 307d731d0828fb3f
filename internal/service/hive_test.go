package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveapp/hive-server/internal/domain"
	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/store/sqlite"
)

// countingTitles counts single-title loads.
type countingTitles struct {
	*sqlite.Store
	gets int
}

func (c *countingTitles) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	c.gets++
	return c.Store.GetTitle(ctx, id)
}

func TestHiveService_ListEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGuard(s)
	svc := NewHiveService(s, s, s, discardLogger())

	first := createTestSeries(t, s, 1396, 7)
	second := createTestSeries(t, s, 1399, 10)
	_, err := g.Admit(ctx, "user-1", first, domain.Pending{}, false)
	require.NoError(t, err)
	_, err = g.Admit(ctx, "user-1", second, domain.Dropped{}, false)
	require.NoError(t, err)
	_, err = g.Admit(ctx, "user-2", first, domain.Pending{}, false)
	require.NoError(t, err)

	items, err := svc.ListEntries(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotNil(t, item.Title)
		assert.Equal(t, item.Entry.TitleID, item.Title.ID)
	}

	empty, err := svc.ListEntries(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHiveService_ListEntriesLoadsTitlesWithEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGuard(s)
	titles := &countingTitles{Store: s}
	svc := NewHiveService(s, titles, s, discardLogger())

	for _, externalID := range []int64{1396, 1399, 60059} {
		title := createTestSeries(t, s, externalID, 7)
		_, err := g.Admit(ctx, "user-1", title, domain.Pending{}, false)
		require.NoError(t, err)
	}

	items, err := svc.ListEntries(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, "Test Series", item.Title.Name)
	}
	assert.Zero(t, titles.gets)
}

func TestHiveService_RemoveEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	g := newTestGuard(s)
	svc := NewHiveService(s, s, s, discardLogger())

	title := createTestSeries(t, s, 1396, 7)
	_, err := g.Admit(ctx, "user-1", title, domain.Pending{}, false)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveEntry(ctx, "user-1", title.ID))

	exists, err := s.HiveEntryExists(ctx, "user-1", title.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// The shared title survives.
	_, err = s.GetTitle(ctx, title.ID)
	require.NoError(t, err)

	err = svc.RemoveEntry(ctx, "user-1", title.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Removing frees the slot for a new admission.
	_, err = g.Admit(ctx, "user-1", title, domain.Pending{}, false)
	assert.NoError(t, err)
}

func TestHiveService_GetTitleDetail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	svc := NewHiveService(s, s, s, discardLogger())

	title := createTestSeries(t, s, 1396, 7, 13)

	detail, err := svc.GetTitleDetail(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, title.ID, detail.Title.ID)
	assert.Len(t, detail.Seasons, 2)
	assert.NotNil(t, detail.Genres)

	_, err = svc.GetTitleDetail(ctx, "ttl-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
