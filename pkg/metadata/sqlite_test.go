package metadata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "episodes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := &EpisodeRecord{
		ID:             "ep-1",
		Title:          "Launch Day",
		ChannelID:      "chan-9",
		DurationMillis: 183000,
		AdditionalData: map[string]interface{}{
			"master_m3u8":   "https://media.example.com/ep-1/master.m3u8",
			"videoLocation": "https://media.example.com/ep-1/video.mp4",
		},
		ProcessingDone: true,
	}
	require.NoError(t, store.Insert(ctx, record))

	fetched, err := store.GetByID(ctx, "ep-1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Launch Day", fetched.Title)
	assert.Equal(t, "chan-9", fetched.ChannelID)
	assert.Equal(t, int64(183000), fetched.DurationMillis)
	assert.True(t, fetched.ProcessingDone)
	assert.False(t, fetched.IsDeleted())
	assert.False(t, fetched.CreatedAt.IsZero())

	location, ok := fetched.Additional("videoLocation")
	require.True(t, ok)
	assert.Equal(t, "https://media.example.com/ep-1/video.mp4", location)
}

func TestGetByIDUnknown(t *testing.T) {
	store := newTestStore(t)

	fetched, err := store.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestListRecentOrderingAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ep-a", "ep-b", "ep-c", "ep-d"} {
		require.NoError(t, store.Insert(ctx, &EpisodeRecord{
			ID:        id,
			Title:     id,
			ChannelID: "chan",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	ids, err := store.ListRecent(ctx, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-d", "ep-c", "ep-b", "ep-a"}, ids)

	ids, err = store.ListRecent(ctx, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-d", "ep-c"}, ids)

	after := base.Add(90 * time.Minute)
	ids, err = store.ListRecent(ctx, 10, &after)
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-d", "ep-c"}, ids)
}

func TestListRecentExcludesSoftDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, &EpisodeRecord{ID: "ep-keep", CreatedAt: base}))
	require.NoError(t, store.Insert(ctx, &EpisodeRecord{ID: "ep-gone", CreatedAt: base.Add(time.Hour)}))

	require.NoError(t, store.SoftDelete(ctx, "ep-gone"))

	ids, err := store.ListRecent(ctx, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ep-keep"}, ids)

	// The row survives for direct lookups.
	fetched, err := store.GetByID(ctx, "ep-gone")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.IsDeleted())
}

func TestUpdatePartialFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &EpisodeRecord{
		ID:        "ep-1",
		Title:     "Draft",
		ChannelID: "chan",
	}))

	err := store.Update(ctx, "ep-1", map[string]interface{}{
		"title":          "Final Cut",
		"durationMillis": int64(42000),
		"processingDone": true,
		"additionalData": map[string]interface{}{"master_m3u8": "m/master.m3u8"},
	})
	require.NoError(t, err)

	fetched, err := store.GetByID(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, "Final Cut", fetched.Title)
	assert.Equal(t, "chan", fetched.ChannelID)
	assert.Equal(t, int64(42000), fetched.DurationMillis)
	assert.True(t, fetched.ProcessingDone)
	manifest, ok := fetched.Additional("master_m3u8")
	require.True(t, ok)
	assert.Equal(t, "m/master.m3u8", manifest)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &EpisodeRecord{ID: "ep-1"}))
	err := store.Update(ctx, "ep-1", map[string]interface{}{"status": "done"})
	assert.Error(t, err)
}

func TestUpdateMissingRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), "missing", map[string]interface{}{"title": "x"})
	assert.Error(t, err)
}
