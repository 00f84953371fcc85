package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonylow1993/idphoto/model"
)

func TestRedisStore_Session(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	session := &model.Session{ID: "abc", MD5: "m", Width: 30, Height: 40, Foreground: model.ForegroundPending}
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, session, got)
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))
}

func TestRedisStore_Artifacts(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOriginal(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetForeground(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveOriginal(ctx, "abc", []byte{1, 2, 3}))
	original, err := store.GetOriginal(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, original)

	record := &model.ForegroundRecord{
		Kind:   "polygons",
		Groups: []model.PolygonGroup{{Label: "person", Polygons: [][][2]float64{{{0, 0}, {1, 0}, {1, 1}}}}},
		Width:  2,
		Height: 2,
	}
	require.NoError(t, store.SaveForeground(ctx, "abc", record))
	got, err := store.GetForeground(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	require.NoError(t, store.SaveSession(ctx, &model.Session{ID: "abc"}))
	require.NoError(t, store.DeleteSession(ctx, "abc"))
	assert.False(t, mr.Exists("session:abc"))
	assert.False(t, mr.Exists("session:abc:original"))
	assert.False(t, mr.Exists("session:abc:foreground"))
}

func TestRedisStore_SegmentationCache(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetCachedSegmentation(ctx, "md5:polygons")
	require.NoError(t, err)
	assert.Nil(t, got)

	record := &model.ForegroundRecord{Kind: "mask", Image: []byte{9}, Mode: "direct"}
	require.NoError(t, store.SetCachedSegmentation(ctx, "md5:polygons", record))

	got, err = store.GetCachedSegmentation(ctx, "md5:polygons")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.GetSession(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
