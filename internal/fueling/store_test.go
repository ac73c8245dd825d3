package fueling

import (
	"context"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretehub/fretehub/internal/platform/httpx"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	require.NoError(t, store.Set(ctx, id, AnswerYes))
	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, AnswerYes, got)
	assert.Equal(t, "yes", mr.HGet(DefaultKey, id))

	require.NoError(t, store.Set(ctx, id, AnswerNo))
	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, AnswerNo, got)

	require.NoError(t, store.Clear(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Clear(ctx, id), "clearing twice is allowed")
}

func TestStoreNormalizesTripIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, store.Set(ctx, strings.ToUpper(id), AnswerYes))
	got, err := store.Get(ctx, " "+id+" ")
	require.NoError(t, err)
	assert.Equal(t, AnswerYes, got)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Set(ctx, "trip-1", AnswerYes), ErrInvalidTripID)
	assert.ErrorIs(t, store.Set(ctx, uuid.NewString(), Answer("maybe")), ErrInvalidAnswer)
	_, err := store.List(ctx, []string{uuid.NewString(), "nope"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStoreListSkipsMissing(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	a, b := uuid.NewString(), uuid.NewString()
	require.NoError(t, store.Set(ctx, a, AnswerNo))

	got, err := store.List(ctx, []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, map[string]Answer{a: AnswerNo}, got)

	empty, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
