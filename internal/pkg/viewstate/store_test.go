package viewstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func TestState_Visible(t *testing.T) {
	var s State
	for _, kind := range model.AssetKinds {
		assert.False(t, s.Visible(kind), kind)
		s.SetVisible(kind, true)
		assert.True(t, s.Visible(kind), kind)
	}

	s.SetVisible(model.AssetLogo, false)
	assert.False(t, s.Logo)
	assert.True(t, s.Domains)
	assert.False(t, s.Visible(model.AssetKind("trademark")))
}

func TestStore_GetSet(t *testing.T) {
	rdb, mr := testutil.SetupTestRedis(t)
	store := NewStore(rdb, time.Hour)
	ctx := context.Background()

	state, err := store.Get(ctx, "user-1", "name-1")
	require.NoError(t, err)
	assert.Equal(t, State{}, state)

	require.NoError(t, store.SetVisible(ctx, "user-1", "name-1", model.AssetNpm, true))

	got, err := store.Get(ctx, "user-1", "name-1")
	require.NoError(t, err)
	assert.True(t, got.Npm)
	assert.False(t, got.Domains)

	// 不同访问者互不影响
	other, err := store.Get(ctx, "user-2", "name-1")
	require.NoError(t, err)
	assert.False(t, other.Npm)

	mr.FastForward(time.Hour + time.Second)
	expired, err := store.Get(ctx, "user-1", "name-1")
	require.NoError(t, err)
	assert.Equal(t, State{}, expired)
}

func TestStore_SetVisible_KindsIndependent(t *testing.T) {
	rdb, _ := testutil.SetupTestRedis(t)
	store := NewStore(rdb, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, kind := range model.AssetKinds {
		wg.Add(1)
		go func(kind model.AssetKind) {
			defer wg.Done()
			assert.NoError(t, store.SetVisible(ctx, "user-1", "name-1", kind, true))
		}(kind)
	}
	wg.Wait()

	got, err := store.Get(ctx, "user-1", "name-1")
	require.NoError(t, err)
	assert.Equal(t, State{Domains: true, Npm: true, Logo: true, OnePager: true}, got)

	require.NoError(t, store.SetVisible(ctx, "user-1", "name-1", model.AssetLogo, false))
	got, err = store.Get(ctx, "user-1", "name-1")
	require.NoError(t, err)
	assert.False(t, got.Logo)
	assert.True(t, got.Domains)
	assert.True(t, got.OnePager)
}
