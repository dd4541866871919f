package storemanager_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/storemanager"
)

func TestManager_LoadOrCreate(t *testing.T) {
	mgr := storemanager.New(memory.NewStore())
	ctx := context.Background()

	sess, err := mgr.LoadOrCreate(ctx, "s1", session.WithVars(session.NewVars(map[string]any{"seed": true})))
	require.NoError(t, err)
	assert.Equal(t, true, sess.VarDefault("seed", false))

	// The ID is reserved: a second call loads instead of recreating.
	again, err := mgr.LoadOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, true, again.VarDefault("seed", false))
}

func TestManager_LoadMissing(t *testing.T) {
	mgr := storemanager.New(memory.NewStore())

	_, err := mgr.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_UpdateSerializesWrites(t *testing.T) {
	mgr := storemanager.New(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.LoadOrCreate(ctx, "counter")
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, "counter", func(ctx context.Context, sess *session.Session) (*session.Session, error) {
				n, _ := sess.VarDefault("n", 0).(int)
				return sess.WithVar("n", n+1), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := mgr.Load(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, workers, sess.VarDefault("n", 0))
}

func TestManager_DeleteAndList(t *testing.T) {
	mgr := storemanager.New(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.LoadOrCreate(ctx, "a")
	require.NoError(t, err)
	_, err = mgr.LoadOrCreate(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, "a"))

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "a")
	assert.Contains(t, ids, "b")
}
