package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"docfeed/internal/config"
	"docfeed/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_MemoryWithDemoSeed(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Env:         "test",
		StoreDriver: config.StoreDriverMemory,
		RedisURL:    mr.Addr(),
		SeedDemo:    true,
	}

	rt, err := InitRuntime(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	assert.Equal(t, repository.KindMemory, rt.Store.Kind())
	assert.Nil(t, rt.DB)
	require.NotNil(t, rt.Redis)

	posts, err := rt.Store.Posts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestInitRuntime_SQLiteSeedsOnce(t *testing.T) {
	cfg := &config.Config{
		Env:          "test",
		StoreDriver:  config.StoreDriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "docfeed.db"),
		DBSchemaMode: "auto",
		SeedDemo:     true,
	}

	rt, err := InitRuntime(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, repository.KindGorm, rt.Store.Kind())
	assert.Nil(t, rt.Redis)
	require.NoError(t, rt.Store.Ping(context.Background()))
	rt.Close()

	// Reopening an already seeded database must not duplicate the demo users.
	rt, err = InitRuntime(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	posts, err := rt.Store.Posts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestRuntime_CloseNil(t *testing.T) {
	var rt *Runtime
	assert.NotPanics(t, rt.Close)
	assert.NotPanics(t, (&Runtime{}).Close)
}
