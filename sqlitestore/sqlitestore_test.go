package sqlitestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justlog/justlog"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEmitAndQuery(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	entries := []justlog.Entry{
		{Time: base, Level: justlog.DEBUG, Message: "debug entry"},
		{Time: base.Add(time.Second), Level: justlog.INFO, Message: "info entry"},
		{Time: base.Add(2 * time.Second), Level: justlog.ERROR, Message: "error entry"},
	}
	for _, e := range entries {
		require.NoError(t, store.Emit(e))
	}

	got, total, err := store.Query(justlog.INFO, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "error entry", got[0].Message, "newest entries come first")
	assert.Equal(t, "info entry", got[1].Message)
	assert.Equal(t, justlog.ERROR, got[0].Level)
}

func TestFieldsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	fields := map[string]interface{}{
		"user":  "alice",
		"count": float64(3), // JSON numbers come back as float64
		"flag":  true,
	}
	require.NoError(t, store.Emit(justlog.Entry{
		Time:    time.Now(),
		Level:   justlog.INFO,
		Message: "with extras",
		Args:    []interface{}{"pos", float64(42)},
		Fields:  fields,
	}))

	got, total, err := store.Query(justlog.DEBUG, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, fields, got[0].Fields)
	assert.Equal(t, []interface{}{"pos", float64(42)}, got[0].Args)
}

func TestUnencodableValueStored(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	err := store.Emit(justlog.Entry{
		Time:    time.Now(),
		Level:   justlog.WARNING,
		Message: "bad value",
		Args:    []interface{}{make(chan int)},
	})
	require.NoError(t, err, "an unencodable value must not fail the insert")

	got, _, err := store.Query(justlog.DEBUG, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bad value", got[0].Message)
}

func TestPagination(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	base := time.Now()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Emit(justlog.Entry{
			Time:    base.Add(time.Duration(i) * time.Second),
			Level:   justlog.INFO,
			Message: "entry",
		}))
	}

	page1, total, err := store.Query(justlog.INFO, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page1, 10)

	page3, _, err := store.Query(justlog.INFO, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	empty, _, err := store.Query(justlog.INFO, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPrune(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	now := time.Now()
	require.NoError(t, store.Emit(justlog.Entry{Time: now.AddDate(0, 0, -10), Level: justlog.INFO, Message: "ancient"}))
	require.NoError(t, store.Emit(justlog.Entry{Time: now, Level: justlog.INFO, Message: "recent"}))

	removed, err := store.Prune(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, total, err := store.Query(justlog.DEBUG, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].Message)
}

func TestStoreAsLoggerSink(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	config := justlog.DefaultConfig()
	config.FilePath = filepath.Join(t.TempDir(), "app.log")
	config.EnableFallback = false
	config.Store = store
	config.StoreLevel = justlog.INFO

	logger, err := justlog.New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("below store threshold")
	logger.InfoWithFields(map[string]interface{}{"k": "v"}, "persisted")

	got, total, err := store.Query(justlog.DEBUG, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Message)
	assert.Equal(t, map[string]interface{}{"k": "v"}, got[0].Fields)
}
