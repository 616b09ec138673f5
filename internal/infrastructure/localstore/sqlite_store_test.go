package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestGetMissingKey(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.Get("absent")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Set("theme:a@x.com:phone", "dark"))

	value, ok, err := store.Get("theme:a@x.com:phone")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)
}

func TestSetOverwrites(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Set("k", "first"))
	require.NoError(t, store.Set("k", "second"))

	value, _, _ := store.Get("k")
	assert.Equal(t, "second", value)
}

func TestDelete(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, ok, _ := store.Get("k")
	assert.False(t, ok)

	assert.NoError(t, store.Delete("k"))
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("unread:a@x.com:phone", `{"c1":2}`))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("unread:a@x.com:phone")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"c1":2}`, value)
}
