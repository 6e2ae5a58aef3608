package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := OpenSQLite(filepath.Join(dir, "deck.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"sqlite": sqliteStore,
		"file":   NewFileStore(filepath.Join(dir, "deck.json")),
		"memory": NewMemoryStore(),
	}
}

func TestStores_ReadWrite(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			data, ok, err := store.ReadAll()
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should report absent")
			assert.Nil(t, data)

			require.NoError(t, store.WriteAll([]byte(`[{"id":"1"}]`)))
			require.NoError(t, store.WriteAll([]byte(`[]`)))

			data, ok, err = store.ReadAll()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, string(data), "writes replace the whole value")
		})
	}
}

func TestSQLiteStore_KeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.db")

	a, err := OpenSQLite(path, "a")
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.WriteAll([]byte("alpha")))

	b, err := OpenSQLite(path, "b")
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := b.ReadAll()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "", DefaultKey)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("redis", "", DefaultKey)
	assert.Error(t, err)
}

func TestMemoryStore_Failures(t *testing.T) {
	m := NewMemoryStore()
	m.FailWrites = errors.New("quota exceeded")
	assert.Error(t, m.WriteAll([]byte("x")))

	m.FailWrites = nil
	m.FailReads = errors.New("locked")
	_, _, err := m.ReadAll()
	assert.Error(t, err)
}
