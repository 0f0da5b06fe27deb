package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Prefix string   `json:"prefix"`
	Tags   []string `json:"tags"`
}

func open(t *testing.T, path string) *DataStore {
	t.Helper()
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return ds
}

func TestPutGetPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds := open(t, path)

	require.NoError(t, ds.Put("g1", doc{Prefix: "!", Tags: []string{"a"}}))
	var got doc
	ok, err := ds.Get("g1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "!", got.Prefix)
	require.NoError(t, ds.Close())

	ds = open(t, path)
	defer ds.Close()
	got = doc{}
	ok, err = ds.Get("g1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, []string{"g1"}, ds.Keys())
}

func TestGetMissing(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "s.json"))
	defer ds.Close()
	var got doc
	ok, err := ds.Get("nope", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAndClosed(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, ds.Put("k", 1))
	ds.Delete("k")
	assert.Empty(t, ds.Keys())
	assert.Equal(t, int64(0), ds.Stats().MemorySize)

	require.NoError(t, ds.Close())
	assert.ErrorIs(t, ds.Put("k", 1), ErrClosed)
	assert.ErrorIs(t, ds.Save(), ErrClosed)
	assert.NoError(t, ds.Close())
}

func TestMemoryLimit(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "s.json"))
	cfg.AutoSaveInterval = 0
	cfg.MaxMemorySize = 10
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	assert.NoError(t, ds.Put("a", "short"))
	assert.ErrorIs(t, ds.Put("b", "this is far too long"), ErrMemoryLimit)
}

func TestBackupsRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	cfg.BackupCount = 2
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	for i := range 5 {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.Save())
	}
	matches, _ := filepath.Glob(path + ".backup.*")
	assert.LessOrEqual(t, len(matches), 2)
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := New(path)
	assert.Error(t, err)
}
