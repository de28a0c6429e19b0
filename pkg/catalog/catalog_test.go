package catalog

import (
	"path/filepath"
	"testing"

	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openCatalog(t, t.TempDir())

	cfg := config.DefaultStoreConfig("alpha", "/data/alpha.zip")
	cfg.Password = "pw"
	require.NoError(t, c.Put(cfg))

	got, err := c.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestGetUnknown(t *testing.T) {
	c := openCatalog(t, t.TempDir())

	_, err := c.Get("ghost")
	assert.ErrorIs(t, err, ErrStoreNotFound)

	ok, err := c.Has("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutRejectsInvalidConfig(t *testing.T) {
	c := openCatalog(t, t.TempDir())

	cfg := config.DefaultStoreConfig("", "/data/x.zip")
	assert.Error(t, c.Put(cfg))
}

func TestDeleteAndList(t *testing.T) {
	c := openCatalog(t, t.TempDir())

	require.NoError(t, c.Put(config.DefaultStoreConfig("a", "/data/a.zip")))
	require.NoError(t, c.Put(config.DefaultStoreConfig("b", "/data/b.zip")))

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, c.Delete("a"))
	names, err = c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	// Deleting an unknown name is a no-op.
	require.NoError(t, c.Delete("never-there"))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	require.NoError(t, c.Put(config.DefaultStoreConfig("persisted", "/data/p.zip")))
	require.NoError(t, c.Close())

	c2 := openCatalog(t, dir)
	got, err := c2.Get("persisted")
	require.NoError(t, err)
	assert.Equal(t, "/data/p.zip", got.Path)
}
