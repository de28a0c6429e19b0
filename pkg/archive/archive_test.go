package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	err := Create(path, 6, StoreMeta{CreatedAt: "2024-01-01T00:00:00Z", Version: "1.0.0"})
	require.NoError(t, err)
	return path
}

func TestCreateAndReadMeta(t *testing.T) {
	path := newContainer(t)

	assert.True(t, IsArchive(path))

	names, err := List(path)
	require.NoError(t, err)
	assert.Equal(t, []string{MetaEntryName}, names)

	meta, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", meta.Version)
	assert.False(t, meta.Encryption)
}

func TestIsArchiveRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a container"), 0o644))
	assert.False(t, IsArchive(path))

	assert.False(t, IsArchive(filepath.Join(t.TempDir(), "missing.zip")))
}

func TestAppendAndRead(t *testing.T) {
	path := newContainer(t)

	err := Append(path, 6, []Entry{
		{Name: "data/a", Data: []byte("payload a")},
		{Name: "metadata/a.json", Data: []byte(`{"size":9}`)},
	})
	require.NoError(t, err)

	data, err := Read(path, "data/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload a"), data)

	// Appends preserve prior entries in enumeration order.
	err = Append(path, 6, []Entry{{Name: "data/b", Data: []byte("payload b")}})
	require.NoError(t, err)

	names, err := List(path)
	require.NoError(t, err)
	assert.Equal(t, []string{MetaEntryName, "data/a", "metadata/a.json", "data/b"}, names)
}

func TestReadMissingEntry(t *testing.T) {
	path := newContainer(t)
	_, err := Read(path, "data/absent")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRewriteExcludes(t *testing.T) {
	path := newContainer(t)
	require.NoError(t, Append(path, 6, []Entry{
		{Name: "data/keep", Data: []byte("keep")},
		{Name: "data/drop", Data: []byte("drop")},
	}))

	err := Rewrite(path, 6, func(name string) bool {
		return !strings.HasPrefix(name, "data/drop")
	}, nil)
	require.NoError(t, err)

	names, err := List(path)
	require.NoError(t, err)
	assert.Contains(t, names, "data/keep")
	assert.NotContains(t, names, "data/drop")

	data, err := Read(path, "data/keep")
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), data)
}

func TestRewriteReplacesEntry(t *testing.T) {
	path := newContainer(t)
	require.NoError(t, Append(path, 6, []Entry{{Name: "data/x", Data: []byte("old")}}))

	err := Rewrite(path, 6, func(name string) bool {
		return name != "data/x"
	}, []Entry{{Name: "data/x", Data: []byte("new")}})
	require.NoError(t, err)

	data, err := Read(path, "data/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestRebuildFailureLeavesOriginalIntact(t *testing.T) {
	path := newContainer(t)
	require.NoError(t, Append(path, 6, []Entry{{Name: "data/a", Data: []byte("a")}}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A rebuild against a missing source must fail without side effects.
	missing := filepath.Join(t.TempDir(), "missing.zip")
	err = Append(missing, 6, []Entry{{Name: "data/x", Data: []byte("x")}})
	assert.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".rebuild-")
	}
}

func TestCompressionLevels(t *testing.T) {
	big := []byte(strings.Repeat("compressible data ", 500))

	sizes := map[int]int64{}
	for _, level := range []int{0, 9} {
		path := filepath.Join(t.TempDir(), "c.zip")
		require.NoError(t, Create(path, level, StoreMeta{Version: "1.0.0"}))
		require.NoError(t, Append(path, level, []Entry{{Name: "data/big", Data: big}}))

		got, err := Read(path, "data/big")
		require.NoError(t, err)
		assert.Equal(t, big, got)

		size, err := Size(path)
		require.NoError(t, err)
		sizes[level] = size
	}
	assert.Less(t, sizes[9], sizes[0])
}
