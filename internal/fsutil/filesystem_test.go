package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystemCreateAndRead(t *testing.T) {
	fs := NewMemoryFileSystem()

	w, err := fs.Create("reports/session.html")
	require.NoError(t, err)
	_, err = w.Write([]byte("<html>"))
	require.NoError(t, err)
	_, err = w.Write([]byte("</html>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := fs.ReadFile("reports/session.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestMemoryFileSystemMissingFile(t *testing.T) {
	fs := NewMemoryFileSystem()

	_, err := fs.ReadFile("nope.png")
	assert.Error(t, err)
	assert.False(t, fs.Exists("nope.png"))
}

func TestMemoryFileSystemMkdirAll(t *testing.T) {
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.MkdirAll("a/b/c", 0o755))
	assert.True(t, fs.Exists("a"))
	assert.True(t, fs.Exists("a/b"))
	assert.True(t, fs.Exists("a/b/c"))
	assert.False(t, fs.Exists("a/b/c/d"))
}

func TestOSFileSystemRoundTrip(t *testing.T) {
	fs := OSFileSystem{}
	dir := t.TempDir()

	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "out"), 0o755))
	path := filepath.Join(dir, "out", "trail.png")

	w, err := fs.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, fs.Exists(path))
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, 4)
}
