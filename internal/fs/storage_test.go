package fs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestStorageWriteAndOpen(t *testing.T) {
	storage := newTestStorage(t)

	size, err := storage.Write("abc123.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	content, err := storage.Open("abc123.txt")
	require.NoError(t, err)
	defer content.Close()

	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestStorageWriteNeverOverwrites(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Write("dup.bin", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = storage.Write("dup.bin", strings.NewReader("second"))
	assert.Error(t, err)

	content, err := storage.Open("dup.bin")
	require.NoError(t, err)
	defer content.Close()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStorageOpenMissing(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Open("missing.txt")
	assert.ErrorIs(t, err, pastes.ErrNotFound)
}

func TestStorageDeleteIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.Write("gone.txt", strings.NewReader("x"))
	require.NoError(t, err)

	assert.NoError(t, storage.Delete("gone.txt"))
	assert.NoError(t, storage.Delete("gone.txt"))
	assert.False(t, storage.Exists("gone.txt"))
}

func TestStorageExists(t *testing.T) {
	storage := newTestStorage(t)

	assert.False(t, storage.Exists("nope.txt"))

	_, err := storage.Write("yes.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, storage.Exists("yes.txt"))
}

func TestStorageStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(filepath.Join(dir, "data"))
	require.NoError(t, err)

	_, err = storage.Write("../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)

	// The file must land inside the data directory, not beside it.
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
	assert.True(t, storage.Exists("escape.txt"))
}
