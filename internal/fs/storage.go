package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

// Storage implements pastes.Storage on a flat directory of files, one per
// live record, named by the record's stored name.
type Storage struct {
	dataDir string
}

// NewStorage creates a filesystem storage rooted at dataDir, creating the
// directory if needed.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Storage{dataDir: dataDir}, nil
}

// Write creates the named file from the reader and returns the number of
// bytes written. An existing file is never overwritten: stored names derive
// from fresh identifiers, so a name collision is a bug upstream, not a
// replace.
func (s *Storage) Write(storedName string, content io.Reader) (int64, error) {
	file, err := os.OpenFile(s.path(storedName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		// Clean up the partial file if the copy fails.
		os.Remove(s.path(storedName))
		return 0, fmt.Errorf("failed to write file content: %w", err)
	}

	return size, nil
}

// Open returns a reader for the named file's content.
func (s *Storage) Open(storedName string) (io.ReadCloser, error) {
	file, err := os.Open(s.path(storedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pastes.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the named file. A file that is already gone is not an error.
func (s *Storage) Delete(storedName string) error {
	if err := os.Remove(s.path(storedName)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if the named file is present.
func (s *Storage) Exists(storedName string) bool {
	_, err := os.Stat(s.path(storedName))
	return err == nil
}

// path maps a stored name into the data directory. Only the base name is
// used, so a crafted name cannot escape the directory.
func (s *Storage) path(storedName string) string {
	return filepath.Join(s.dataDir, filepath.Base(storedName))
}
