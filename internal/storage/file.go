package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the collection in a single file on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) ReadAll() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, true, nil
}

// WriteAll writes to a temp file in the same directory and renames it over
// the target so readers never see a partial collection.
func (f *FileStore) WriteAll(data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
