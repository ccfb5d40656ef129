package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one file per block under a state directory. Writes go
// through a temp file and rename, so a power cut mid-write leaves the
// previous value intact rather than a torn block.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Read returns the value of a block, or ErrNotFound.
func (s *FileStore) Read(name string) (int32, error) {
	buf, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read block %s: %w", name, err)
	}
	v, err := DecodeValue(buf)
	if err != nil {
		return 0, fmt.Errorf("block %s: %w", name, err)
	}
	return v, nil
}

// Write persists a block atomically.
func (s *FileStore) Write(name string, v int32) error {
	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, EncodeValue(v), 0o644); err != nil {
		return fmt.Errorf("write block %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit block %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}
