package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileStore keeps the bloom start as a decimal Unix timestamp in a single
// file, written atomically (temp file + rename) so a power cut mid-write
// never corrupts the stored value.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadBloomStart reads the persisted timestamp. A missing file or a stored
// zero both mean bloom mode is disabled.
func (s *FileStore) LoadBloomStart() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read bloom start: %w", err)
	}

	sec, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse bloom start %q: %w", strings.TrimSpace(string(data)), err)
	}
	if sec == 0 {
		return time.Time{}, nil
	}
	return time.Unix(sec, 0), nil
}

// SaveBloomStart writes the timestamp atomically.
func (s *FileStore) SaveBloomStart(t time.Time) error {
	var sec int64
	if !t.IsZero() {
		sec = t.Unix()
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(sec, 10)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write bloom start: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit bloom start: %w", err)
	}
	return nil
}
