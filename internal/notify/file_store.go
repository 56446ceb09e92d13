package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists timestamps as one JSON object mapping identity to
// Unix milliseconds. The file is read once at startup and rewritten in full
// after every change.
type FileStore struct {
	path string

	mu   sync.Mutex
	last map[string]int64
}

// NewFileStore loads path, treating a missing file as empty.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, last: make(map[string]int64)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("notify: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.last); err != nil {
		return nil, fmt.Errorf("notify: decode %s: %w", path, err)
	}
	if s.last == nil {
		s.last = make(map[string]int64)
	}
	return s, nil
}

func (s *FileStore) Last(_ context.Context, identity string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.last[identity]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *FileStore) Mark(_ context.Context, identity string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[identity] = at.UnixMilli()
	return s.flushLocked()
}

// Claim keeps the in-memory mark even if the write fails, so a broken disk
// does not turn into repeated alerts. The write error is still returned.
func (s *FileStore) Claim(_ context.Context, identity string, now time.Time, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.last[identity]
	if !due(time.UnixMilli(ms), ok, now, window) {
		return false, nil
	}
	s.last[identity] = now.UnixMilli()
	return true, s.flushLocked()
}

func (s *FileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = make(map[string]int64)
	return s.flushLocked()
}

// flushLocked writes through a temp file and rename so readers never see a
// half-written object.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.last, "", "  ")
	if err != nil {
		return fmt.Errorf("notify: encode timestamps: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".notified-*.json")
	if err != nil {
		return fmt.Errorf("notify: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("notify: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("notify: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("notify: replace %s: %w", s.path, err)
	}
	return nil
}

var _ TimestampStore = (*FileStore)(nil)
