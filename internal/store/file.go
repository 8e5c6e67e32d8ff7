package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

const (
	configDirName = "mood-melodies"
	stateFileName = "state.toml"
)

// FileStore keeps the last mood and a bounded history in a TOML file.
type FileStore struct {
	mu    sync.Mutex
	path  string
	limit int
}

// Ensure FileStore implements MoodStore at compile time.
var _ MoodStore = (*FileStore)(nil)

// DefaultFileStore returns a FileStore at ~/.config/mood-melodies/state.toml.
func DefaultFileStore() (*FileStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}
	return NewFileStore(filepath.Join(configDir, configDirName, stateFileName), DefaultHistoryLimit), nil
}

// NewFileStore creates a FileStore at path retaining at most limit records.
func NewFileStore(path string, limit int) *FileStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &FileStore{path: path, limit: limit}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

type fileState struct {
	LastMood mood.Label `toml:"last_mood"`
	History  []Record   `toml:"history"`
}

// load reads the state file. A missing file is an empty state.
func (s *FileStore) load() (fileState, error) {
	var st fileState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("reading state file: %w", err)
	}
	if err := toml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parsing state file: %w", err)
	}
	return st, nil
}

func (s *FileStore) save(st fileState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// SaveResult prepends rec to the history and updates the last mood.
func (s *FileStore) SaveResult(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}

	st.LastMood = rec.Mood
	st.History = append([]Record{rec}, st.History...)
	if len(st.History) > s.limit {
		st.History = st.History[:s.limit]
	}

	return s.save(st)
}

// LastMood returns the most recently saved mood.
func (s *FileStore) LastMood(ctx context.Context) (mood.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	if st.LastMood == "" {
		return "", ErrNotFound
	}
	return st.LastMood, nil
}

// History returns up to limit records, newest first.
func (s *FileStore) History(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return nil, err
	}
	n := clampLimit(limit, len(st.History))
	return st.History[:n], nil
}

// Clear removes the state file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
