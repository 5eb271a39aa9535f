package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
)

// JSONFileStore keeps the state in a single JSON document
type JSONFileStore struct {
	path   string
	logger logger.Logger
}

// NewJSONFileStore creates a store backed by the file at path
func NewJSONFileStore(path string, log logger.Logger) *JSONFileStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &JSONFileStore{path: path, logger: log.WithField("state_file", path)}
}

// Path returns the backing file path
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads the state file. A missing, unreadable or corrupt file yields an
// empty state.
func (s *JSONFileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("State file unreadable, starting empty")
		}
		return New(), nil
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		s.logger.WithError(err).Warn("State file corrupt, starting empty")
		return New(), nil
	}

	s.logger.DebugWithFields("State loaded", map[string]interface{}{
		"users": len(st.Users()),
	})
	return st, nil
}

// Save writes the state atomically: a temp file in the same directory is
// synced and renamed over the previous file.
func (s *JSONFileStore) Save(st *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to create state directory")
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to encode state")
	}

	file, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to create temporary state file")
	}
	tempPath := file.Name()

	if _, err := file.Write(append(data, '\n')); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to write state")
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to sync state file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to close state file")
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStateIO, err, fmt.Sprintf("failed to replace %s", s.path))
	}

	s.logger.DebugWithFields("State saved", map[string]interface{}{
		"users": len(st.Users()),
	})
	return nil
}

// Close is a no-op for file stores
func (s *JSONFileStore) Close() error {
	return nil
}
