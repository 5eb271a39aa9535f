package state

import (
	"fmt"
	"path/filepath"
	"strings"

	"snapify/pkg/config"
	"snapify/pkg/logger"
)

// Store persists a State between runs.
//
// Load never fails on missing or unreadable content; it logs and returns an
// empty state so a pass can still run. Save is all-or-nothing.
type Store interface {
	Load() (*State, error)
	Save(*State) error
	Close() error
}

// Open creates the store for the configured backend.
// The bolt backend swaps a .json extension for .db so the default path
// does not point a database at a JSON file.
func Open(backend, path string, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	switch backend {
	case "", config.StateBackendJSON:
		return NewJSONFileStore(path, log), nil
	case config.StateBackendBolt:
		if strings.EqualFold(filepath.Ext(path), ".json") {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
		}
		return NewBoltStore(path, log)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
