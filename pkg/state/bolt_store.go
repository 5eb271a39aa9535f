package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	errs "snapify/pkg/errors"
	"snapify/pkg/logger"
)

var seenBucket = []byte("seen")

// BoltStore keeps one key per user in a bbolt database.
// Values are JSON arrays of URLs.
type BoltStore struct {
	db     *bolt.DB
	logger logger.Logger
}

// NewBoltStore opens (or creates) the database at path
func NewBoltStore(path string, log logger.Logger) (*BoltStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStateIO, err, "failed to create state directory")
	}

	log = log.WithField("state_db", path)

	db, err := openBolt(path)
	if isCorruptDB(err) {
		aside := path + corruptSuffix
		log.WithError(err).WarnWithFields("State database corrupt, starting empty", map[string]interface{}{
			"moved_to": aside,
		})
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, errs.Wrap(errs.ErrorTypeStateIO, renameErr, "moving corrupt state database aside")
		}
		db, err = openBolt(path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStateIO, err, "opening state database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(seenBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStateIO, err, "creating state bucket")
	}

	return &BoltStore{db: db, logger: log}, nil
}

// corruptSuffix is appended to a database file that bbolt refuses to open
const corruptSuffix = ".corrupt"

func openBolt(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
}

// isCorruptDB reports whether err means the file is not a usable bbolt
// database. A lock timeout is not corruption.
func isCorruptDB(err error) bool {
	return errors.Is(err, berrors.ErrInvalid) ||
		errors.Is(err, berrors.ErrVersionMismatch) ||
		errors.Is(err, berrors.ErrChecksum)
}

// Load reads every user entry. Entries that fail to decode are skipped.
func (s *BoltStore) Load() (*State, error) {
	st := New()
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var urls []string
			if err := json.Unmarshal(v, &urls); err != nil {
				s.logger.WarnWithFields("Corrupt state entry skipped", map[string]interface{}{
					"username": string(k),
					"error":    err.Error(),
				})
				return nil
			}
			st.Merge(string(k), urls)
			return nil
		})
	})
	if err != nil {
		s.logger.WithError(err).Warn("State database unreadable, starting empty")
		return New(), nil
	}
	return st, nil
}

// Save replaces the stored state in a single transaction
func (s *BoltStore) Save(st *State) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(seenBucket) != nil {
			if err := tx.DeleteBucket(seenBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(seenBucket)
		if err != nil {
			return err
		}
		for _, user := range st.Users() {
			data, err := json.Marshal(st.Seen(user))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(user), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStateIO, err, "failed to save state")
	}
	return nil
}

// Close releases the database lock
func (s *BoltStore) Close() error {
	return s.db.Close()
}
