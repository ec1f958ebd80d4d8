// Package history keeps a journal of link runs in a Badger database.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key prefixes
const (
	prefixRun = "r:" // r:<sortable time>:<id> -> Run
	prefixID  = "i:" // i:<id> -> run key
)

const keyTimeLayout = "20060102T150405.000000000Z"

var (
	// ErrNotFound is returned when no run matches an id.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguous is returned when an id prefix matches several runs.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Run records one successful platform link.
type Run struct {
	ID          string        `json:"id" yaml:"id"`
	Time        time.Time     `json:"time" yaml:"time"`
	Project     string        `json:"project" yaml:"project"`
	Platform    string        `json:"platform" yaml:"platform"`
	Added       []string      `json:"added,omitempty" yaml:"added,omitempty"`
	Removed     []string      `json:"removed,omitempty" yaml:"removed,omitempty"`
	Relinked    []string      `json:"relinked,omitempty" yaml:"relinked,omitempty"`
	Unchanged   int           `json:"unchanged" yaml:"unchanged"`
	BytesCopied int64         `json:"bytes_copied" yaml:"bytes_copied"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Store is the run journal.
type Store struct {
	db *badger.DB
}

// Open opens or creates the journal in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(r *Run) []byte {
	return []byte(prefixRun + r.Time.UTC().Format(keyTimeLayout) + ":" + r.ID)
}

// Record appends run, assigning an id and time when unset.
func (s *Store) Record(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Time.IsZero() {
		run.Time = time.Now()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	key := runKey(run)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(prefixID+run.ID), key)
	})
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(limit int) ([]Run, error) {
	runs := []Run{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks from past the end of the prefix.
		seek := []byte(prefixRun + "\xff")
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var r Run
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			runs = append(runs, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run whose id is id or starts with id.
func (s *Store) Get(id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var run Run
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixID + id)
		it := txn.NewIterator(opts)
		defer it.Close()

		var target []byte
		for it.Rewind(); it.Valid(); it.Next() {
			if target != nil {
				return fmt.Errorf("%w: %s", ErrAmbiguous, id)
			}
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			target = v
			if strings.TrimPrefix(string(it.Item().Key()), prefixID) == id {
				break
			}
		}
		if target == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		item, err := txn.Get(target)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Prune deletes runs recorded before cutoff and returns how many were
// removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	type staleRun struct {
		key []byte
		id  string
	}
	var stale []staleRun
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		limit := prefixRun + cutoff.UTC().Format(keyTimeLayout)
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= limit {
				break
			}
			// The id follows the fixed-width timestamp.
			id := string(key[len(prefixRun)+len(keyTimeLayout)+1:])
			stale = append(stale, staleRun{key: key, id: id})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan runs: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, r := range stale {
		if err := wb.Delete(r.key); err != nil {
			return 0, err
		}
		if err := wb.Delete([]byte(prefixID + r.id)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return len(stale), nil
}
