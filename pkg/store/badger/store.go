// Package badger implements the namespace store contract on BadgerDB, a
// pure-Go embedded LSM key-value store.
//
// Badger's serializable transactions carry the whole synchronization
// burden the namespace core delegates downward: compare-and-set creates
// are a get-then-set inside one transaction, and the two multi-key
// operations (SnapshotFile, RenameFile) commit all-or-nothing. Concurrent
// conflicting transactions surface as badger.ErrConflict and are reported
// as a create conflict on the create paths.
package badger

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/store"
)

// Config holds the knobs of the badger-backed store.
type Config struct {
	// Path is the directory badger keeps its value log and LSM tree in.
	Path string `mapstructure:"path"`

	// InMemory runs the store without touching disk. Used by tests.
	InMemory bool `mapstructure:"in_memory"`
}

// Store implements store.Store on a badger database.
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// New opens the database at cfg.Path and returns the store.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Metadata values are tiny; compression buys nothing here.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying database for collaborators that need badger
// primitives of their own, such as the sequence-backed id generator.
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger: %w", err)
	}
	return nil
}

// getRaw loads and copies one value inside txn.
func getRaw(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// status maps a badger error onto the store error surface. conflictIs
// names the status reported for badger.ErrConflict: create-style
// operations report the conflict as StatusKeyExist, everything else as a
// backend failure.
func status(err error, conflictIs store.Status) store.Status {
	switch {
	case err == nil:
		return store.StatusOK
	case errors.Is(err, badger.ErrKeyNotFound):
		return store.StatusKeyNotExist
	case errors.Is(err, badger.ErrConflict):
		return conflictIs
	default:
		logger.Errorf("badger store error: %v", err)
		return store.StatusInternalError
	}
}

// errKeyExist marks a compare-and-set failure inside a transaction. It is
// translated to StatusKeyExist and never escapes the store.
var errKeyExist = errors.New("key already exists")

// errKeyNotExist marks a missing precondition key inside a transaction.
var errKeyNotExist = errors.New("key not found")

func mapTxnErr(err error, conflictIs store.Status) store.Status {
	switch {
	case errors.Is(err, errKeyExist):
		return store.StatusKeyExist
	case errors.Is(err, errKeyNotExist):
		return store.StatusKeyNotExist
	default:
		return status(err, conflictIs)
	}
}
