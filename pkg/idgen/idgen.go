// Package idgen assigns unique 64-bit inode identifiers backed by a
// badger sequence, so ids stay unique across restarts without a central
// counter key being rewritten on every allocation.
package idgen

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pagevol/mds/internal/logger"
)

const (
	sequenceKey = "idgen:inode"

	// leaseBandwidth is how many ids a sequence lease reserves at once.
	// Ids inside an unused lease are lost on restart, which is fine:
	// uniqueness is the only contract.
	leaseBandwidth = 1024
)

// Generator hands out inode ids. The zero id is reserved for the root
// directory and never returned.
type Generator struct {
	seq *badger.Sequence
}

// New builds a generator on top of the given database.
func New(db *badger.DB) (*Generator, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), leaseBandwidth)
	if err != nil {
		return nil, fmt.Errorf("failed to open inode sequence: %w", err)
	}
	return &Generator{seq: seq}, nil
}

// GenInodeID returns the next unique inode id. The boolean is false on
// backend failure, which callers surface as a storage error.
func (g *Generator) GenInodeID() (uint64, bool) {
	id, err := g.seq.Next()
	if err != nil {
		logger.Errorf("inode id allocation failed: %v", err)
		return 0, false
	}
	// Sequence values start at zero; shift past the reserved root id.
	return id + 1, true
}

// Release returns the unused remainder of the current lease to the
// sequence. Call on shutdown.
func (g *Generator) Release() error {
	return g.seq.Release()
}
