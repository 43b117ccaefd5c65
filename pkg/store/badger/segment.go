package badger

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pagevol/mds/pkg/store"
)

// GetSegment loads the segment stored under (fileID, startOffset).
func (s *Store) GetSegment(fileID uint64, startOffset uint64) (*store.PageFileSegment, store.Status) {
	var seg *store.PageFileSegment
	err := s.db.View(func(txn *badger.Txn) error {
		raw, err := getRaw(txn, keySegment(fileID, startOffset))
		if err != nil {
			return err
		}
		seg, err = decodeSegment(raw)
		return err
	})
	if st := status(err, store.StatusInternalError); st != store.StatusOK {
		return nil, st
	}
	return seg, store.StatusOK
}

// PutSegment writes a segment only if its key is absent. Segment
// descriptors are immutable once written; the compare-and-set is what
// arbitrates concurrent allocators of the same hole.
func (s *Store) PutSegment(seg *store.PageFileSegment) store.Status {
	raw, err := encodeSegment(seg)
	if err != nil {
		return store.StatusInternalError
	}
	key := keySegment(seg.FileID, seg.StartOffset)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return errKeyExist
		case errors.Is(err, badger.ErrKeyNotFound):
		default:
			return err
		}
		return txn.Set(key, raw)
	})
	return mapTxnErr(err, store.StatusKeyExist)
}

// DeleteSegment removes the segment under (fileID, startOffset).
func (s *Store) DeleteSegment(fileID uint64, startOffset uint64) store.Status {
	key := keySegment(fileID, startOffset)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return status(err, store.StatusInternalError)
}

// ListSegments returns every allocated segment of fileID in offset order.
func (s *Store) ListSegments(fileID uint64) ([]*store.PageFileSegment, store.Status) {
	segments := make([]*store.PageFileSegment, 0)
	prefix := keySegmentPrefix(fileID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			seg, err := decodeSegment(raw)
			if err != nil {
				return err
			}
			segments = append(segments, seg)
		}
		return nil
	})
	if st := status(err, store.StatusInternalError); st != store.StatusOK {
		return nil, st
	}
	return segments, store.StatusOK
}
