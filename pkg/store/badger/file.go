package badger

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pagevol/mds/pkg/store"
)

// GetFile loads the descriptor stored under (parentID, fileName).
func (s *Store) GetFile(parentID uint64, fileName string) (*store.FileInfo, store.Status) {
	var fi *store.FileInfo
	err := s.db.View(func(txn *badger.Txn) error {
		raw, err := getRaw(txn, keyFile(parentID, fileName))
		if err != nil {
			return err
		}
		fi, err = decodeFileInfo(raw)
		return err
	})
	if st := status(err, store.StatusInternalError); st != store.StatusOK {
		return nil, st
	}
	return fi, store.StatusOK
}

// PutFile upserts a descriptor under its (ParentID, FileName) key.
func (s *Store) PutFile(fi *store.FileInfo) store.Status {
	raw, err := encodeFileInfo(fi)
	if err != nil {
		return store.StatusInternalError
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyFile(fi.ParentID, fi.FileName), raw)
	})
	return status(err, store.StatusInternalError)
}

// CreateFile writes a descriptor only if its key is absent. The existence
// probe and the write share one serializable transaction, so exactly one
// of two racing creators commits; the other observes StatusKeyExist.
func (s *Store) CreateFile(fi *store.FileInfo) store.Status {
	raw, err := encodeFileInfo(fi)
	if err != nil {
		return store.StatusInternalError
	}
	key := keyFile(fi.ParentID, fi.FileName)
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

// DeleteFile removes the descriptor under (parentID, fileName), reporting
// StatusKeyNotExist when there is nothing to delete.
func (s *Store) DeleteFile(parentID uint64, fileName string) store.Status {
	key := keyFile(parentID, fileName)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return status(err, store.StatusInternalError)
}

// ListFile returns every child descriptor of parentID in key order.
func (s *Store) ListFile(parentID uint64) ([]*store.FileInfo, store.Status) {
	files := make([]*store.FileInfo, 0)
	prefix := keyFilePrefix(parentID)
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
			fi, err := decodeFileInfo(raw)
			if err != nil {
				return err
			}
			files = append(files, fi)
		}
		return nil
	})
	if st := status(err, store.StatusInternalError); st != store.StatusOK {
		return nil, st
	}
	return files, store.StatusOK
}

// RenameFile atomically moves a descriptor to its new key. The source
// must still exist and the destination must be free; both preconditions
// are re-checked inside the transaction so the move cannot clobber a
// concurrent create.
func (s *Store) RenameFile(oldParentID uint64, oldFileName string, fi *store.FileInfo) store.Status {
	raw, err := encodeFileInfo(fi)
	if err != nil {
		return store.StatusInternalError
	}
	oldKey := keyFile(oldParentID, oldFileName)
	newKey := keyFile(fi.ParentID, fi.FileName)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(oldKey); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errKeyNotExist
			}
			return err
		}
		_, err := txn.Get(newKey)
		switch {
		case err == nil:
			return errKeyExist
		case errors.Is(err, badger.ErrKeyNotFound):
		default:
			return err
		}
		if err := txn.Delete(oldKey); err != nil {
			return err
		}
		return txn.Set(newKey, raw)
	})
	return mapTxnErr(err, store.StatusKeyExist)
}

// SnapshotFile writes the snapshot descriptor and the updated source
// descriptor in one transaction: either both land or neither does. The
// stored source must still carry the sequence number just below the
// updated one.
func (s *Store) SnapshotFile(source *store.FileInfo, snapshot *store.FileInfo) store.Status {
	sourceRaw, err := encodeFileInfo(source)
	if err != nil {
		return store.StatusInternalError
	}
	snapshotRaw, err := encodeFileInfo(snapshot)
	if err != nil {
		return store.StatusInternalError
	}
	sourceKey := keyFile(source.ParentID, source.FileName)
	err = s.db.Update(func(txn *badger.Txn) error {
		raw, err := getRaw(txn, sourceKey)
		if err != nil {
			return err
		}
		current, err := decodeFileInfo(raw)
		if err != nil {
			return err
		}
		if current.SeqNum+1 != source.SeqNum {
			return errors.New("source sequence number changed")
		}
		if err := txn.Set(sourceKey, sourceRaw); err != nil {
			return err
		}
		return txn.Set(keyFile(snapshot.ParentID, snapshot.FileName), snapshotRaw)
	})
	// A racing snapshot of the same file either conflicts on the source
	// key read above or finds its sequence number already bumped; both are
	// reported as a backend failure, which the core maps onward.
	return status(err, store.StatusInternalError)
}
