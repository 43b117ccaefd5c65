package badger

import (
	badger "github.com/dgraph-io/badger/v4"

	"github.com/pagevol/mds/pkg/store"
)

// PutCleanJob durably records a pending snapshot delete. Job records are
// written with an upsert: resubmitting the same job after a crash simply
// refreshes the record.
func (s *Store) PutCleanJob(job *store.CleanJob) store.Status {
	raw, err := encodeCleanJob(job)
	if err != nil {
		return store.StatusInternalError
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyJob(job.JobID), raw)
	})
	return status(err, store.StatusInternalError)
}

// DeleteCleanJob removes a finished job record. Deleting a record that is
// already gone is not an error: a job may complete twice when a crash
// lands between the descriptor delete and the record delete.
func (s *Store) DeleteCleanJob(jobID string) store.Status {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyJob(jobID))
	})
	return status(err, store.StatusInternalError)
}

// ListCleanJobs returns every pending job record.
func (s *Store) ListCleanJobs() ([]*store.CleanJob, store.Status) {
	jobs := make([]*store.CleanJob, 0)
	prefix := keyJobPrefix()
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
			job, err := decodeCleanJob(raw)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	})
	if st := status(err, store.StatusInternalError); st != store.StatusOK {
		return nil, st
	}
	return jobs, store.StatusOK
}
