// Package cleaner deletes snapshot files asynchronously.
//
// A delete request is durably recorded before it is queued, worked off by
// a fixed pool of workers, and acknowledged through the completion token
// handed over by the namespace core. Job records double as the crash
// journal: ResubmitUnfinishedJobs re-queues whatever a previous process
// left behind, which is what keeps a snapshot marked Deleting from being
// stranded when the process dies mid-delete.
package cleaner

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/namespace"
	"github.com/pagevol/mds/pkg/store"
)

// Reclaimer is the slice of the chunk allocator the cleaner needs: the
// ability to hand chunks back to the data plane.
type Reclaimer interface {
	ReclaimChunkSegment(seg *store.PageFileSegment) bool
}

// Config holds the cleaner's knobs.
type Config struct {
	// Workers is the number of concurrent delete workers.
	Workers int `mapstructure:"workers"`

	// QueueDepth bounds the number of accepted-but-unstarted jobs.
	// Submissions beyond it are refused rather than blocked, because the
	// submitting RPC handler must not stall.
	QueueDepth int `mapstructure:"queue_depth"`
}

type job struct {
	record store.CleanJob
	reply  namespace.CleanReply
}

// Manager implements namespace.SnapshotCleaner.
type Manager struct {
	st        store.Store
	reclaimer Reclaimer

	jobs chan job
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

var _ namespace.SnapshotCleaner = (*Manager)(nil)

// New builds a manager and starts its workers; it accepts submissions
// right away.
func New(st store.Store, reclaimer Reclaimer, cfg Config) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 32
	}
	m := &Manager{
		st:        st,
		reclaimer: reclaimer,
		jobs:      make(chan job, cfg.QueueDepth),
	}
	m.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go m.worker()
	}
	return m
}

// SubmitDeleteSnapshotJob records and queues the delete of a snapshot
// whose descriptor has already been marked FileDeleting. Returns false
// when the durable record cannot be written or the queue is saturated.
// A job refused for a full queue keeps its record, so the next restart
// sweep re-queues it; a failed record write leaves nothing for the sweep
// to find.
func (m *Manager) SubmitDeleteSnapshotJob(snapshot *store.FileInfo, reply namespace.CleanReply) bool {
	record := store.CleanJob{
		JobID:       uuid.NewString(),
		Snapshot:    *snapshot,
		SubmittedAt: uint64(time.Now().UnixMicro()),
	}
	if st := m.st.PutCleanJob(&record); st != store.StatusOK {
		logger.Errorw("clean job record write failed",
			"snapshot", snapshot.FullPath, "status", st)
		return false
	}
	return m.enqueue(job{record: record, reply: reply})
}

// ResubmitUnfinishedJobs re-queues every persisted job record. Call once
// at startup, after the store is open and before serving requests. Reply
// tokens of the original submissions died with the old process, so the
// resumed jobs complete silently.
func (m *Manager) ResubmitUnfinishedJobs() int {
	records, st := m.st.ListCleanJobs()
	if st != store.StatusOK {
		logger.Errorw("clean job recovery scan failed", "status", st)
		return 0
	}
	resubmitted := 0
	for _, record := range records {
		if m.enqueue(job{record: *record, reply: nil}) {
			resubmitted++
		}
	}
	if resubmitted > 0 {
		logger.Infow("resubmitted unfinished snapshot delete jobs", "count", resubmitted)
	}
	return resubmitted
}

// Stop drains the queue and waits for in-flight jobs.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.jobs)
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) enqueue(j job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	select {
	case m.jobs <- j:
		return true
	default:
		logger.Errorw("clean queue saturated", "snapshot", j.record.Snapshot.FullPath)
		return false
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for j := range m.jobs {
		code := m.deleteSnapshot(&j.record.Snapshot)
		if code == namespace.StatusOK {
			if st := m.st.DeleteCleanJob(j.record.JobID); st != store.StatusOK {
				// The snapshot is gone; a stale record only costs one
				// redundant sweep on the next restart.
				logger.Warnw("clean job record delete failed", "job", j.record.JobID)
			}
		}
		if j.reply != nil {
			j.reply.OnComplete(code)
		}
		logger.Infow("snapshot delete finished",
			"snapshot", j.record.Snapshot.FullPath,
			"seq", j.record.Snapshot.SeqNum,
			"statusCode", code)
	}
}

// deleteSnapshot reclaims every allocated segment of the snapshot, then
// removes its descriptor. Failures leave the job record in place so the
// delete is retried on the next restart; segment deletion is idempotent,
// a re-run skips what is already gone.
func (m *Manager) deleteSnapshot(snapshot *store.FileInfo) namespace.StatusCode {
	segments, st := m.st.ListSegments(snapshot.ID)
	if st != store.StatusOK {
		return namespace.StatusStorageError
	}
	for _, seg := range segments {
		m.reclaimer.ReclaimChunkSegment(seg)
		switch m.st.DeleteSegment(seg.FileID, seg.StartOffset) {
		case store.StatusOK, store.StatusKeyNotExist:
		default:
			return namespace.StatusStorageError
		}
	}

	switch m.st.DeleteFile(snapshot.ParentID, snapshot.FileName) {
	case store.StatusOK, store.StatusKeyNotExist:
		return namespace.StatusOK
	default:
		return namespace.StatusStorageError
	}
}
