package store

// Status is the complete error surface of a Store. Every operation reports
// exactly one of these; absence of a key and backend failure are always
// distinguishable.
type Status int

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = iota

	// StatusKeyNotExist means the addressed key is absent.
	StatusKeyNotExist

	// StatusKeyExist means a create-style operation found the key already
	// present. This is the compare-and-set conflict signal.
	StatusKeyExist

	// StatusInternalError means the backend failed. The write may or may
	// not have been applied; callers must not retry blindly.
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusKeyNotExist:
		return "KeyNotExist"
	case StatusKeyExist:
		return "KeyExist"
	case StatusInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Store is the persistence contract of the namespace core. It presents
// typed tables over a single ordered key-value namespace:
//
//	Files     (ParentID, FileName)    -> FileInfo
//	Segments  (FileID, StartOffset)   -> PageFileSegment
//	CleanJobs JobID                   -> CleanJob
//
// Snapshots are listed as Files with ParentID equal to the source file id.
//
// Required semantics:
//   - Single-key operations are linearizable.
//   - CreateFile and PutSegment are compare-and-set creates: they fail
//     with StatusKeyExist instead of overwriting.
//   - SnapshotFile and RenameFile are atomic across the keys they touch.
//   - ListFile returns entries in key order; no further ordering is
//     guaranteed.
type Store interface {
	// GetFile loads the descriptor stored under (parentID, fileName).
	GetFile(parentID uint64, fileName string) (*FileInfo, Status)

	// PutFile upserts a descriptor under (ParentID, FileName).
	PutFile(fi *FileInfo) Status

	// CreateFile writes a descriptor only if the key is absent, failing
	// with StatusKeyExist otherwise.
	CreateFile(fi *FileInfo) Status

	// DeleteFile removes the descriptor under (parentID, fileName).
	DeleteFile(parentID uint64, fileName string) Status

	// ListFile returns every descriptor whose ParentID matches, in key
	// order. Used both for directory listing and snapshot enumeration.
	// An empty directory yields an empty slice and StatusOK.
	ListFile(parentID uint64) ([]*FileInfo, Status)

	// RenameFile atomically removes (oldParentID, oldFileName) and writes
	// the given descriptor under its new key. Fails with StatusKeyExist
	// if the destination key is present and with StatusKeyNotExist if the
	// source is gone.
	RenameFile(oldParentID uint64, oldFileName string, fi *FileInfo) Status

	// SnapshotFile atomically writes the snapshot descriptor and the
	// updated source descriptor (with its bumped SeqNum), all or nothing.
	SnapshotFile(source *FileInfo, snapshot *FileInfo) Status

	// GetSegment loads the segment stored under (fileID, startOffset).
	GetSegment(fileID uint64, startOffset uint64) (*PageFileSegment, Status)

	// PutSegment writes a segment only if the key is absent, failing with
	// StatusKeyExist otherwise. Segment descriptors are immutable once
	// written, so there is no upsert form.
	PutSegment(seg *PageFileSegment) Status

	// DeleteSegment removes the segment under (fileID, startOffset).
	DeleteSegment(fileID uint64, startOffset uint64) Status

	// ListSegments returns every allocated segment of the file in
	// StartOffset order. Used by the snapshot cleaner.
	ListSegments(fileID uint64) ([]*PageFileSegment, Status)

	// PutCleanJob durably records a pending snapshot delete.
	PutCleanJob(job *CleanJob) Status

	// DeleteCleanJob removes a finished job record.
	DeleteCleanJob(jobID string) Status

	// ListCleanJobs returns every pending job record. Used at startup to
	// resume deletes interrupted by a crash.
	ListCleanJobs() ([]*CleanJob, Status)

	// Close releases the backend.
	Close() error
}
