// Package store defines the typed persistence contract of the namespace
// metadata service: the descriptors that make up the persistent state and
// the Store interface every backend must implement.
//
// The namespace core is stateless; everything it knows about files,
// segments and snapshots lives behind this contract. Backends must provide
// linearizable per-key operations, compare-and-set semantics on create, and
// the two atomic multi-key writes (SnapshotFile, RenameFile).
package store

// FileKind discriminates the entities addressable by path.
type FileKind uint32

const (
	// KindDirectory is a namespace node that contains other files.
	KindDirectory FileKind = iota

	// KindPageFile is a thinly provisioned, random-access block volume.
	KindPageFile

	// KindSnapshotPageFile is a read-only copy-on-write child of a page
	// file, stored as a child entry under its source file.
	KindSnapshotPageFile

	// KindAppendFile is reserved and not implemented.
	KindAppendFile
)

func (k FileKind) String() string {
	switch k {
	case KindDirectory:
		return "Directory"
	case KindPageFile:
		return "PageFile"
	case KindSnapshotPageFile:
		return "SnapshotPageFile"
	case KindAppendFile:
		return "AppendFile"
	default:
		return "Unknown"
	}
}

// FileStatus tracks descriptor lifecycle state. Only snapshot descriptors
// ever observe a state other than FileCreated.
type FileStatus uint32

const (
	// FileCreated is the normal, live state of a descriptor.
	FileCreated FileStatus = iota

	// FileDeleting marks a snapshot handed to the asynchronous cleaner.
	// The marker survives a cleaner crash; the delete resumes on restart
	// when the cleaner holds a job record for it.
	FileDeleting

	// FileCloneMetaInstalled is reserved and not used.
	FileCloneMetaInstalled
)

func (s FileStatus) String() string {
	switch s {
	case FileCreated:
		return "Created"
	case FileDeleting:
		return "Deleting"
	case FileCloneMetaInstalled:
		return "CloneMetaInstalled"
	default:
		return "Unknown"
	}
}

// FileInfo is the descriptor of a namespace entity: a directory, a page
// file, or a snapshot of a page file.
//
// Invariants maintained by the namespace core:
//   - ID is unique process-wide and never changes, not even across renames.
//   - ParentID references an existing directory for every non-root file;
//     for a snapshot it references the source page file instead.
//   - FullPath is always parent.FullPath + "/" + FileName (root is "/").
//   - For a page file, Length > 0, Length is a multiple of SegmentSize and
//     SegmentSize is a multiple of ChunkSize.
//   - SeqNum starts at 1 and increases by one on every snapshot taken.
type FileInfo struct {
	// ID is the inode identifier assigned at creation.
	ID uint64

	// ParentID identifies the containing directory, or the source page
	// file for a snapshot descriptor. Zero for the root directory.
	ParentID uint64

	// FileName is the last path component. Never contains "/".
	FileName string

	// FullPath is the absolute, canonical path of the file.
	FullPath string

	// Kind discriminates directories, page files and snapshots.
	Kind FileKind

	// Length is the logical size in bytes. Zero for directories.
	Length uint64

	// SegmentSize is the allocation granularity in bytes. Power of two.
	SegmentSize uint64

	// ChunkSize is the chunk granularity within a segment. Power of two,
	// divides SegmentSize.
	ChunkSize uint64

	// SeqNum is the snapshot sequence counter. A snapshot descriptor
	// carries the source's sequence number at the time it was taken.
	SeqNum uint64

	// Status is the lifecycle state of the descriptor.
	Status FileStatus

	// Ctime is the creation timestamp in microseconds since the epoch.
	Ctime uint64
}

// ChunkInfo locates one chunk of a segment: the chunk itself and the
// copyset (replication group) hosting it.
type ChunkInfo struct {
	ChunkID   uint64
	CopysetID uint32
}

// PageFileSegment is one allocation unit of a page file. A segment exists
// for (FileID, StartOffset) iff allocation has succeeded; absent offsets
// are unallocated holes.
type PageFileSegment struct {
	// FileID is the owning file's inode id.
	FileID uint64

	// StartOffset is the byte offset within the file. Always a multiple
	// of SegmentSize.
	StartOffset uint64

	// SegmentSize and ChunkSize are copies of the owner's fields taken at
	// allocation time.
	SegmentSize uint64
	ChunkSize   uint64

	// LogicalPoolID is the placement group the chunks were drawn from.
	LogicalPoolID uint32

	// Chunks holds SegmentSize/ChunkSize entries in chunk order.
	Chunks []ChunkInfo
}

// CleanJob is the durable record of a pending snapshot delete. The cleaner
// persists one before queueing work so an interrupted delete can be
// resumed after a restart.
type CleanJob struct {
	// JobID uniquely identifies the job record.
	JobID string

	// Snapshot is the descriptor being deleted, captured at submit time
	// with Status already set to FileDeleting.
	Snapshot FileInfo

	// SubmittedAt is the submission timestamp in microseconds since the
	// epoch.
	SubmittedAt uint64
}
