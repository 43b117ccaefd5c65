package namespace

import (
	"github.com/pagevol/mds/pkg/store"
)

// IDGenerator hands out unique 64-bit inode identifiers. The boolean
// reports failure; the core surfaces it as StatusStorageError.
type IDGenerator interface {
	GenInodeID() (uint64, bool)
}

// ChunkAllocator produces chunk placement for new segments. It is opaque
// placement policy: given the owning file and the segment geometry it
// fills seg with LogicalPoolID and SegmentSize/ChunkSize chunks.
//
// ReclaimChunkSegment takes back the chunks of a segment whose store write
// lost a concurrent-allocation race, so they are not leaked.
type ChunkAllocator interface {
	AllocateChunkSegment(fileID uint64, segmentSize, chunkSize uint64, seg *store.PageFileSegment) bool
	ReclaimChunkSegment(seg *store.PageFileSegment) bool
}

// CleanReply is the completion token handed through the core to the
// snapshot cleaner. The cleaner invokes it exactly once with the final
// status of the delete; double invocation is a fatal bug in the cleaner.
type CleanReply interface {
	OnComplete(code StatusCode)
}

// SnapshotCleaner accepts asynchronous snapshot delete jobs. A successful
// submit transfers ownership of the reply token to the cleaner; the core
// never touches it again. Submission failure is terminal for the request,
// and the core deliberately leaves the FileDeleting marker in place so the
// cleaner can re-pick the job after a restart.
type SnapshotCleaner interface {
	SubmitDeleteSnapshotJob(snapshot *store.FileInfo, reply CleanReply) bool
}
