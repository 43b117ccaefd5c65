package namespace

import (
	"fmt"
	"time"

	"github.com/pagevol/mds/pkg/store"
)

const (
	// RootInodeID is the reserved inode id of the root directory. The id
	// generator never hands it out.
	RootInodeID uint64 = 0

	// RootPath is the canonical full path of the root directory.
	RootPath = "/"
)

// Limits carries the namespace-wide allocation constants. All three are
// configurable at initialization; segment and chunk sizes must be powers
// of two with ChunkSize dividing SegmentSize.
type Limits struct {
	// MinFileLength is the smallest page file that may be created.
	MinFileLength uint64

	// SegmentSize is the allocation granularity stamped on new files.
	SegmentSize uint64

	// ChunkSize is the chunk granularity stamped on new files.
	ChunkSize uint64
}

// Core is the namespace policy engine. It arbitrates file, segment and
// snapshot lifecycle over the persistent store, delegating placement to
// the chunk allocator, id assignment to the generator and snapshot
// reclamation to the cleaner.
//
// Core is stateless apart from the root descriptor computed at
// construction; it contains no locks and is safe for concurrent use as
// long as the store honours its atomicity contract.
type Core struct {
	store     store.Store
	idGen     IDGenerator
	allocator ChunkAllocator
	cleaner   SnapshotCleaner
	limits    Limits
	root      *store.FileInfo
}

// NewCore wires the namespace core to its collaborators and precomputes
// the root descriptor.
func NewCore(st store.Store, idGen IDGenerator, allocator ChunkAllocator, cleaner SnapshotCleaner, limits Limits) *Core {
	return &Core{
		store:     st,
		idGen:     idGen,
		allocator: allocator,
		cleaner:   cleaner,
		limits:    limits,
		root: &store.FileInfo{
			ID:       RootInodeID,
			ParentID: RootInodeID,
			FileName: "",
			FullPath: RootPath,
			Kind:     store.KindDirectory,
			SeqNum:   1,
			Status:   store.FileCreated,
		},
	}
}

// RootFileInfo returns a copy of the precomputed root descriptor.
func (c *Core) RootFileInfo() store.FileInfo {
	return *c.root
}

func nowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// CreateFile creates a directory or page file at path.
//
// Page files must be at least MinFileLength bytes and a whole number of
// segments. The existence probe plus the store's compare-and-set create
// give concurrent creators exactly one winner.
func (c *Core) CreateFile(path string, kind store.FileKind, length uint64) StatusCode {
	switch kind {
	case store.KindPageFile:
		if length < c.limits.MinFileLength {
			return StatusParamError
		}
		if length%c.limits.SegmentSize != 0 {
			return StatusParamError
		}
	case store.KindDirectory:
		if length != 0 {
			return StatusParamError
		}
	default:
		return StatusParamError
	}

	components, code := splitPath(path)
	if code != StatusOK {
		return code
	}
	if len(components) == 0 {
		// Root always exists.
		return StatusFileExists
	}

	parent, lastEntry, code := c.lookupParent(path)
	if code != StatusOK {
		return code
	}

	switch _, status := c.store.GetFile(parent.ID, lastEntry); status {
	case store.StatusOK:
		return StatusFileExists
	case store.StatusKeyNotExist:
	default:
		return StatusStorageError
	}

	id, ok := c.idGen.GenInodeID()
	if !ok {
		return StatusStorageError
	}

	fi := &store.FileInfo{
		ID:       id,
		ParentID: parent.ID,
		FileName: lastEntry,
		FullPath: joinPath(parent.FullPath, lastEntry),
		Kind:     kind,
		Length:   length,
		SeqNum:   1,
		Status:   store.FileCreated,
		Ctime:    nowMicros(),
	}
	if kind == store.KindPageFile {
		fi.SegmentSize = c.limits.SegmentSize
		fi.ChunkSize = c.limits.ChunkSize
	}

	switch c.store.CreateFile(fi) {
	case store.StatusOK:
		return StatusOK
	case store.StatusKeyExist:
		// Lost a concurrent create of the same path.
		return StatusFileExists
	default:
		return StatusStorageError
	}
}

// GetFileInfo resolves path and returns its descriptor.
func (c *Core) GetFileInfo(path string) (*store.FileInfo, StatusCode) {
	return c.lookupFile(path)
}

// DeleteFile removes the descriptor at path. Deleting the root is
// rejected. The core does not pre-check directory emptiness; orphaned
// segments of deleted page files are reclaimed by external sweepers.
func (c *Core) DeleteFile(path string) StatusCode {
	components, code := splitPath(path)
	if code != StatusOK {
		return code
	}
	if len(components) == 0 {
		return StatusParamError
	}

	fi, code := c.lookupFile(path)
	if code != StatusOK {
		return code
	}

	switch c.store.DeleteFile(fi.ParentID, fi.FileName) {
	case store.StatusOK:
		return StatusOK
	case store.StatusKeyNotExist:
		return StatusFileNotExists
	default:
		return StatusStorageError
	}
}

// ReadDir lists the children of the directory at path.
func (c *Core) ReadDir(path string) ([]*store.FileInfo, StatusCode) {
	fi, code := c.lookupFile(path)
	if code == StatusFileNotExists {
		return nil, StatusDirNotExist
	}
	if code != StatusOK {
		return nil, code
	}
	if fi.Kind != store.KindDirectory {
		return nil, StatusNotDirectory
	}

	children, status := c.store.ListFile(fi.ID)
	if status != store.StatusOK {
		return nil, StatusStorageError
	}
	return children, StatusOK
}

// RenameFile moves the file at oldPath to newPath, preserving its inode
// id. The destination key must be free; the store executes the move
// atomically.
func (c *Core) RenameFile(oldPath, newPath string) StatusCode {
	if oldPath == newPath {
		return StatusFileExists
	}

	fi, code := c.lookupFile(oldPath)
	if code != StatusOK {
		return code
	}

	newParent, newEntry, code := c.lookupParent(newPath)
	if code != StatusOK {
		return code
	}

	switch _, status := c.store.GetFile(newParent.ID, newEntry); status {
	case store.StatusOK:
		return StatusFileExists
	case store.StatusKeyNotExist:
	default:
		return StatusStorageError
	}

	oldParentID, oldName := fi.ParentID, fi.FileName
	moved := *fi
	moved.ParentID = newParent.ID
	moved.FileName = newEntry
	moved.FullPath = joinPath(newParent.FullPath, newEntry)

	switch c.store.RenameFile(oldParentID, oldName, &moved) {
	case store.StatusOK:
		return StatusOK
	case store.StatusKeyExist:
		return StatusFileExists
	case store.StatusKeyNotExist:
		return StatusFileNotExists
	default:
		return StatusStorageError
	}
}

// ExtendFile grows the page file at path to newLength bytes. Growth must
// be a whole number of segments; shrinking is rejected and extending to
// the current length is a no-op.
func (c *Core) ExtendFile(path string, newLength uint64) StatusCode {
	fi, code := c.lookupFile(path)
	if code != StatusOK {
		return code
	}

	if fi.Kind != store.KindPageFile {
		return StatusNotSupported
	}

	if newLength < fi.Length {
		return StatusShrinkBiggerFile
	}
	if newLength == fi.Length {
		return StatusOK
	}
	if newLength%fi.SegmentSize != 0 {
		return StatusExtentUnitError
	}

	fi.Length = newLength
	if status := c.store.PutFile(fi); status != store.StatusOK {
		return StatusStorageError
	}
	return StatusOK
}

// checkSegmentParam validates offset against a page file's geometry.
func checkSegmentParam(fi *store.FileInfo, offset uint64) StatusCode {
	if fi.Kind != store.KindPageFile {
		return StatusParamError
	}
	if offset%fi.SegmentSize != 0 {
		return StatusParamError
	}
	if offset+fi.SegmentSize > fi.Length {
		return StatusParamError
	}
	return StatusOK
}

// GetOrAllocateSegment returns the segment of the page file at path
// covering offset. When the segment is a hole and allocateIfMissing is
// set, chunks are allocated and the segment persisted.
//
// Two racing allocators may both reach the chunk allocator; the store's
// compare-and-set on PutSegment picks a single winner. The loser reclaims
// its chunks and re-reads the winning segment, so the caller always
// observes one consistent allocation.
func (c *Core) GetOrAllocateSegment(path string, offset uint64, allocateIfMissing bool) (*store.PageFileSegment, StatusCode) {
	fi, code := c.lookupFile(path)
	if code != StatusOK {
		return nil, code
	}
	if code := checkSegmentParam(fi, offset); code != StatusOK {
		return nil, code
	}

	seg, status := c.store.GetSegment(fi.ID, offset)
	switch status {
	case store.StatusOK:
		return seg, StatusOK
	case store.StatusKeyNotExist:
	default:
		return nil, StatusStorageError
	}

	if !allocateIfMissing {
		return nil, StatusSegmentNotAllocated
	}

	newSeg := &store.PageFileSegment{
		FileID:      fi.ID,
		StartOffset: offset,
		SegmentSize: fi.SegmentSize,
		ChunkSize:   fi.ChunkSize,
	}
	if !c.allocator.AllocateChunkSegment(fi.ID, fi.SegmentSize, fi.ChunkSize, newSeg) {
		return nil, StatusSegmentAllocateError
	}

	switch c.store.PutSegment(newSeg) {
	case store.StatusOK:
		return newSeg, StatusOK
	case store.StatusKeyExist:
		// Lost the allocation race. Hand the chunks back and return the
		// winner's segment.
		c.allocator.ReclaimChunkSegment(newSeg)
		winner, status := c.store.GetSegment(fi.ID, offset)
		if status != store.StatusOK {
			return nil, StatusStorageError
		}
		return winner, StatusOK
	default:
		return nil, StatusStorageError
	}
}

// DeleteSegment removes the allocated segment of the page file at path
// covering offset. Chunk reclamation on live files is the data plane's
// business, not this core's.
func (c *Core) DeleteSegment(path string, offset uint64) StatusCode {
	fi, code := c.lookupFile(path)
	if code != StatusOK {
		return code
	}
	if code := checkSegmentParam(fi, offset); code != StatusOK {
		return code
	}

	switch _, status := c.store.GetSegment(fi.ID, offset); status {
	case store.StatusOK:
	case store.StatusKeyNotExist:
		return StatusSegmentNotAllocated
	default:
		return StatusStorageError
	}

	if status := c.store.DeleteSegment(fi.ID, offset); status != store.StatusOK {
		return StatusStorageError
	}
	return StatusOK
}

// CreateSnapshot takes a point-in-time snapshot of the page file at path.
//
// At most one active snapshot may exist per file: a second request is
// rejected with StatusFileUnderSnapshot until the first is deleted. The
// snapshot descriptor and the source's bumped sequence number are written
// through one atomic store operation, so racing snapshotters cannot both
// claim the same sequence number.
func (c *Core) CreateSnapshot(path string) (*store.FileInfo, StatusCode) {
	source, code := c.lookupFile(path)
	if code != StatusOK {
		return nil, code
	}
	if source.Kind != store.KindPageFile {
		return nil, StatusNotSupported
	}

	children, status := c.store.ListFile(source.ID)
	if status != store.StatusOK {
		return nil, StatusStorageError
	}
	for _, child := range children {
		if child.Status != store.FileDeleting {
			return nil, StatusFileUnderSnapshot
		}
	}

	id, ok := c.idGen.GenInodeID()
	if !ok {
		return nil, StatusStorageError
	}

	snapName := fmt.Sprintf("%s-%d", source.FileName, source.SeqNum)
	snapshot := &store.FileInfo{
		ID:          id,
		ParentID:    source.ID,
		FileName:    snapName,
		FullPath:    joinPath(source.FullPath, snapName),
		Kind:        store.KindSnapshotPageFile,
		Length:      source.Length,
		SegmentSize: source.SegmentSize,
		ChunkSize:   source.ChunkSize,
		SeqNum:      source.SeqNum,
		Status:      store.FileCreated,
		Ctime:       nowMicros(),
	}

	updated := *source
	updated.SeqNum++

	if status := c.store.SnapshotFile(&updated, snapshot); status != store.StatusOK {
		return nil, StatusStorageError
	}
	return snapshot, StatusOK
}

// ListSnapshot enumerates the snapshot children of the page file at path.
func (c *Core) ListSnapshot(path string) ([]*store.FileInfo, StatusCode) {
	source, code := c.lookupFile(path)
	if code != StatusOK {
		return nil, code
	}
	if source.Kind != store.KindPageFile {
		return nil, StatusNotSupported
	}

	snapshots, status := c.store.ListFile(source.ID)
	if status != store.StatusOK {
		return nil, StatusStorageError
	}
	return snapshots, StatusOK
}

// GetSnapshotFileInfo locates the snapshot of path carrying seq.
func (c *Core) GetSnapshotFileInfo(path string, seq uint64) (*store.FileInfo, StatusCode) {
	snapshots, code := c.ListSnapshot(path)
	if code != StatusOK {
		return nil, code
	}
	for _, snapshot := range snapshots {
		if snapshot.SeqNum == seq {
			return snapshot, StatusOK
		}
	}
	return nil, StatusSnapshotFileNotExists
}

// GetSnapshotFileSegment returns the chunk mapping of one segment of the
// snapshot of path carrying seq. Offsets are validated against the
// snapshot's own geometry; holes report StatusSegmentNotAllocated.
func (c *Core) GetSnapshotFileSegment(path string, seq uint64, offset uint64) (*store.PageFileSegment, StatusCode) {
	snapshot, code := c.GetSnapshotFileInfo(path, seq)
	if code != StatusOK {
		return nil, code
	}

	if offset%snapshot.SegmentSize != 0 {
		return nil, StatusParamError
	}
	if offset+snapshot.SegmentSize > snapshot.Length {
		return nil, StatusParamError
	}

	seg, status := c.store.GetSegment(snapshot.ID, offset)
	switch status {
	case store.StatusOK:
		return seg, StatusOK
	case store.StatusKeyNotExist:
		return nil, StatusSegmentNotAllocated
	default:
		return nil, StatusStorageError
	}
}

// DeleteFileSnapshot marks the snapshot of path carrying seq as deleting
// and hands it to the asynchronous cleaner together with the reply token.
//
// A successful return only means the job was accepted; the caller learns
// the final status through the reply. If the cleaner refuses the job the
// FileDeleting marker is left in place on purpose: the core does not roll
// it back, and resuming the delete is left to the cleaner.
func (c *Core) DeleteFileSnapshot(path string, seq uint64, reply CleanReply) StatusCode {
	snapshot, code := c.GetSnapshotFileInfo(path, seq)
	if code != StatusOK {
		return code
	}

	if snapshot.Status == store.FileDeleting {
		return StatusSnapshotDeleting
	}
	if snapshot.Kind != store.KindSnapshotPageFile {
		// A snapshot child with any other kind is a corrupt descriptor.
		return StatusInternalError
	}

	snapshot.Status = store.FileDeleting
	if status := c.store.PutFile(snapshot); status != store.StatusOK {
		return StatusInternalError
	}

	if !c.cleaner.SubmitDeleteSnapshotJob(snapshot, reply) {
		return StatusInternalError
	}
	return StatusOK
}

// CheckSnapshotStatus is reserved for future progress polling.
func (c *Core) CheckSnapshotStatus(path string, seq uint64) StatusCode {
	return StatusNotSupported
}

// joinPath appends a component to a canonical directory path.
func joinPath(dir, name string) string {
	if dir == RootPath {
		return RootPath + name
	}
	return dir + "/" + name
}
