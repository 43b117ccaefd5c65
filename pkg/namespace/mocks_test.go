package namespace

import (
	"github.com/pagevol/mds/pkg/store"
)

// Function-field mocks of the core's collaborators. Tests install only
// the behaviors they expect; anything else reports a backend failure so
// unexpected calls surface as assertion failures.

type mockStore struct {
	getFile       func(parentID uint64, fileName string) (*store.FileInfo, store.Status)
	putFile       func(fi *store.FileInfo) store.Status
	createFile    func(fi *store.FileInfo) store.Status
	deleteFile    func(parentID uint64, fileName string) store.Status
	listFile      func(parentID uint64) ([]*store.FileInfo, store.Status)
	renameFile    func(oldParentID uint64, oldFileName string, fi *store.FileInfo) store.Status
	snapshotFile  func(source, snapshot *store.FileInfo) store.Status
	getSegment    func(fileID, startOffset uint64) (*store.PageFileSegment, store.Status)
	putSegment    func(seg *store.PageFileSegment) store.Status
	deleteSegment func(fileID, startOffset uint64) store.Status
	listSegments  func(fileID uint64) ([]*store.PageFileSegment, store.Status)
}

func (m *mockStore) GetFile(parentID uint64, fileName string) (*store.FileInfo, store.Status) {
	if m.getFile == nil {
		return nil, store.StatusInternalError
	}
	return m.getFile(parentID, fileName)
}

func (m *mockStore) PutFile(fi *store.FileInfo) store.Status {
	if m.putFile == nil {
		return store.StatusInternalError
	}
	return m.putFile(fi)
}

func (m *mockStore) CreateFile(fi *store.FileInfo) store.Status {
	if m.createFile == nil {
		return store.StatusInternalError
	}
	return m.createFile(fi)
}

func (m *mockStore) DeleteFile(parentID uint64, fileName string) store.Status {
	if m.deleteFile == nil {
		return store.StatusInternalError
	}
	return m.deleteFile(parentID, fileName)
}

func (m *mockStore) ListFile(parentID uint64) ([]*store.FileInfo, store.Status) {
	if m.listFile == nil {
		return nil, store.StatusInternalError
	}
	return m.listFile(parentID)
}

func (m *mockStore) RenameFile(oldParentID uint64, oldFileName string, fi *store.FileInfo) store.Status {
	if m.renameFile == nil {
		return store.StatusInternalError
	}
	return m.renameFile(oldParentID, oldFileName, fi)
}

func (m *mockStore) SnapshotFile(source, snapshot *store.FileInfo) store.Status {
	if m.snapshotFile == nil {
		return store.StatusInternalError
	}
	return m.snapshotFile(source, snapshot)
}

func (m *mockStore) GetSegment(fileID, startOffset uint64) (*store.PageFileSegment, store.Status) {
	if m.getSegment == nil {
		return nil, store.StatusInternalError
	}
	return m.getSegment(fileID, startOffset)
}

func (m *mockStore) PutSegment(seg *store.PageFileSegment) store.Status {
	if m.putSegment == nil {
		return store.StatusInternalError
	}
	return m.putSegment(seg)
}

func (m *mockStore) DeleteSegment(fileID, startOffset uint64) store.Status {
	if m.deleteSegment == nil {
		return store.StatusInternalError
	}
	return m.deleteSegment(fileID, startOffset)
}

func (m *mockStore) ListSegments(fileID uint64) ([]*store.PageFileSegment, store.Status) {
	if m.listSegments == nil {
		return nil, store.StatusInternalError
	}
	return m.listSegments(fileID)
}

func (m *mockStore) PutCleanJob(job *store.CleanJob) store.Status {
	return store.StatusInternalError
}

func (m *mockStore) DeleteCleanJob(jobID string) store.Status {
	return store.StatusInternalError
}

func (m *mockStore) ListCleanJobs() ([]*store.CleanJob, store.Status) {
	return nil, store.StatusInternalError
}

func (m *mockStore) Close() error {
	return nil
}

// getFileSequence installs a scripted series of GetFile results, consumed
// one call at a time. The last result repeats once the script runs out.
func getFileSequence(results ...func() (*store.FileInfo, store.Status)) func(uint64, string) (*store.FileInfo, store.Status) {
	i := 0
	return func(uint64, string) (*store.FileInfo, store.Status) {
		r := results[i]
		if i < len(results)-1 {
			i++
		}
		return r()
	}
}

func fileResult(fi store.FileInfo) func() (*store.FileInfo, store.Status) {
	return func() (*store.FileInfo, store.Status) {
		copied := fi
		return &copied, store.StatusOK
	}
}

func statusResult(st store.Status) func() (*store.FileInfo, store.Status) {
	return func() (*store.FileInfo, store.Status) {
		return nil, st
	}
}

type mockIDGenerator struct {
	genInodeID func() (uint64, bool)
}

func (m *mockIDGenerator) GenInodeID() (uint64, bool) {
	if m.genInodeID == nil {
		return 0, false
	}
	return m.genInodeID()
}

type mockAllocator struct {
	allocate func(fileID uint64, segmentSize, chunkSize uint64, seg *store.PageFileSegment) bool
	reclaim  func(seg *store.PageFileSegment) bool
}

func (m *mockAllocator) AllocateChunkSegment(fileID uint64, segmentSize, chunkSize uint64, seg *store.PageFileSegment) bool {
	if m.allocate == nil {
		return false
	}
	return m.allocate(fileID, segmentSize, chunkSize, seg)
}

func (m *mockAllocator) ReclaimChunkSegment(seg *store.PageFileSegment) bool {
	if m.reclaim == nil {
		return false
	}
	return m.reclaim(seg)
}

type mockCleaner struct {
	submit func(snapshot *store.FileInfo, reply CleanReply) bool
}

func (m *mockCleaner) SubmitDeleteSnapshotJob(snapshot *store.FileInfo, reply CleanReply) bool {
	if m.submit == nil {
		return false
	}
	return m.submit(snapshot, reply)
}

const (
	testMinFileLength = uint64(10 * 1024 * 1024 * 1024)
	testSegmentSize   = uint64(1024 * 1024 * 1024)
	testChunkSize     = uint64(16 * 1024 * 1024)
)

func newTestCore(st store.Store, idGen IDGenerator, allocator ChunkAllocator, cleaner SnapshotCleaner) *Core {
	return NewCore(st, idGen, allocator, cleaner, Limits{
		MinFileLength: testMinFileLength,
		SegmentSize:   testSegmentSize,
		ChunkSize:     testChunkSize,
	})
}

func dirInfo(id uint64) store.FileInfo {
	return store.FileInfo{ID: id, Kind: store.KindDirectory, SeqNum: 1, Status: store.FileCreated}
}

func pageFileInfo(id uint64, name, fullPath string) store.FileInfo {
	return store.FileInfo{
		ID:          id,
		FileName:    name,
		FullPath:    fullPath,
		Kind:        store.KindPageFile,
		Length:      testMinFileLength,
		SegmentSize: testSegmentSize,
		ChunkSize:   testChunkSize,
		SeqNum:      1,
		Status:      store.FileCreated,
	}
}
