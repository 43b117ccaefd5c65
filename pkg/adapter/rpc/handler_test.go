package rpc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevol/mds/pkg/alloc"
	"github.com/pagevol/mds/pkg/cleaner"
	"github.com/pagevol/mds/pkg/idgen"
	"github.com/pagevol/mds/pkg/namespace"
	storebadger "github.com/pagevol/mds/pkg/store/badger"
)

const (
	minFileLength = uint64(10 << 30)
	segmentSize   = uint64(1 << 30)
	chunkSize     = uint64(16 << 20)
)

// newTestHandler assembles a handler over a real in-memory store, so the
// wire surface is exercised end to end.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	st, err := storebadger.New(storebadger.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	idGen, err := idgen.New(st.DB())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idGen.Release())
	})

	allocator := alloc.NewRoundRobin(alloc.Pool{PoolID: 1, Copysets: []uint32{1, 2, 3}})
	cleanManager := cleaner.New(st, allocator, cleaner.Config{Workers: 1, QueueDepth: 4})
	t.Cleanup(cleanManager.Stop)

	core := namespace.NewCore(st, idGen, allocator, cleanManager, namespace.Limits{
		MinFileLength: minFileLength,
		SegmentSize:   segmentSize,
		ChunkSize:     chunkSize,
	})
	return NewHandler(core, nil)
}

func okCode(t *testing.T, got int32) {
	t.Helper()
	require.Equal(t, namespace.StatusOK.WireCode(), got)
}

func TestCreateAndGetFileInfo(t *testing.T) {
	h := newTestHandler(t)

	resp := h.CreateFile(&CreateFileRequest{
		LogID:      "t1",
		FileName:   "/vol1",
		FileType:   uint32(1),
		FileLength: minFileLength,
	})
	okCode(t, resp.StatusCode)

	// A second create of the same path must be refused.
	dup := h.CreateFile(&CreateFileRequest{
		LogID:      "t1",
		FileName:   "/vol1",
		FileType:   uint32(1),
		FileLength: minFileLength,
	})
	assert.Equal(t, namespace.StatusFileExists.WireCode(), dup.StatusCode)

	info := h.GetFileInfo(&GetFileInfoRequest{LogID: "t1", FileName: "/vol1"})
	okCode(t, info.StatusCode)
	require.NotNil(t, info.FileInfo)
	assert.Equal(t, "vol1", info.FileInfo.FileName)
	assert.Equal(t, "/vol1", info.FileInfo.FullPath)
	assert.Equal(t, minFileLength, info.FileInfo.Length)
	assert.Equal(t, uint64(1), info.FileInfo.SeqNum)
}

func TestCreateFileBelowMinimum(t *testing.T) {
	h := newTestHandler(t)

	resp := h.CreateFile(&CreateFileRequest{
		LogID:      "t2",
		FileName:   "/vol1",
		FileType:   uint32(1),
		FileLength: minFileLength - 1,
	})
	assert.Equal(t, namespace.StatusParamError.WireCode(), resp.StatusCode)
}

func TestSegmentLifecycle(t *testing.T) {
	h := newTestHandler(t)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t3", FileName: "/vol1", FileType: 1, FileLength: minFileLength,
	}).StatusCode)

	// A hole without allocation.
	resp := h.GetOrAllocateSegment(&GetOrAllocateSegmentRequest{
		LogID: "t3", FileName: "/vol1", Offset: 0,
	})
	assert.Equal(t, namespace.StatusSegmentNotAllocated.WireCode(), resp.StatusCode)

	// Allocate, then read back the same bytes.
	allocated := h.GetOrAllocateSegment(&GetOrAllocateSegmentRequest{
		LogID: "t3", FileName: "/vol1", Offset: 0, AllocateIfNotExist: true,
	})
	okCode(t, allocated.StatusCode)
	require.NotNil(t, allocated.PageFileSegment)
	assert.Len(t, allocated.PageFileSegment.Chunks, int(segmentSize/chunkSize))

	read := h.GetOrAllocateSegment(&GetOrAllocateSegmentRequest{
		LogID: "t3", FileName: "/vol1", Offset: 0,
	})
	okCode(t, read.StatusCode)
	assert.Equal(t, allocated.PageFileSegment, read.PageFileSegment)

	okCode(t, h.DeleteSegment(&DeleteSegmentRequest{
		LogID: "t3", FileName: "/vol1", Offset: 0,
	}).StatusCode)
	assert.Equal(t, namespace.StatusSegmentNotAllocated.WireCode(),
		h.DeleteSegment(&DeleteSegmentRequest{
			LogID: "t3", FileName: "/vol1", Offset: 0,
		}).StatusCode)
}

func TestSnapshotLifecycle(t *testing.T) {
	h := newTestHandler(t)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t4", FileName: "/vol1", FileType: 1, FileLength: minFileLength,
	}).StatusCode)
	okCode(t, h.GetOrAllocateSegment(&GetOrAllocateSegmentRequest{
		LogID: "t4", FileName: "/vol1", Offset: 0, AllocateIfNotExist: true,
	}).StatusCode)

	created := h.CreateSnapShot(&CreateSnapShotRequest{LogID: "t4", FileName: "/vol1"})
	okCode(t, created.StatusCode)
	require.NotNil(t, created.SnapShotFileInfo)
	assert.Equal(t, "vol1-1", created.SnapShotFileInfo.FileName)
	assert.Equal(t, "/vol1/vol1-1", created.SnapShotFileInfo.FullPath)
	assert.Equal(t, uint64(1), created.SnapShotFileInfo.SeqNum)

	// The source sequence number advanced.
	info := h.GetFileInfo(&GetFileInfoRequest{LogID: "t4", FileName: "/vol1"})
	okCode(t, info.StatusCode)
	assert.Equal(t, uint64(2), info.FileInfo.SeqNum)

	// Only one active snapshot at a time.
	second := h.CreateSnapShot(&CreateSnapShotRequest{LogID: "t4", FileName: "/vol1"})
	assert.Equal(t, namespace.StatusFileUnderSnapshot.WireCode(), second.StatusCode)

	list := h.ListSnapShot(&ListSnapShotRequest{LogID: "t4", FileName: "/vol1"})
	okCode(t, list.StatusCode)
	require.Len(t, list.FileInfos, 1)

	// The filtered form drops unknown sequence numbers.
	filtered := h.ListSnapShot(&ListSnapShotRequest{LogID: "t4", FileName: "/vol1", Seq: []uint64{9, 1}})
	okCode(t, filtered.StatusCode)
	require.Len(t, filtered.FileInfos, 1)
	assert.Equal(t, uint64(1), filtered.FileInfos[0].SeqNum)

	// CheckSnapShotStatus is reserved.
	assert.Equal(t, namespace.StatusNotSupported.WireCode(),
		h.CheckSnapShotStatus(&CheckSnapShotStatusRequest{
			LogID: "t4", FileName: "/vol1", Seq: 1,
		}).StatusCode)

	// Delete blocks until the cleaner finishes, then the snapshot is gone.
	deleted := h.DeleteSnapShot(&DeleteSnapShotRequest{LogID: "t4", FileName: "/vol1", Seq: 1})
	okCode(t, deleted.StatusCode)

	gone := h.ListSnapShot(&ListSnapShotRequest{LogID: "t4", FileName: "/vol1"})
	okCode(t, gone.StatusCode)
	assert.Empty(t, gone.FileInfos)

	// A fresh snapshot now claims the advanced sequence number.
	again := h.CreateSnapShot(&CreateSnapShotRequest{LogID: "t4", FileName: "/vol1"})
	okCode(t, again.StatusCode)
	assert.Equal(t, uint64(2), again.SnapShotFileInfo.SeqNum)
}

func TestSnapshotSegmentRead(t *testing.T) {
	h := newTestHandler(t)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t5", FileName: "/vol1", FileType: 1, FileLength: minFileLength,
	}).StatusCode)
	okCode(t, h.CreateSnapShot(&CreateSnapShotRequest{LogID: "t5", FileName: "/vol1"}).StatusCode)

	// The snapshot starts with no copied-over segments.
	resp := h.GetSnapShotFileSegment(&GetSnapShotFileSegmentRequest{
		LogID: "t5", FileName: "/vol1", SeqNum: 1, Offset: 0,
	})
	assert.Equal(t, namespace.StatusSegmentNotAllocated.WireCode(), resp.StatusCode)

	missing := h.GetSnapShotFileSegment(&GetSnapShotFileSegmentRequest{
		LogID: "t5", FileName: "/vol1", SeqNum: 7, Offset: 0,
	})
	assert.Equal(t, namespace.StatusSnapshotFileNotExists.WireCode(), missing.StatusCode)
}

func TestRenameAndExtend(t *testing.T) {
	h := newTestHandler(t)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t6", FileName: "/dir1", FileType: 0,
	}).StatusCode)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t6", FileName: "/vol1", FileType: 1, FileLength: minFileLength,
	}).StatusCode)

	assert.Equal(t, namespace.StatusFileExists.WireCode(),
		h.RenameFile(&RenameFileRequest{
			LogID: "t6", OldFileName: "/vol1", NewFileName: "/vol1",
		}).StatusCode)

	okCode(t, h.RenameFile(&RenameFileRequest{
		LogID: "t6", OldFileName: "/vol1", NewFileName: "/dir1/vol1",
	}).StatusCode)

	moved := h.GetFileInfo(&GetFileInfoRequest{LogID: "t6", FileName: "/dir1/vol1"})
	okCode(t, moved.StatusCode)
	assert.Equal(t, "/dir1/vol1", moved.FileInfo.FullPath)

	okCode(t, h.ExtendFile(&ExtendFileRequest{
		LogID: "t6", FileName: "/dir1/vol1", NewSize: 2 * minFileLength,
	}).StatusCode)
	assert.Equal(t, namespace.StatusShrinkBiggerFile.WireCode(),
		h.ExtendFile(&ExtendFileRequest{
			LogID: "t6", FileName: "/dir1/vol1", NewSize: minFileLength,
		}).StatusCode)

	dir := h.ReadDir(&ReadDirRequest{LogID: "t6", FileName: "/dir1"})
	okCode(t, dir.StatusCode)
	require.Len(t, dir.FileInfos, 1)
	assert.Equal(t, "vol1", dir.FileInfos[0].FileName)

	assert.Equal(t, namespace.StatusParamError.WireCode(),
		h.DeleteFile(&DeleteFileRequest{LogID: "t6", FileName: "/"}).StatusCode)
}

func TestSegmentBoundaryOffsets(t *testing.T) {
	h := newTestHandler(t)
	okCode(t, h.CreateFile(&CreateFileRequest{
		LogID: "t7", FileName: "/vol1", FileType: 1, FileLength: minFileLength,
	}).StatusCode)

	cases := []struct {
		offset uint64
		want   int32
	}{
		{offset: minFileLength - segmentSize, want: namespace.StatusOK.WireCode()},
		{offset: minFileLength, want: namespace.StatusParamError.WireCode()},
		{offset: segmentSize + 1, want: namespace.StatusParamError.WireCode()},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("offset=%d", tc.offset), func(t *testing.T) {
			resp := h.GetOrAllocateSegment(&GetOrAllocateSegmentRequest{
				LogID: "t7", FileName: "/vol1", Offset: tc.offset, AllocateIfNotExist: true,
			})
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
