package rpc

import (
	"github.com/pagevol/mds/pkg/store"
)

// Wire messages of the namespace service. Field names are the stable wire
// contract; the status code integers are namespace.StatusCode values.

// FileInfo is the wire projection of a file descriptor.
type FileInfo struct {
	ID          uint64 `json:"id"`
	ParentID    uint64 `json:"parentid"`
	FileName    string `json:"filename"`
	FullPath    string `json:"fullpathname"`
	FileType    uint32 `json:"filetype"`
	Length      uint64 `json:"length"`
	SegmentSize uint64 `json:"segmentsize"`
	ChunkSize   uint64 `json:"chunksize"`
	SeqNum      uint64 `json:"seqnum"`
	FileStatus  uint32 `json:"filestatus"`
	Ctime       uint64 `json:"ctime"`
}

// ChunkInfo is the wire projection of one chunk placement.
type ChunkInfo struct {
	ChunkID   uint64 `json:"chunkid"`
	CopysetID uint32 `json:"copysetid"`
}

// PageFileSegment is the wire projection of a segment descriptor.
type PageFileSegment struct {
	FileID        uint64      `json:"fileid"`
	StartOffset   uint64      `json:"startoffset"`
	SegmentSize   uint64      `json:"segmentsize"`
	ChunkSize     uint64      `json:"chunksize"`
	LogicalPoolID uint32      `json:"logicalpoolid"`
	Chunks        []ChunkInfo `json:"chunks"`
}

func fileInfoToWire(fi *store.FileInfo) *FileInfo {
	if fi == nil {
		return nil
	}
	return &FileInfo{
		ID:          fi.ID,
		ParentID:    fi.ParentID,
		FileName:    fi.FileName,
		FullPath:    fi.FullPath,
		FileType:    uint32(fi.Kind),
		Length:      fi.Length,
		SegmentSize: fi.SegmentSize,
		ChunkSize:   fi.ChunkSize,
		SeqNum:      fi.SeqNum,
		FileStatus:  uint32(fi.Status),
		Ctime:       fi.Ctime,
	}
}

func segmentToWire(seg *store.PageFileSegment) *PageFileSegment {
	if seg == nil {
		return nil
	}
	chunks := make([]ChunkInfo, 0, len(seg.Chunks))
	for _, c := range seg.Chunks {
		chunks = append(chunks, ChunkInfo{ChunkID: c.ChunkID, CopysetID: c.CopysetID})
	}
	return &PageFileSegment{
		FileID:        seg.FileID,
		StartOffset:   seg.StartOffset,
		SegmentSize:   seg.SegmentSize,
		ChunkSize:     seg.ChunkSize,
		LogicalPoolID: seg.LogicalPoolID,
		Chunks:        chunks,
	}
}

type CreateFileRequest struct {
	LogID      string `json:"logid"`
	FileName   string `json:"filename"`
	FileType   uint32 `json:"filetype"`
	FileLength uint64 `json:"filelength"`
}

type CreateFileResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type GetFileInfoRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
}

type GetFileInfoResponse struct {
	StatusCode int32     `json:"statuscode"`
	FileInfo   *FileInfo `json:"fileinfo,omitempty"`
}

type DeleteFileRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
}

type DeleteFileResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type ReadDirRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
}

type ReadDirResponse struct {
	StatusCode int32       `json:"statuscode"`
	FileInfos  []*FileInfo `json:"fileinfo,omitempty"`
}

type RenameFileRequest struct {
	LogID       string `json:"logid"`
	OldFileName string `json:"oldfilename"`
	NewFileName string `json:"newfilename"`
}

type RenameFileResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type ExtendFileRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
	NewSize  uint64 `json:"newsize"`
}

type ExtendFileResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type GetOrAllocateSegmentRequest struct {
	LogID              string  `json:"logid"`
	FileName           string  `json:"filename"`
	Offset             uint64  `json:"offset"`
	AllocateIfNotExist bool    `json:"allocateifnotexist"`
	SeqNum             *uint64 `json:"seqnum,omitempty"`
}

type GetOrAllocateSegmentResponse struct {
	StatusCode      int32            `json:"statuscode"`
	PageFileSegment *PageFileSegment `json:"pagefilesegment,omitempty"`
}

type DeleteSegmentRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
	Offset   uint64 `json:"offset"`
}

type DeleteSegmentResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type CreateSnapShotRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
}

type CreateSnapShotResponse struct {
	StatusCode       int32     `json:"statuscode"`
	SnapShotFileInfo *FileInfo `json:"snapshotfileinfo,omitempty"`
}

type ListSnapShotRequest struct {
	LogID    string   `json:"logid"`
	FileName string   `json:"filename"`
	Seq      []uint64 `json:"seq,omitempty"`
}

type ListSnapShotResponse struct {
	StatusCode int32       `json:"statuscode"`
	FileInfos  []*FileInfo `json:"fileinfo,omitempty"`
}

type DeleteSnapShotRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
	Seq      uint64 `json:"seq"`
}

type DeleteSnapShotResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type CheckSnapShotStatusRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
	Seq      uint64 `json:"seq"`
}

type CheckSnapShotStatusResponse struct {
	StatusCode int32 `json:"statuscode"`
}

type GetSnapShotFileSegmentRequest struct {
	LogID    string `json:"logid"`
	FileName string `json:"filename"`
	SeqNum   uint64 `json:"seqnum"`
	Offset   uint64 `json:"offset"`
}

type GetSnapShotFileSegmentResponse struct {
	StatusCode      int32            `json:"statuscode"`
	PageFileSegment *PageFileSegment `json:"pagefilesegment,omitempty"`
}
