// Package rpc translates wire requests into namespace core calls.
//
// Every handler scopes a request logger to the caller-provided logid and
// operation name, logs the exchange at INFO on success and ERROR on
// failure, maps the core's status code onto the wire exactly once, and
// answers exactly once on every exit path. The snapshot-delete handler is
// the asymmetric one: its reply token is handed off to the cleaner and
// fires when the background delete ends.
package rpc

import (
	"sync"
	"time"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/metrics"
	"github.com/pagevol/mds/pkg/namespace"
	"github.com/pagevol/mds/pkg/store"
)

// Handler dispatches wire requests to the namespace core.
type Handler struct {
	core *namespace.Core
	rpc  *metrics.RPC
}

// NewHandler wires the handler to the shared core. metrics may be nil.
func NewHandler(core *namespace.Core, rpc *metrics.RPC) *Handler {
	return &Handler{core: core, rpc: rpc}
}

func (h *Handler) observe(method string, code namespace.StatusCode, started time.Time) {
	if h.rpc != nil {
		h.rpc.Observe(method, code.String(), time.Since(started))
	}
}

// CreateFile handles the CreateFile RPC.
func (h *Handler) CreateFile(req *CreateFileRequest) *CreateFileResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "CreateFile")
	log.Received("filename", req.FileName, "filetype", req.FileType, "filelength", req.FileLength)

	code := h.core.CreateFile(req.FileName, store.FileKind(req.FileType), req.FileLength)
	h.observe("CreateFile", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
	} else {
		log.OK("filename", req.FileName)
	}
	return &CreateFileResponse{StatusCode: code.WireCode()}
}

// GetFileInfo handles the GetFileInfo RPC.
func (h *Handler) GetFileInfo(req *GetFileInfoRequest) *GetFileInfoResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "GetFileInfo")
	log.Received("filename", req.FileName)

	fi, code := h.core.GetFileInfo(req.FileName)
	h.observe("GetFileInfo", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
		return &GetFileInfoResponse{StatusCode: code.WireCode()}
	}
	log.OK("filename", req.FileName)
	return &GetFileInfoResponse{StatusCode: code.WireCode(), FileInfo: fileInfoToWire(fi)}
}

// DeleteFile handles the DeleteFile RPC.
func (h *Handler) DeleteFile(req *DeleteFileRequest) *DeleteFileResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "DeleteFile")
	log.Received("filename", req.FileName)

	code := h.core.DeleteFile(req.FileName)
	h.observe("DeleteFile", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
	} else {
		log.OK("filename", req.FileName)
	}
	return &DeleteFileResponse{StatusCode: code.WireCode()}
}

// ReadDir handles the ReadDir RPC.
func (h *Handler) ReadDir(req *ReadDirRequest) *ReadDirResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "ReadDir")
	log.Received("filename", req.FileName)

	children, code := h.core.ReadDir(req.FileName)
	h.observe("ReadDir", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
		return &ReadDirResponse{StatusCode: code.WireCode()}
	}
	infos := make([]*FileInfo, 0, len(children))
	for _, child := range children {
		infos = append(infos, fileInfoToWire(child))
	}
	log.OK("filename", req.FileName, "entries", len(infos))
	return &ReadDirResponse{StatusCode: code.WireCode(), FileInfos: infos}
}

// RenameFile handles the RenameFile RPC.
func (h *Handler) RenameFile(req *RenameFileRequest) *RenameFileResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "RenameFile")
	log.Received("oldfilename", req.OldFileName, "newfilename", req.NewFileName)

	code := h.core.RenameFile(req.OldFileName, req.NewFileName)
	h.observe("RenameFile", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "oldfilename", req.OldFileName, "newfilename", req.NewFileName)
	} else {
		log.OK("oldfilename", req.OldFileName, "newfilename", req.NewFileName)
	}
	return &RenameFileResponse{StatusCode: code.WireCode()}
}

// ExtendFile handles the ExtendFile RPC.
func (h *Handler) ExtendFile(req *ExtendFileRequest) *ExtendFileResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "ExtendFile")
	log.Received("filename", req.FileName, "newsize", req.NewSize)

	code := h.core.ExtendFile(req.FileName, req.NewSize)
	h.observe("ExtendFile", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName, "newsize", req.NewSize)
	} else {
		log.OK("filename", req.FileName, "newsize", req.NewSize)
	}
	return &ExtendFileResponse{StatusCode: code.WireCode()}
}

// GetOrAllocateSegment handles the GetOrAllocateSegment RPC.
func (h *Handler) GetOrAllocateSegment(req *GetOrAllocateSegmentRequest) *GetOrAllocateSegmentResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "GetOrAllocateSegment")
	log.Received("filename", req.FileName, "offset", req.Offset, "allocate", req.AllocateIfNotExist)

	seg, code := h.core.GetOrAllocateSegment(req.FileName, req.Offset, req.AllocateIfNotExist)
	h.observe("GetOrAllocateSegment", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName, "offset", req.Offset, "allocate", req.AllocateIfNotExist)
		return &GetOrAllocateSegmentResponse{StatusCode: code.WireCode()}
	}
	log.OK("filename", req.FileName, "offset", req.Offset, "allocate", req.AllocateIfNotExist)
	return &GetOrAllocateSegmentResponse{StatusCode: code.WireCode(), PageFileSegment: segmentToWire(seg)}
}

// DeleteSegment handles the DeleteSegment RPC.
func (h *Handler) DeleteSegment(req *DeleteSegmentRequest) *DeleteSegmentResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "DeleteSegment")
	log.Received("filename", req.FileName, "offset", req.Offset)

	code := h.core.DeleteSegment(req.FileName, req.Offset)
	h.observe("DeleteSegment", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName, "offset", req.Offset)
	} else {
		log.OK("filename", req.FileName, "offset", req.Offset)
	}
	return &DeleteSegmentResponse{StatusCode: code.WireCode()}
}

// CreateSnapShot handles the CreateSnapShot RPC.
func (h *Handler) CreateSnapShot(req *CreateSnapShotRequest) *CreateSnapShotResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "CreateSnapShot")
	log.Received("filename", req.FileName)

	snapshot, code := h.core.CreateSnapshot(req.FileName)
	h.observe("CreateSnapShot", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
		return &CreateSnapShotResponse{StatusCode: code.WireCode()}
	}
	log.OK("filename", req.FileName, "seq", snapshot.SeqNum)
	return &CreateSnapShotResponse{StatusCode: code.WireCode(), SnapShotFileInfo: fileInfoToWire(snapshot)}
}

// ListSnapShot handles the ListSnapShot RPC. When the request names
// sequence numbers the response is filtered down to them, preserving
// request order; otherwise every snapshot child is returned.
func (h *Handler) ListSnapShot(req *ListSnapShotRequest) *ListSnapShotResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "ListSnapShot")
	log.Received("filename", req.FileName)

	snapshots, code := h.core.ListSnapshot(req.FileName)
	h.observe("ListSnapShot", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName)
		return &ListSnapShotResponse{StatusCode: code.WireCode()}
	}

	var infos []*FileInfo
	if len(req.Seq) == 0 {
		infos = make([]*FileInfo, 0, len(snapshots))
		for _, snapshot := range snapshots {
			infos = append(infos, fileInfoToWire(snapshot))
		}
	} else {
		infos = make([]*FileInfo, 0, len(req.Seq))
		for _, seq := range req.Seq {
			for _, snapshot := range snapshots {
				if snapshot.SeqNum == seq {
					infos = append(infos, fileInfoToWire(snapshot))
					break
				}
			}
		}
	}
	log.OK("filename", req.FileName, "entries", len(infos))
	return &ListSnapShotResponse{StatusCode: code.WireCode(), FileInfos: infos}
}

// replyToken adapts the wire response path to the cleaner's completion
// callback. The token fires exactly once; Wait blocks until it does.
type replyToken struct {
	once sync.Once
	done chan namespace.StatusCode
}

func newReplyToken() *replyToken {
	return &replyToken{done: make(chan namespace.StatusCode, 1)}
}

// OnComplete implements namespace.CleanReply.
func (t *replyToken) OnComplete(code namespace.StatusCode) {
	t.once.Do(func() {
		t.done <- code
	})
}

// Wait blocks until the cleaner completes the job.
func (t *replyToken) Wait() namespace.StatusCode {
	return <-t.done
}

// DeleteSnapShot handles the DeleteSnapShot RPC. Ownership of the reply
// passes to the cleaner on successful submission: the response carries
// the final delete status, not just the acceptance of the job.
func (h *Handler) DeleteSnapShot(req *DeleteSnapShotRequest) *DeleteSnapShotResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "DeleteSnapShot")
	log.Received("filename", req.FileName, "seq", req.Seq)

	token := newReplyToken()
	code := h.core.DeleteFileSnapshot(req.FileName, req.Seq, token)
	if code != namespace.StatusOK {
		h.observe("DeleteSnapShot", code, started)
		log.Failed(code, "filename", req.FileName, "seq", req.Seq)
		return &DeleteSnapShotResponse{StatusCode: code.WireCode()}
	}

	final := token.Wait()
	h.observe("DeleteSnapShot", final, started)
	if final != namespace.StatusOK {
		log.Failed(final, "filename", req.FileName, "seq", req.Seq)
	} else {
		log.OK("filename", req.FileName, "seq", req.Seq)
	}
	return &DeleteSnapShotResponse{StatusCode: final.WireCode()}
}

// CheckSnapShotStatus handles the CheckSnapShotStatus RPC. The operation
// is reserved and always answers NotSupported.
func (h *Handler) CheckSnapShotStatus(req *CheckSnapShotStatusRequest) *CheckSnapShotStatusResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "CheckSnapShotStatus")
	log.Received("filename", req.FileName, "seq", req.Seq)

	code := h.core.CheckSnapshotStatus(req.FileName, req.Seq)
	h.observe("CheckSnapShotStatus", code, started)
	log.Failed(code, "filename", req.FileName, "seq", req.Seq)
	return &CheckSnapShotStatusResponse{StatusCode: code.WireCode()}
}

// GetSnapShotFileSegment handles the GetSnapShotFileSegment RPC.
func (h *Handler) GetSnapShotFileSegment(req *GetSnapShotFileSegmentRequest) *GetSnapShotFileSegmentResponse {
	started := time.Now()
	log := logger.Request(req.LogID, "GetSnapShotFileSegment")
	log.Received("filename", req.FileName, "offset", req.Offset, "seqnum", req.SeqNum)

	seg, code := h.core.GetSnapshotFileSegment(req.FileName, req.SeqNum, req.Offset)
	h.observe("GetSnapShotFileSegment", code, started)
	if code != namespace.StatusOK {
		log.Failed(code, "filename", req.FileName, "offset", req.Offset, "seqnum", req.SeqNum)
		return &GetSnapShotFileSegmentResponse{StatusCode: code.WireCode()}
	}
	log.OK("filename", req.FileName, "offset", req.Offset, "seqnum", req.SeqNum)
	return &GetSnapShotFileSegmentResponse{StatusCode: code.WireCode(), PageFileSegment: segmentToWire(seg)}
}
