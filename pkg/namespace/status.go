// Package namespace implements the authoritative mapping from a
// hierarchical path namespace to file descriptors, from page files to
// allocated chunk segments, and the lifecycle of copy-on-write snapshots.
//
// The Core orchestrates the persistent store, the inode id generator, the
// chunk allocator and the asynchronous snapshot cleaner. It holds no
// mutable state of its own beyond the precomputed root descriptor; all
// synchronization is delegated to the store's atomic primitives.
package namespace

// StatusCode is the closed result type of every namespace operation.
// Protocol adapters project it onto the wire exactly once; inside the core
// it keeps handler switches exhaustive.
type StatusCode int

const (
	// StatusOK means the operation succeeded.
	StatusOK StatusCode = iota

	// StatusParamError rejects malformed paths, lengths or offsets.
	StatusParamError

	// StatusFileExists means the target key is already occupied.
	StatusFileExists

	// StatusFileNotExists means the file or an intermediate path
	// component does not exist.
	StatusFileNotExists

	// StatusNotDirectory means an intermediate path component, or the
	// path named by a listing request, is not a directory.
	StatusNotDirectory

	// StatusDirNotExist means the directory named by a listing request
	// does not exist.
	StatusDirNotExist

	// StatusNotSupported rejects operations undefined for the file kind,
	// and the unimplemented snapshot status poll.
	StatusNotSupported

	// StatusStorageError reports a backend failure from the store or the
	// inode id generator.
	StatusStorageError

	// StatusShrinkBiggerFile rejects an extend below the current length.
	StatusShrinkBiggerFile

	// StatusExtentUnitError rejects an extend that is not a whole number
	// of segments.
	StatusExtentUnitError

	// StatusSegmentNotAllocated means the addressed segment is a hole.
	StatusSegmentNotAllocated

	// StatusSegmentAllocateError means the chunk allocator refused the
	// allocation.
	StatusSegmentAllocateError

	// StatusFileUnderSnapshot means the file already has an active
	// snapshot. At most one snapshot may be live per file.
	StatusFileUnderSnapshot

	// StatusSnapshotFileNotExists means no snapshot carries the requested
	// sequence number.
	StatusSnapshotFileNotExists

	// StatusSnapshotDeleting means the snapshot is already being deleted.
	StatusSnapshotDeleting

	// StatusInternalError reports an invariant violation detected at
	// runtime, or a cleaner submission failure.
	StatusInternalError
)

var statusNames = map[StatusCode]string{
	StatusOK:                    "OK",
	StatusParamError:            "ParamError",
	StatusFileExists:            "FileExists",
	StatusFileNotExists:         "FileNotExists",
	StatusNotDirectory:          "NotDirectory",
	StatusDirNotExist:           "DirNotExist",
	StatusNotSupported:          "NotSupported",
	StatusStorageError:          "StorageError",
	StatusShrinkBiggerFile:      "ShrinkBiggerFile",
	StatusExtentUnitError:       "ExtentUnitError",
	StatusSegmentNotAllocated:   "SegmentNotAllocated",
	StatusSegmentAllocateError:  "SegmentAllocateError",
	StatusFileUnderSnapshot:     "FileUnderSnapshot",
	StatusSnapshotFileNotExists: "SnapshotFileNotExists",
	StatusSnapshotDeleting:      "SnapshotDeleting",
	StatusInternalError:         "InternalError",
}

func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return "Unknown"
}

// WireCode returns the stable integer carried on the wire. The enum values
// are themselves the wire contract, so this is the identity projection; it
// exists so adapters never cast a StatusCode directly.
func (c StatusCode) WireCode() int32 {
	return int32(c)
}
