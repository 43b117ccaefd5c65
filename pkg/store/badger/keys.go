package badger

import (
	"encoding/binary"
)

// Key namespace
// =============
//
// The store keeps three logical tables in one ordered key space, separated
// by two-byte prefixes:
//
//	Table       Prefix  Key format
//	--------------------------------------------------------
//	Files       "f:"    f:<parentID 8B BE>:<fileName>
//	Segments    "s:"    s:<fileID 8B BE>:<startOffset 8B BE>
//	Clean jobs  "j:"    j:<jobID>
//
// Ids and offsets are big-endian fixed-width so that lexicographic key
// order equals numeric order. That makes ListFile a single prefix scan
// returning children in name order, and ListSegments a prefix scan
// returning segments in offset order.
//
// Snapshots need no table of their own: a snapshot descriptor is a file
// entry whose parent id is the source file's id, so snapshot enumeration
// is the same prefix scan as a directory listing.

const (
	prefixFile    = "f:"
	prefixSegment = "s:"
	prefixJob     = "j:"
)

func appendUint64(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

// keyFile builds the key of a file descriptor.
func keyFile(parentID uint64, fileName string) []byte {
	key := appendUint64([]byte(prefixFile), parentID)
	key = append(key, ':')
	return append(key, fileName...)
}

// keyFilePrefix builds the scan prefix covering every child of a parent.
func keyFilePrefix(parentID uint64) []byte {
	key := appendUint64([]byte(prefixFile), parentID)
	return append(key, ':')
}

// keySegment builds the key of a segment descriptor.
func keySegment(fileID uint64, startOffset uint64) []byte {
	key := appendUint64([]byte(prefixSegment), fileID)
	key = append(key, ':')
	return appendUint64(key, startOffset)
}

// keySegmentPrefix builds the scan prefix covering every segment of a file.
func keySegmentPrefix(fileID uint64) []byte {
	key := appendUint64([]byte(prefixSegment), fileID)
	return append(key, ':')
}

// keyJob builds the key of a cleaner job record.
func keyJob(jobID string) []byte {
	return append([]byte(prefixJob), jobID...)
}

// keyJobPrefix is the scan prefix covering every pending job record.
func keyJobPrefix() []byte {
	return []byte(prefixJob)
}
