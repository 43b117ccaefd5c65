package badger

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/pagevol/mds/pkg/store"
)

// Serialization strategy
// ======================
//
// Descriptor values are a versioned binary encoding: one version byte
// followed by the XDR body of the descriptor struct. XDR keeps values
// compact and byte-for-byte deterministic (the adapter contract promises
// that re-reading a segment returns the same bytes), and the leading
// version byte leaves room for schema evolution without rewriting the
// key space.

const descriptorVersion byte = 1

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(descriptorVersion)
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to encode descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(raw []byte, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty descriptor value")
	}
	if raw[0] != descriptorVersion {
		return fmt.Errorf("unsupported descriptor version %d", raw[0])
	}
	if _, err := xdr.Unmarshal(bytes.NewReader(raw[1:]), v); err != nil {
		return fmt.Errorf("failed to decode descriptor: %w", err)
	}
	return nil
}

func encodeFileInfo(fi *store.FileInfo) ([]byte, error) {
	return encode(fi)
}

func decodeFileInfo(raw []byte) (*store.FileInfo, error) {
	var fi store.FileInfo
	if err := decode(raw, &fi); err != nil {
		return nil, err
	}
	return &fi, nil
}

func encodeSegment(seg *store.PageFileSegment) ([]byte, error) {
	return encode(seg)
}

func decodeSegment(raw []byte) (*store.PageFileSegment, error) {
	var seg store.PageFileSegment
	if err := decode(raw, &seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

func encodeCleanJob(job *store.CleanJob) ([]byte, error) {
	return encode(job)
}

func decodeCleanJob(raw []byte) (*store.CleanJob, error) {
	var job store.CleanJob
	if err := decode(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
