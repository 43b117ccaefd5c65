// Package alloc provides the chunk placement policy for new segments.
//
// The namespace core treats the allocator as opaque: it asks for a fully
// populated segment and hands back segments that lost an allocation race.
// This implementation spreads chunks round-robin across the copysets of a
// configured logical pool; production deployments substitute a placement
// service speaking to the cluster topology.
package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/store"
)

// Pool describes one logical pool: a placement domain and the copysets
// chunks may be placed on.
type Pool struct {
	// PoolID is the logical pool identifier stamped on segments.
	PoolID uint32 `mapstructure:"pool_id"`

	// Copysets lists the replication groups of the pool. Must not be
	// empty.
	Copysets []uint32 `mapstructure:"copysets"`
}

// RoundRobinAllocator deals chunks across the copysets of a single pool
// and draws chunk ids from a monotonically increasing counter.
type RoundRobinAllocator struct {
	pool    Pool
	nextID  atomic.Uint64
	rrIndex atomic.Uint64

	mu        sync.Mutex
	reclaimed []store.ChunkInfo
}

// NewRoundRobin builds an allocator over the given pool.
func NewRoundRobin(pool Pool) *RoundRobinAllocator {
	return &RoundRobinAllocator{pool: pool}
}

// AllocateChunkSegment fills seg with segmentSize/chunkSize chunks placed
// round-robin across the pool's copysets. Returns false when the pool has
// no copysets or the geometry is degenerate.
func (a *RoundRobinAllocator) AllocateChunkSegment(fileID uint64, segmentSize, chunkSize uint64, seg *store.PageFileSegment) bool {
	if len(a.pool.Copysets) == 0 || chunkSize == 0 || segmentSize%chunkSize != 0 {
		logger.Errorw("chunk allocation refused",
			"fileID", fileID, "segmentSize", segmentSize, "chunkSize", chunkSize)
		return false
	}

	count := segmentSize / chunkSize
	chunks := make([]store.ChunkInfo, 0, count)
	for i := uint64(0); i < count; i++ {
		slot := a.rrIndex.Add(1) - 1
		chunks = append(chunks, store.ChunkInfo{
			ChunkID:   a.nextID.Add(1),
			CopysetID: a.pool.Copysets[slot%uint64(len(a.pool.Copysets))],
		})
	}

	seg.LogicalPoolID = a.pool.PoolID
	seg.Chunks = chunks
	return true
}

// ReclaimChunkSegment takes back the chunks of a segment that was never
// persisted or whose snapshot is being deleted. The chunks are parked on
// a free list for the data plane to garbage collect.
func (a *RoundRobinAllocator) ReclaimChunkSegment(seg *store.PageFileSegment) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reclaimed = append(a.reclaimed, seg.Chunks...)
	return true
}

// ReclaimedChunks returns a snapshot of the chunks waiting for data-plane
// reclamation.
func (a *RoundRobinAllocator) ReclaimedChunks() []store.ChunkInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]store.ChunkInfo, len(a.reclaimed))
	copy(out, a.reclaimed)
	return out
}
