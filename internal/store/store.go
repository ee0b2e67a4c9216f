package store

import (
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// NumShards is the number of independent partitions of the distinct-user set.
// Fixed for the process lifetime so that shard assignment stays stable:
// the same user identifier always lands on the same shard.
const NumShards = 1024

// Stats is a point-in-time view of the aggregate state, in the shape served
// on the wire by the stats route.
type Stats struct {
	TotalRequests uint64  `json:"totalRequests"` // Successfully applied events
	UniqueUsers   uint64  `json:"uniqueUsers"`   // Distinct user identifiers seen
	Sum           float64 `json:"sum"`           // Running sum of event values
	Avg           float64 `json:"avg"`           // Sum / TotalRequests, 0 when empty
}

// shard is one partition of the distinct-user set, guarded by its own lock so
// writers on different shards never contend with each other.
type shard struct {
	mu      sync.Mutex
	members map[string]struct{}
}

// Store holds the process-wide aggregate state: the two scalar counters and
// the sharded distinct-user set. A single instance is constructed at startup
// and shared by every connection handler.
//
// Concurrency model:
//   - totalRequests is updated with atomic.AddUint64; increments are never lost.
//   - sum is stored as IEEE-754 bits in a uint64 and updated with a CAS loop,
//     since there is no atomic float64 add.
//   - Each shard's member set is protected by that shard's mutex; disjoint
//     shards are mutated fully in parallel.
type Store struct {
	totalRequests uint64 // Atomic access only
	sumBits       uint64 // float64 as bits, atomic access only
	shards        []*shard
}

// New creates a Store with all shards initialized and counters at zero.
func New() *Store {
	shards := make([]*shard, NumShards)
	for i := range shards {
		shards[i] = &shard{members: make(map[string]struct{})}
	}
	return &Store{shards: shards}
}

// shardIndex maps a user identifier to its owning shard.
// Uses FNV-1a so the assignment is deterministic and uniformly distributed.
func shardIndex(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32()) % NumShards
}

// AddUser records a user identifier in its shard's member set.
// Idempotent: adding the same identifier twice leaves the distinct count
// unchanged. Only the owning shard's lock is held, and only for the insert.
func (s *Store) AddUser(userID string) {
	sh := s.shards[shardIndex(userID)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.members[userID] = struct{}{}
}

// UniqueCount returns the number of distinct user identifiers across all
// shards. Each shard is read under its own lock, but no lock spans the whole
// store: the result can race with concurrent AddUser calls on other shards.
// That is acceptable for a monitoring figure.
func (s *Store) UniqueCount() uint64 {
	var n uint64
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += uint64(len(sh.members))
		sh.mu.Unlock()
	}
	return n
}

// RecordEvent applies one successfully decoded event to the counters:
// totalRequests is incremented and value is added to the running sum.
// Safe under arbitrary concurrent invocation.
func (s *Store) RecordEvent(value float64) {
	atomic.AddUint64(&s.totalRequests, 1)
	for {
		old := atomic.LoadUint64(&s.sumBits)
		next := math.Float64bits(math.Float64frombits(old) + value)
		if atomic.CompareAndSwapUint64(&s.sumBits, old, next) {
			return
		}
	}
}

// Snapshot returns the current aggregate statistics. The counter pair is read
// atomically field by field and the unique count is summed per shard; the
// whole snapshot is best-effort consistent while writers are active, which is
// all the stats route promises.
func (s *Store) Snapshot() Stats {
	total := atomic.LoadUint64(&s.totalRequests)
	sum := math.Float64frombits(atomic.LoadUint64(&s.sumBits))

	var avg float64
	if total > 0 {
		avg = sum / float64(total)
	}

	return Stats{
		TotalRequests: total,
		UniqueUsers:   s.UniqueCount(),
		Sum:           sum,
		Avg:           avg,
	}
}
