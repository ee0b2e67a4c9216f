// Package store implements the shared aggregate state for the event-ingestion
// service: two scalar counters (event count, value sum) and a sharded set of
// distinct user identifiers, all safe under concurrent access from many
// connection handlers.
//
// # Overview
//
// Every write request contributes one event to the aggregates; the read route
// reports them. The only interesting design pressure is contention: thousands
// of connections may apply events simultaneously, so the structure must stay
// correct without serializing all writers behind one lock.
//
// # Sharded Distinct-User Set
//
// The user set is split into NumShards independently locked partitions:
//
//	shardIndex(userID) = FNV-1a(userID) mod NumShards
//
// A writer locks only the one shard its identifier hashes to, so worst-case
// contention is bounded to the writers whose identifiers collide on a shard
// index rather than the whole write population. The hash is deterministic for
// the process lifetime, which keeps each identifier in exactly one shard and
// makes the total distinct count the plain sum of per-shard set sizes.
//
// # Counters
//
// totalRequests uses atomic.AddUint64. The float64 sum has no atomic add, so
// it is stored as IEEE-754 bits in a uint64 and updated with a
// compare-and-swap loop. Neither counter can lose increments under concurrent
// writers.
//
// # Read Consistency
//
// UniqueCount and Snapshot take no lock spanning the whole store. They read
// each shard (and each counter) individually while other shards may be
// mutated, so the result is a best-effort snapshot rather than a linearizable
// one. The values feed a monitoring response, never business logic.
package store
