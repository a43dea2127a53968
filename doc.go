// Package bptree implements an in-memory, rank-augmented B+tree keyed by
// small, trivially-copyable values, intended as the ordered-set index of
// an in-memory key/value store. It has no I/O surface, no locking, and
// no persistence; callers that need concurrency shard across multiple
// Tree instances instead of sharing one.
package bptree
