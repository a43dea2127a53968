package bptree

import "errors"

// ErrOutOfMemory is returned by an Allocator when it cannot produce a
// new node. Tree operations that hit it leave the tree exactly as it was
// before the call: node reservation happens up front, before any
// existing node is mutated, so a failed reservation never leaves a
// half-completed split or merge behind.
var ErrOutOfMemory = errors.New("bptree: allocator exhausted")
