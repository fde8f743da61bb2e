// Package kv is a thread-safe embedded key-value store adapter layered on
// top of a memory-mapped B+tree native store (LMDB, via the sibling lmdb
// package). It presents a higher-level API for opening an environment,
// managing named sub-databases, performing batched writes, and scanning
// ordered key ranges with a declarative range grammar.
//
// The package never talks to LMDB directly: every native operation is
// expressed against the Engine interface (engine.go), bound once to the
// concrete lmdb package in engine_lmdb.go. Tests bind the same interface to
// an in-memory fake (engine_fake_test.go) so the RTX pool, cursor iterator,
// and write pipeline can be exercised without a native store.
package kv
