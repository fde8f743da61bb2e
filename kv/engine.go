package kv

import "os"

// CursorOp enumerates the native cursor operations the cursor iterator
// drives (spec.md §6: {FIRST, LAST, NEXT, PREV, SET, GET_CURRENT}). OpSeek
// corresponds to the single "SET" op named in the spec, implemented as a
// SET_RANGE-style seek (smallest key >= the given key); the iterator
// derives both forward and backward range starts from it (see cursor.go).
type CursorOp int

const (
	OpFirst CursorOp = iota
	OpLast
	OpNext
	OpPrev
	OpSeek
	OpCurrent
)

// PutFlag controls native put semantics (spec.md §4.5).
type PutFlag uint

const (
	PutNone        PutFlag = 0
	PutNoOverwrite PutFlag = 1 << 0
	PutAppend      PutFlag = 1 << 1
)

// EngineStat mirrors the native per-DBI statistics consulted by
// Environment.Stat (spec.md §4.9).
type EngineStat struct {
	Entries uint64
}

// EngineInfo mirrors native environment info, in particular the current
// map size the write pipeline's MapFull recovery multiplies by ten.
type EngineInfo struct {
	MapSize int64
}

// EngineOptions configures Engine.Open (spec.md §6).
type EngineOptions struct {
	MaxReaders int
	MaxDBs     int
	MapSizeMB  int64
	Mode       os.FileMode
}

// EngineDBI is an opaque native database handle. Concrete engines return
// their own handle type (e.g. lmdb.DBI) through this interface.
type EngineDBI interface{}

// Engine is the single interface enumerating exactly the native operations
// the adapter needs (spec.md §6, design note on replacing dynamic dispatch
// with a single bound-once interface). lmdbEngine (engine_lmdb.go) is the
// production binding; tests bind a second, in-memory implementation.
type Engine interface {
	Open(path string, opts EngineOptions) error
	Close() error
	Info() (EngineInfo, error)
	SetMapSize(bytes int64) error

	BeginRead() (EngineTxn, error)
	BeginWrite() (EngineTxn, error)

	ReaderCheck() (int, error)
}

// EngineTxn is a single native transaction, read-only or read-write.
type EngineTxn interface {
	Commit() error
	Abort()
	Reset()
	Renew() error

	OpenDBI(name string, create bool) (EngineDBI, error)
	Drop(dbi EngineDBI, del bool) error
	Get(dbi EngineDBI, key []byte) ([]byte, error)
	Put(dbi EngineDBI, key, val []byte, flags PutFlag) error
	Del(dbi EngineDBI, key []byte) error
	Stat(dbi EngineDBI) (EngineStat, error)
	Cmp(dbi EngineDBI, a, b []byte) int

	OpenCursor(dbi EngineDBI) (EngineCursor, error)
}

// EngineCursor walks the ordered key space of one DBI within one EngineTxn.
type EngineCursor interface {
	Get(key []byte, op CursorOp) (k, v []byte, err error)
	Close()
}
