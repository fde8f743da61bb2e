package kv

import (
	"bytes"
	"errors"
	"sort"
	"sync"
)

// fakeStore is an in-memory Engine used to exercise the RTX pool, cursor
// iterator, and write pipeline without a native store. It models LMDB's
// buffered-until-commit writes, snapshot reads and MapFull reporting
// closely enough for the properties this package tests; it does not itself
// serialize write transactions (Environment.writeMu does that). It is
// deliberately not a
// full MVCC engine (e.g. a write transaction cannot read back its own
// uncommitted writes) — nothing in this package's test suite needs that.
type fakeStore struct {
	mu       sync.Mutex
	dbs      map[fakeDBI]map[string][]byte
	capacity int64
	used     int64
}

type fakeDBI string

var errReadOnlyWrite = errors.New("fake: write op on a read-only transaction")
var errUnknownCursorOp = errors.New("fake: unknown cursor op")

func newFakeEngine() *fakeStore {
	return &fakeStore{dbs: make(map[fakeDBI]map[string][]byte), capacity: 1 << 20}
}

func (f *fakeStore) Open(path string, opts EngineOptions) error {
	if opts.MapSizeMB > 0 {
		f.capacity = opts.MapSizeMB * 1024 * 1024
	}
	return nil
}
func (f *fakeStore) Close() error { return nil }
func (f *fakeStore) Info() (EngineInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return EngineInfo{MapSize: f.capacity}, nil
}
func (f *fakeStore) SetMapSize(bytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capacity = bytes
	return nil
}
func (f *fakeStore) ReaderCheck() (int, error) { return 0, nil }

func (f *fakeStore) BeginRead() (EngineTxn, error) {
	t := &fakeTxn{store: f, readonly: true}
	t.snapshot()
	return t, nil
}

func (f *fakeStore) BeginWrite() (EngineTxn, error) {
	return &fakeTxn{store: f}, nil
}

type fakeTxn struct {
	store    *fakeStore
	readonly bool

	snap map[fakeDBI]map[string][]byte

	pending map[fakeDBI]map[string][]byte
	deletes map[fakeDBI]map[string]bool
	cleared map[fakeDBI]bool
	dropped map[fakeDBI]bool
}

func (t *fakeTxn) snapshot() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.snap = make(map[fakeDBI]map[string][]byte, len(t.store.dbs))
	for name, m := range t.store.dbs {
		cp := make(map[string][]byte, len(m))
		for k, v := range m {
			cp[k] = append([]byte(nil), v...)
		}
		t.snap[name] = cp
	}
}

func (t *fakeTxn) Commit() error {
	if t.readonly {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var delta int64
	for name, kv := range t.pending {
		live := t.store.dbs[name]
		for k, v := range kv {
			if old, ok := live[k]; ok {
				delta += int64(len(v) - len(old))
			} else {
				delta += int64(len(k) + len(v))
			}
		}
	}
	if t.store.used+delta > t.store.capacity {
		return &Error{Kind: KindMapFull, Op: "commit"}
	}

	for name := range t.dropped {
		delete(t.store.dbs, name)
	}
	for name := range t.cleared {
		if _, ok := t.store.dbs[name]; ok {
			t.store.dbs[name] = map[string][]byte{}
		}
	}
	for name, kv := range t.pending {
		live, ok := t.store.dbs[name]
		if !ok {
			live = map[string][]byte{}
			t.store.dbs[name] = live
		}
		for k, v := range kv {
			live[k] = v
		}
	}
	for name, dels := range t.deletes {
		live := t.store.dbs[name]
		for k := range dels {
			delete(live, k)
		}
	}
	t.store.used += delta
	return nil
}

func (t *fakeTxn) Abort()  {}
func (t *fakeTxn) Reset()  {}
func (t *fakeTxn) Renew() error {
	if t.readonly {
		t.snapshot()
	}
	return nil
}

func (t *fakeTxn) OpenDBI(name string, create bool) (EngineDBI, error) {
	dbi := fakeDBI(name)
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.dbs[dbi]; !ok {
		if !create {
			return nil, &Error{Kind: KindUnknownDBI, Op: name}
		}
		t.store.dbs[dbi] = map[string][]byte{}
	}
	return dbi, nil
}

func (t *fakeTxn) Drop(dbi EngineDBI, del bool) error {
	if t.readonly {
		return &Error{Kind: KindNative, Op: "drop", Err: errReadOnlyWrite}
	}
	name := dbi.(fakeDBI)
	if del {
		if t.dropped == nil {
			t.dropped = map[fakeDBI]bool{}
		}
		t.dropped[name] = true
	} else {
		if t.cleared == nil {
			t.cleared = map[fakeDBI]bool{}
		}
		t.cleared[name] = true
	}
	return nil
}

func (t *fakeTxn) dbFor(name fakeDBI) map[string][]byte {
	if t.readonly {
		return t.snap[name]
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.dbs[name]
}

func (t *fakeTxn) Get(dbi EngineDBI, key []byte) ([]byte, error) {
	db := t.dbFor(dbi.(fakeDBI))
	v, ok := db[string(key)]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "get"}
	}
	return append([]byte(nil), v...), nil
}

func (t *fakeTxn) Put(dbi EngineDBI, key, val []byte, flags PutFlag) error {
	if t.readonly {
		return &Error{Kind: KindNative, Op: "put", Err: errReadOnlyWrite}
	}
	name := dbi.(fakeDBI)
	if t.pending == nil {
		t.pending = map[fakeDBI]map[string][]byte{}
	}
	m, ok := t.pending[name]
	if !ok {
		m = map[string][]byte{}
		t.pending[name] = m
	}
	m[string(key)] = append([]byte(nil), val...)
	if dm := t.deletes[name]; dm != nil {
		delete(dm, string(key))
	}
	return nil
}

func (t *fakeTxn) Del(dbi EngineDBI, key []byte) error {
	if t.readonly {
		return &Error{Kind: KindNative, Op: "del", Err: errReadOnlyWrite}
	}
	name := dbi.(fakeDBI)
	if t.deletes == nil {
		t.deletes = map[fakeDBI]map[string]bool{}
	}
	dm, ok := t.deletes[name]
	if !ok {
		dm = map[string]bool{}
		t.deletes[name] = dm
	}
	dm[string(key)] = true
	if m := t.pending[name]; m != nil {
		delete(m, string(key))
	}
	return nil
}

func (t *fakeTxn) Stat(dbi EngineDBI) (EngineStat, error) {
	db := t.dbFor(dbi.(fakeDBI))
	return EngineStat{Entries: uint64(len(db))}, nil
}

func (t *fakeTxn) Cmp(dbi EngineDBI, a, b []byte) int {
	return bytes.Compare(a, b)
}

func (t *fakeTxn) OpenCursor(dbi EngineDBI) (EngineCursor, error) {
	db := t.dbFor(dbi.(fakeDBI))
	keys := make([]string, 0, len(db))
	for k := range db {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &fakeCursor{keys: keys, db: db, pos: -1}, nil
}

// fakeCursor walks a sorted snapshot of one db's keys, taken once at
// OpenCursor time — mirroring a native cursor's fixed view within a txn.
type fakeCursor struct {
	keys []string
	db   map[string][]byte
	pos  int
}

func (c *fakeCursor) Close() {}

func (c *fakeCursor) Get(key []byte, op CursorOp) ([]byte, []byte, error) {
	switch op {
	case OpFirst:
		if len(c.keys) == 0 {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-first"}
		}
		c.pos = 0
	case OpLast:
		if len(c.keys) == 0 {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-last"}
		}
		c.pos = len(c.keys) - 1
	case OpNext:
		if c.pos+1 >= len(c.keys) {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-next"}
		}
		c.pos++
	case OpPrev:
		if c.pos-1 < 0 {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-prev"}
		}
		c.pos--
	case OpSeek:
		idx := sort.SearchStrings(c.keys, string(key))
		if idx >= len(c.keys) {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-seek"}
		}
		c.pos = idx
	case OpCurrent:
		if c.pos < 0 || c.pos >= len(c.keys) {
			return nil, nil, &Error{Kind: KindNotFound, Op: "cursor-current"}
		}
	default:
		return nil, nil, &Error{Kind: KindNative, Op: "cursor-get", Err: errUnknownCursorOp}
	}
	k := c.keys[c.pos]
	return []byte(k), append([]byte(nil), c.db[k]...), nil
}
