package kv

import (
	"github.com/hendursaga/datalevin-go/lmdb"
)

// lmdbEngine binds Engine to the cgo lmdb package. It is the adapter's only
// production Engine; everything above it (RTX pool, cursor iterator, write
// pipeline) is written against the interface alone.
type lmdbEngine struct {
	env *lmdb.Env
}

func newLMDBEngine() Engine { return &lmdbEngine{} }

func (e *lmdbEngine) Open(path string, opts EngineOptions) error {
	env, err := lmdb.NewEnv(opts.MaxReaders)
	if err != nil {
		return wrapNative("env-create", err)
	}
	if err := env.SetMaxDBs(opts.MaxDBs); err != nil {
		return wrapNative("set-max-dbs", err)
	}
	if err := env.SetMapSize(opts.MapSizeMB * 1024 * 1024); err != nil {
		return wrapNative("set-map-size", err)
	}
	if err := env.Open(path, lmdb.NoReadahead|lmdb.MapAsync|lmdb.WriteMap, opts.Mode); err != nil {
		return wrapNative("env-open", err)
	}
	e.env = env
	return nil
}

func (e *lmdbEngine) Close() error { return wrapNative("env-close", e.env.Close()) }

func (e *lmdbEngine) Info() (EngineInfo, error) {
	info, err := e.env.Info()
	if err != nil {
		return EngineInfo{}, wrapNative("env-info", err)
	}
	return EngineInfo{MapSize: info.MapSize}, nil
}

func (e *lmdbEngine) SetMapSize(bytes int64) error {
	return wrapNative("set-map-size", e.env.SetMapSize(bytes))
}

func (e *lmdbEngine) BeginRead() (EngineTxn, error) {
	txn, err := e.env.BeginTxn(true)
	if err != nil {
		return nil, wrapNative("begin-read", err)
	}
	return &lmdbTxn{txn: txn}, nil
}

func (e *lmdbEngine) BeginWrite() (EngineTxn, error) {
	txn, err := e.env.BeginTxn(false)
	if err != nil {
		return nil, wrapNative("begin-write", err)
	}
	return &lmdbTxn{txn: txn}, nil
}

func (e *lmdbEngine) ReaderCheck() (int, error) {
	n, err := e.env.ReaderCheck()
	return n, wrapNative("reader-check", err)
}

type lmdbTxn struct{ txn *lmdb.Txn }

func (t *lmdbTxn) Commit() error { return wrapNative("commit", t.txn.Commit()) }
func (t *lmdbTxn) Abort()        { t.txn.Abort() }
func (t *lmdbTxn) Reset()        { t.txn.Reset() }
func (t *lmdbTxn) Renew() error  { return wrapNative("renew", t.txn.Renew()) }

func (t *lmdbTxn) OpenDBI(name string, create bool) (EngineDBI, error) {
	dbi, err := t.txn.OpenDBI(name, create)
	if err != nil {
		return nil, wrapNative("open-dbi", err)
	}
	return dbi, nil
}

func (t *lmdbTxn) Drop(dbi EngineDBI, del bool) error {
	return wrapNative("drop", t.txn.Drop(dbi.(lmdb.DBI), del))
}

func (t *lmdbTxn) Get(dbi EngineDBI, key []byte) ([]byte, error) {
	v, err := t.txn.Get(dbi.(lmdb.DBI), key)
	if err != nil {
		return nil, wrapNative("get", err)
	}
	return v, nil
}

func (t *lmdbTxn) Put(dbi EngineDBI, key, val []byte, flags PutFlag) error {
	return wrapNative("put", t.txn.Put(dbi.(lmdb.DBI), key, val, uint(flags)))
}

func (t *lmdbTxn) Del(dbi EngineDBI, key []byte) error {
	return wrapNative("del", t.txn.Del(dbi.(lmdb.DBI), key))
}

func (t *lmdbTxn) Stat(dbi EngineDBI) (EngineStat, error) {
	s, err := t.txn.Stat(dbi.(lmdb.DBI))
	if err != nil {
		return EngineStat{}, wrapNative("stat", err)
	}
	return EngineStat{Entries: s.Entries}, nil
}

func (t *lmdbTxn) Cmp(dbi EngineDBI, a, b []byte) int {
	return t.txn.Cmp(dbi.(lmdb.DBI), a, b)
}

func (t *lmdbTxn) OpenCursor(dbi EngineDBI) (EngineCursor, error) {
	c, err := t.txn.OpenCursor(dbi.(lmdb.DBI))
	if err != nil {
		return nil, wrapNative("open-cursor", err)
	}
	return &lmdbCursor{cur: c}, nil
}

type lmdbCursor struct{ cur *lmdb.Cursor }

func (c *lmdbCursor) Get(key []byte, op CursorOp) ([]byte, []byte, error) {
	k, v, err := c.cur.Get(key, toNativeOp(op))
	if err != nil {
		return nil, nil, wrapNative("cursor-get", err)
	}
	return k, v, nil
}

func (c *lmdbCursor) Close() { c.cur.Close() }

func toNativeOp(op CursorOp) lmdb.CursorOp {
	switch op {
	case OpFirst:
		return lmdb.First
	case OpLast:
		return lmdb.Last
	case OpNext:
		return lmdb.Next
	case OpPrev:
		return lmdb.Prev
	case OpSeek:
		return lmdb.SetRange
	case OpCurrent:
		return lmdb.GetCurrent
	default:
		panic("kv: unknown cursor op")
	}
}

// wrapNative classifies a raw lmdb error into the adapter's Error kinds.
// Every Engine/EngineTxn/EngineCursor method that can fail returns through
// this, so the rest of the package only ever sees *kv.Error.
func wrapNative(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case lmdb.IsNotFound(err):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case lmdb.IsMapFull(err):
		return &Error{Kind: KindMapFull, Op: op, Err: err}
	case lmdb.IsBadReaderLock(err):
		return &Error{Kind: KindBadReaderLock, Op: op, Err: err}
	default:
		return &Error{Kind: KindNative, Op: op, Err: err}
	}
}
