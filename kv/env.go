package kv

import (
	"fmt"
	"os"
	"sync"
)

// Environment is a single shared native store handle: it owns the RTX
// pool, the registry of open DBI handles, and the exclusive write path
// (spec.md §3). Safe for concurrent use by many goroutines.
type Environment struct {
	mu   sync.RWMutex
	dbis map[string]*DBIHandle

	// writeMu serializes every native write txn; wherever both locks are
	// held, writeMu is taken before mu.
	writeMu sync.Mutex

	engine  Engine
	pool    *RTXPool
	opts    Options
	path    string
	closed  bool
	metrics *envMetrics
}

// Open creates (if needed) path and opens an Environment backed by the
// native LMDB engine.
func Open(path string, opts Options) (*Environment, error) {
	opts.setDefaults()
	if err := os.MkdirAll(path, 0775); err != nil {
		return nil, fmt.Errorf("kv: create directory %s: %w", path, err)
	}
	return open(path, opts, newLMDBEngine())
}

// open is the engine-injectable core, used directly by Open and by tests
// against an in-memory fake engine.
func open(path string, opts Options, engine Engine) (*Environment, error) {
	err := engine.Open(path, EngineOptions{
		MaxReaders: opts.MaxReaders,
		MaxDBs:     opts.MaxDBs,
		MapSizeMB:  opts.InitDBSizeMB,
		Mode:       0664,
	})
	if err != nil {
		if isBadReaderLock(err) {
			return nil, &Error{
				Kind: KindBadReaderLock,
				Op:   "open",
				Err:  fmt.Errorf("reuse a single Environment handle per process per directory: %w", err),
			}
		}
		return nil, err
	}

	m := newEnvMetrics(path)
	env := &Environment{
		dbis:    make(map[string]*DBIHandle),
		engine:  engine,
		pool:    newRTXPool(engine, opts.UseReaders, opts.MaxKeySize, opts.DefaultValSize, m),
		opts:    opts,
		path:    path,
		metrics: m,
	}
	return env, nil
}

// Close shuts the environment down, aborting every pooled RTX first.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.pool.Close()
	return e.engine.Close()
}

func (e *Environment) assertOpen(op string) error {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return &Error{Kind: KindNotOpen, Op: op}
	}
	return nil
}

// OpenDBI opens (creating if necessary) the named sub-database, returning
// its handle. Idempotent: a second call with the same name returns the
// already-registered handle.
func (e *Environment) OpenDBI(name string) (*DBIHandle, error) {
	if err := e.assertOpen("open-dbi"); err != nil {
		return nil, err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if h, ok := e.dbis[name]; ok {
		return h, nil
	}

	txn, err := e.engine.BeginWrite()
	if err != nil {
		return nil, err
	}
	dbi, err := txn.OpenDBI(name, true)
	if err != nil {
		txn.Abort()
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}

	h := &DBIHandle{
		name:     name,
		dbi:      dbi,
		keyBuf:   newBuffer(e.opts.MaxKeySize),
		valBuf:   newBuffer(e.opts.DefaultValSize),
		encoder:  e.opts.Encoder,
		measurer: e.opts.Measurer,
		decoder:  e.opts.Decoder,
	}
	e.dbis[name] = h
	return h, nil
}

// getDBI resolves an already-open DBI by name, or UnknownDBI.
func (e *Environment) getDBI(name string) (*DBIHandle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, &Error{Kind: KindNotOpen}
	}
	h, ok := e.dbis[name]
	if !ok {
		return nil, &Error{Kind: KindUnknownDBI, Op: name}
	}
	return h, nil
}

// ClearDBI truncates name's contents but keeps its handle registered
// (spec.md's clear_dbi).
func (e *Environment) ClearDBI(name string) error {
	h, err := e.getDBI(name)
	if err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	txn, err := e.engine.BeginWrite()
	if err != nil {
		return err
	}
	if err := txn.Drop(h.dbi, false); err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}

// DropDBI truncates name's contents and unregisters its handle, releasing
// the native dbi slot (spec.md's drop_dbi).
func (e *Environment) DropDBI(name string) error {
	if _, err := e.getDBI(name); err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.dbis[name]
	if !ok {
		return &Error{Kind: KindUnknownDBI, Op: name}
	}

	txn, err := e.engine.BeginWrite()
	if err != nil {
		return err
	}
	if err := txn.Drop(h.dbi, true); err != nil {
		txn.Abort()
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	delete(e.dbis, name)
	return nil
}

// Stat reports native B-tree statistics for name.
func (e *Environment) Stat(name string) (EngineStat, error) {
	h, err := e.getDBI(name)
	if err != nil {
		return EngineStat{}, err
	}
	rtx, err := e.pool.Get()
	if err != nil {
		return EngineStat{}, err
	}
	defer e.pool.Reset(rtx)
	return rtx.txn.Stat(h.dbi)
}

// ReaderCheck proactively clears stale reader-lock entries left behind by
// a crashed process sharing this environment's directory.
func (e *Environment) ReaderCheck() (int, error) {
	return e.engine.ReaderCheck()
}
