// Package lmdb is a minimal cgo binding to LMDB, the memory-mapped B+tree
// store underlying the kv adapter package. It implements exactly the
// operations kv.Engine needs (see kv/engine.go) and nothing more: no
// DupSort cursors, no env copy/backup, no reader-list text dump. Link
// against a system liblmdb; no C sources are vendored in this package.
package lmdb

/*
#cgo pkg-config: lmdb
#cgo !pkgconfig LDFLAGS: -llmdb
#include <stdlib.h>
#include <lmdb.h>
*/
import "C"

import (
	"errors"
	"os"
	"runtime"
	"sync"
	"unsafe"
)

// success is the value LMDB returns from an API call on success.
const success = C.MDB_SUCCESS

// Flags for Env.Open. See mdb_env_open.
const (
	FixedMap    = C.MDB_FIXEDMAP
	NoSubdir    = C.MDB_NOSUBDIR
	Readonly    = C.MDB_RDONLY
	WriteMap    = C.MDB_WRITEMAP
	NoMetaSync  = C.MDB_NOMETASYNC
	NoSync      = C.MDB_NOSYNC
	MapAsync    = C.MDB_MAPASYNC
	NoReadahead = C.MDB_NORDAHEAD
	NoMemInit   = C.MDB_NOMEMINIT
)

// DBI flags. See mdb_dbi_open.
const (
	Create = C.MDB_CREATE
)

// Put flags. See mdb_put.
const (
	NoOverwrite = C.MDB_NOOVERWRITE
	NoDupData   = C.MDB_NODUPDATA
	Append      = C.MDB_APPEND
	Current     = C.MDB_CURRENT
)

// DBI is a handle for a database within an Env. See MDB_dbi.
type DBI C.MDB_dbi

// Env is a database environment: a single shared memory map that may hold
// many named DBIs. An Env is safe for concurrent use by multiple
// goroutines; it is always opened with NoTLS so that read-only Txns are
// free to migrate across the goroutines/threads of the caller, which is
// what lets the kv package's RTX pool hand the same Txn to whichever
// goroutine next leases it instead of pinning one thread per reader.
type Env struct {
	_env *C.MDB_env

	closeLock  sync.RWMutex
	maxReaders int
	path       string
}

var errNegSize = errors.New("lmdb: negative size")

// NewEnv allocates an Env with room for maxReaders concurrent reader slots.
//
// See mdb_env_create.
func NewEnv(maxReaders int) (*Env, error) {
	env := &Env{maxReaders: maxReaders}
	ret := C.mdb_env_create(&env._env)
	if ret != success {
		return nil, operrno("mdb_env_create", ret)
	}
	if err := env.SetMaxReaders(maxReaders); err != nil {
		C.mdb_env_close(env._env)
		return nil, err
	}
	runtime.SetFinalizer(env, (*Env).Close)
	return env, nil
}

// Open opens env at path. Open always ORs in NoTLS: see the Env doc comment
// for why the adapter's reader pool depends on this.
//
// See mdb_env_open.
func (env *Env) Open(path string, flags uint, mode os.FileMode) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	ret := C.mdb_env_open(env._env, cpath, C.uint(C.MDB_NOTLS)|C.uint(flags), C.mdb_mode_t(mode))
	if err := operrno("mdb_env_open", ret); err != nil {
		return err
	}
	env.path = path
	vv("env opened at '%v' with flags=%#x", path, flags)
	return nil
}

// Stat contains database status information. See MDB_stat.
type Stat struct {
	PSize         uint
	Depth         uint
	BranchPages   uint64
	LeafPages     uint64
	OverflowPages uint64
	Entries       uint64
}

// Stat returns statistics about the environment's main (unnamed) database.
//
// See mdb_env_stat.
func (env *Env) Stat() (*Stat, error) {
	var _stat C.MDB_stat
	ret := C.mdb_env_stat(env._env, &_stat)
	if ret != success {
		return nil, operrno("mdb_env_stat", ret)
	}
	return &Stat{
		PSize:         uint(_stat.ms_psize),
		Depth:         uint(_stat.ms_depth),
		BranchPages:   uint64(_stat.ms_branch_pages),
		LeafPages:     uint64(_stat.ms_leaf_pages),
		OverflowPages: uint64(_stat.ms_overflow_pages),
		Entries:       uint64(_stat.ms_entries),
	}, nil
}

// EnvInfo contains information about the environment. See MDB_envinfo.
type EnvInfo struct {
	MapSize    int64
	LastPNO    int64
	LastTxnID  int64
	MaxReaders uint
	NumReaders uint
}

// Info returns information about the environment, in particular the
// current map size consulted by the write pipeline's MapFull recovery.
//
// See mdb_env_info.
func (env *Env) Info() (*EnvInfo, error) {
	var _info C.MDB_envinfo
	ret := C.mdb_env_info(env._env, &_info)
	if ret != success {
		return nil, operrno("mdb_env_info", ret)
	}
	return &EnvInfo{
		MapSize:    int64(_info.me_mapsize),
		LastPNO:    int64(_info.me_last_pgno),
		LastTxnID:  int64(_info.me_last_txnid),
		MaxReaders: uint(_info.me_maxreaders),
		NumReaders: uint(_info.me_numreaders),
	}, nil
}

// SetMapSize sets the size of the environment memory map. It may be called
// on a closed (not yet opened) Env, or on an open Env provided no
// transactions are active in the current process — the write pipeline's
// MapFull recovery relies on the latter, which is safe because Environment
// serializes writers and the RTX pool's reset/renew cycle means no reader
// holds a stale map view across the resize for long.
//
// See mdb_env_set_mapsize.
func (env *Env) SetMapSize(size int64) error {
	if size < 0 {
		return errNegSize
	}
	ret := C.mdb_env_set_mapsize(env._env, C.size_t(size))
	if err := operrno("mdb_env_set_mapsize", ret); err != nil {
		return err
	}
	vv("env '%v' mapsize set to %v bytes", env.path, size)
	return nil
}

// SetMaxReaders sets the maximum number of reader slots in the environment.
//
// See mdb_env_set_maxreaders.
func (env *Env) SetMaxReaders(n int) error {
	if n < 0 {
		return errNegSize
	}
	ret := C.mdb_env_set_maxreaders(env._env, C.uint(n))
	return operrno("mdb_env_set_maxreaders", ret)
}

// SetMaxDBs sets the maximum number of named databases for the environment.
//
// See mdb_env_set_maxdbs.
func (env *Env) SetMaxDBs(n int) error {
	if n < 0 {
		return errNegSize
	}
	ret := C.mdb_env_set_maxdbs(env._env, C.MDB_dbi(n))
	return operrno("mdb_env_set_maxdbs", ret)
}

// MaxKeySize returns the maximum allowed length for a key.
//
// See mdb_env_get_maxkeysize.
func (env *Env) MaxKeySize() int {
	return int(C.mdb_env_get_maxkeysize(env._env))
}

// ReaderCheck clears stale entries from the reader lock table (left behind
// by a process that crashed while holding a read transaction) and reports
// how many were cleared. Exposed as Environment.ReaderCheck; see
// SPEC_FULL.md §4.9.
//
// See mdb_reader_check.
func (env *Env) ReaderCheck() (int, error) {
	var dead C.int
	ret := C.mdb_reader_check(env._env, &dead)
	return int(dead), operrno("mdb_reader_check", ret)
}

func (env *Env) close() bool {
	env.closeLock.Lock()
	defer env.closeLock.Unlock()
	if env._env == nil {
		return false
	}
	C.mdb_env_close(env._env)
	vv("env '%v' closed", env.path)
	env._env = nil
	return true
}

// BeginTxn starts a new transaction against env, read-only when readonly is
// true. The caller must Commit or Abort it.
//
// See mdb_txn_begin.
func (env *Env) BeginTxn(readonly bool) (*Txn, error) {
	return beginTxn(env, readonly)
}

// Close shuts down the environment and releases the memory map.
//
// See mdb_env_close.
func (env *Env) Close() error {
	if env.close() {
		runtime.SetFinalizer(env, nil)
		return nil
	}
	return errors.New("lmdb: environment is already closed")
}
