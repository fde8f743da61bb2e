package lmdb

/*
#include <stdlib.h>
#include <lmdb.h>
*/
import "C"

import (
	"unsafe"
)

// Txn wraps a native LMDB transaction, read-only or read-write.
//
// A read-only Txn may be freely handed between goroutines because Env.Open
// always sets NoTLS (see the Env doc comment); it must still only be used
// by one goroutine at a time, which the kv package's RTX pool guarantees by
// construction (a leased RTX has exactly one borrower).
//
// A read-write Txn must only be used by the goroutine that created it and
// committed/aborted exactly once.
type Txn struct {
	env      *Env
	_txn     *C.MDB_txn
	readonly bool
}

// beginTxn starts a new top-level transaction against env.
//
// See mdb_txn_begin.
func beginTxn(env *Env, readonly bool) (*Txn, error) {
	var flags C.uint
	if readonly {
		flags = C.MDB_RDONLY
	}
	txn := &Txn{env: env, readonly: readonly}
	ret := C.mdb_txn_begin(env._env, nil, flags, &txn._txn)
	if ret != success {
		return nil, operrno("mdb_txn_begin", ret)
	}
	vv("txn begun on gid=%v readonly=%v", CurGID(), readonly)
	return txn, nil
}

// Commit commits all operations of the transaction into the database.
//
// See mdb_txn_commit.
func (txn *Txn) Commit() error {
	ret := C.mdb_txn_commit(txn._txn)
	txn._txn = nil
	err := operrno("mdb_txn_commit", ret)
	vv("txn commit on gid=%v err='%v'", CurGID(), err)
	return err
}

// Abort discards all operations of the transaction.
//
// See mdb_txn_abort.
func (txn *Txn) Abort() {
	if txn._txn == nil {
		return
	}
	C.mdb_txn_abort(txn._txn)
	txn._txn = nil
	vv("txn aborted on gid=%v", CurGID())
}

// Reset aborts the read-only transaction but keeps the slot in the reader
// lock table reserved, so a later Renew is cheap. Only valid for read-only
// Txns; this is the primitive the kv package's RTX type cycles through on
// every pool release.
//
// See mdb_txn_reset.
func (txn *Txn) Reset() {
	C.mdb_txn_reset(txn._txn)
}

// Renew reuses the reader lock table slot reserved by a prior Reset to
// start a new read-only transaction with a fresh snapshot.
//
// See mdb_txn_renew.
func (txn *Txn) Renew() error {
	ret := C.mdb_txn_renew(txn._txn)
	return operrno("mdb_txn_renew", ret)
}

// OpenDBI opens (creating if create is true and the DBI does not exist) the
// named sub-database and returns its handle.
//
// See mdb_dbi_open.
func (txn *Txn) OpenDBI(name string, create bool) (DBI, error) {
	var cname *C.char
	if name != "" {
		cname = C.CString(name)
		defer C.free(unsafe.Pointer(cname))
	}
	var flags C.uint
	if create {
		flags = C.MDB_CREATE
	}
	var dbi C.MDB_dbi
	ret := C.mdb_dbi_open(txn._txn, cname, flags, &dbi)
	if ret != success {
		return 0, operrno("mdb_dbi_open", ret)
	}
	return DBI(dbi), nil
}

// Drop empties the database. If del is true the DBI handle is also closed
// and its slot released (spec.md's drop_dbi); otherwise only the contents
// are cleared and the handle remains valid (clear_dbi).
//
// See mdb_drop.
func (txn *Txn) Drop(dbi DBI, del bool) error {
	ret := C.mdb_drop(txn._txn, C.MDB_dbi(dbi), cboolInt(del))
	return operrno("mdb_drop", ret)
}

// Get looks up key in dbi and returns a copy of the value, or an error
// satisfying IsNotFound if the key is absent.
//
// See mdb_get.
func (txn *Txn) Get(dbi DBI, key []byte) ([]byte, error) {
	k := bytesToVal(key)
	var v C.MDB_val
	ret := C.mdb_get(txn._txn, C.MDB_dbi(dbi), &k, &v)
	if ret != success {
		return nil, operrno("mdb_get", ret)
	}
	return C.GoBytes(v.mv_data, C.int(v.mv_size)), nil
}

// Put stores key/val in dbi under the given flags.
//
// See mdb_put.
func (txn *Txn) Put(dbi DBI, key, val []byte, flags uint) error {
	k := bytesToVal(key)
	v := bytesToVal(val)
	ret := C.mdb_put(txn._txn, C.MDB_dbi(dbi), &k, &v, C.uint(flags))
	return operrno("mdb_put", ret)
}

// Del removes key from dbi.
//
// See mdb_del.
func (txn *Txn) Del(dbi DBI, key []byte) error {
	k := bytesToVal(key)
	ret := C.mdb_del(txn._txn, C.MDB_dbi(dbi), &k, nil)
	return operrno("mdb_del", ret)
}

// Stat returns B-tree statistics for dbi (used for Environment.Stat's
// entry-count reporting).
//
// See mdb_stat.
func (txn *Txn) Stat(dbi DBI) (*Stat, error) {
	var s C.MDB_stat
	ret := C.mdb_stat(txn._txn, C.MDB_dbi(dbi), &s)
	if ret != success {
		return nil, operrno("mdb_stat", ret)
	}
	return &Stat{
		PSize:         uint(s.ms_psize),
		Depth:         uint(s.ms_depth),
		BranchPages:   uint64(s.ms_branch_pages),
		LeafPages:     uint64(s.ms_leaf_pages),
		OverflowPages: uint64(s.ms_overflow_pages),
		Entries:       uint64(s.ms_entries),
	}, nil
}

// Cmp compares a and b as keys of dbi using LMDB's native key comparator.
// The cursor iterator uses this to decide whether a stepped-to key has
// passed a range's stop bound.
//
// See mdb_cmp.
func (txn *Txn) Cmp(dbi DBI, a, b []byte) int {
	av := bytesToVal(a)
	bv := bytesToVal(b)
	return int(C.mdb_cmp(txn._txn, C.MDB_dbi(dbi), &av, &bv))
}

func bytesToVal(b []byte) C.MDB_val {
	if len(b) == 0 {
		return C.MDB_val{mv_size: 0, mv_data: nil}
	}
	return C.MDB_val{mv_size: C.size_t(len(b)), mv_data: unsafe.Pointer(&b[0])}
}

func cboolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
