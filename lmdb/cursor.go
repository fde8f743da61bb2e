package lmdb

/*
#include <lmdb.h>
*/
import "C"

// CursorOp enumerates the subset of MDB_cursor_op the kv cursor iterator
// drives. See spec.md §6: {FIRST, LAST, NEXT, PREV, SET, GET_CURRENT}.
type CursorOp C.MDB_cursor_op

const (
	First      CursorOp = C.MDB_FIRST
	Last       CursorOp = C.MDB_LAST
	Next       CursorOp = C.MDB_NEXT
	Prev       CursorOp = C.MDB_PREV
	SetKey     CursorOp = C.MDB_SET
	SetRange   CursorOp = C.MDB_SET_RANGE
	GetCurrent CursorOp = C.MDB_GET_CURRENT
)

// Cursor walks the ordered key space of one DBI within one Txn.
type Cursor struct {
	txn  *Txn
	dbi  DBI
	_cur *C.MDB_cursor
}

// OpenCursor opens a cursor on dbi within txn.
//
// See mdb_cursor_open.
func (txn *Txn) OpenCursor(dbi DBI) (*Cursor, error) {
	cur := &Cursor{txn: txn, dbi: dbi}
	ret := C.mdb_cursor_open(txn._txn, C.MDB_dbi(dbi), &cur._cur)
	if ret != success {
		return nil, operrno("mdb_cursor_open", ret)
	}
	return cur, nil
}

// Get positions the cursor per op (optionally seeding it with key for SET /
// SET_RANGE) and returns the key/value at the resulting position.
//
// See mdb_cursor_get.
func (cur *Cursor) Get(key []byte, op CursorOp) (k, v []byte, err error) {
	var kval, vval C.MDB_val
	if key != nil {
		kval = bytesToVal(key)
	}
	ret := C.mdb_cursor_get(cur._cur, &kval, &vval, C.MDB_cursor_op(op))
	if ret != success {
		return nil, nil, operrno("mdb_cursor_get", ret)
	}
	return C.GoBytes(kval.mv_data, C.int(kval.mv_size)), C.GoBytes(vval.mv_data, C.int(vval.mv_size)), nil
}

// Put stores key/val at the cursor's DBI.
//
// See mdb_cursor_put.
func (cur *Cursor) Put(key, val []byte, flags uint) error {
	k := bytesToVal(key)
	v := bytesToVal(val)
	ret := C.mdb_cursor_put(cur._cur, &k, &v, C.uint(flags))
	return operrno("mdb_cursor_put", ret)
}

// Close releases the cursor. Safe to call more than once.
//
// See mdb_cursor_close.
func (cur *Cursor) Close() {
	if cur._cur == nil {
		return
	}
	C.mdb_cursor_close(cur._cur)
	cur._cur = nil
}
