package lmdb

/*
#include <lmdb.h>
*/
import "C"

import (
	"errors"
	"fmt"
)

// OpError is returned by the cgo-facing lmdb functions on a non-success
// return code. It carries the C API name so callers (and kv.Error wrapping
// it) can classify the failure without re-parsing a formatted string.
type OpError struct {
	Op   string
	Errno int
}

func (e *OpError) Error() string {
	if msg := C.GoString(C.mdb_strerror(C.int(e.Errno))); msg != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: errno %d", e.Op, e.Errno)
}

// operrno converts a raw LMDB return code into an error, or nil on success.
func operrno(op string, ret C.int) error {
	if ret == success {
		return nil
	}
	return &OpError{Op: op, Errno: int(ret)}
}

// IsNotFound reports whether err is MDB_NOTFOUND, however it was wrapped.
func IsNotFound(err error) bool {
	oe, ok := asOpError(err)
	return ok && oe.Errno == int(C.MDB_NOTFOUND)
}

// IsMapFull reports whether err is MDB_MAP_FULL.
func IsMapFull(err error) bool {
	oe, ok := asOpError(err)
	return ok && oe.Errno == int(C.MDB_MAP_FULL)
}

// IsBadReaderLock reports whether err is MDB_BAD_RSLOT / MDB_READERS_FULL,
// LMDB's two ways of saying the reader lock table can't accommodate this
// process (usually because it already has another Env handle open on the
// same directory).
func IsBadReaderLock(err error) bool {
	oe, ok := asOpError(err)
	if !ok {
		return false
	}
	return oe.Errno == int(C.MDB_BAD_RSLOT) || oe.Errno == int(C.MDB_READERS_FULL)
}

func asOpError(err error) (*OpError, bool) {
	var oe *OpError
	if !errors.As(err, &oe) {
		return nil, false
	}
	return oe, true
}
