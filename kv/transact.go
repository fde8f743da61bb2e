package kv

import "fmt"

// OpKind distinguishes a put from a delete within a write batch.
type OpKind int

const (
	OpPut OpKind = iota
	OpDel
)

// WriteOp is one put or delete queued against a Transact call.
type WriteOp struct {
	Kind    OpKind
	DBI     string
	Key     interface{}
	KeyType ValueType
	Val     interface{}
	ValType ValueType
	Flags   PutFlag
}

// Transact applies ops atomically: a single native write transaction holds
// every op, committing once at the end (spec.md §4.6). If the engine
// reports MapFull mid-batch, the environment's map is resized to ten times
// its current size and the entire batch is retried from scratch against a
// fresh write transaction, recursively, with no bound on the number of
// retries.
//
// Only one Transact may run at a time per Environment: writeMu serializes
// callers before any native write lock is even acquired, which is also
// what keeps each DBI's write-path scratch buffers (DBIHandle.keyBuf/
// valBuf) safe despite not being independently synchronized.
func (e *Environment) Transact(ops []WriteOp) error {
	if err := e.assertOpen("transact"); err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.transactLocked(ops)
}

func (e *Environment) transactLocked(ops []WriteOp) error {
	txn, err := e.engine.BeginWrite()
	if err != nil {
		return err
	}

	for _, op := range ops {
		h, err := e.getDBI(op.DBI)
		if err != nil {
			txn.Abort()
			return err
		}
		switch op.Kind {
		case OpPut:
			if err := h.put(txn, op.Key, op.Val, op.KeyType, op.ValType, op.Flags); err != nil {
				txn.Abort()
				return e.recoverMapFull(err, ops)
			}
		case OpDel:
			if err := h.del(txn, op.Key, op.KeyType); err != nil {
				txn.Abort()
				return e.recoverMapFull(err, ops)
			}
		}
	}

	if err := txn.Commit(); err != nil {
		return e.recoverMapFull(err, ops)
	}
	e.metrics.commits.Inc()
	return nil
}

func (e *Environment) recoverMapFull(err error, ops []WriteOp) error {
	if !isMapFull(err) {
		return fmt.Errorf("kv: transact failed for batch of %d ops: %w", len(ops), err)
	}
	info, ierr := e.engine.Info()
	if ierr != nil {
		return ierr
	}
	if err := e.engine.SetMapSize(info.MapSize * 10); err != nil {
		return err
	}
	e.metrics.mapFullRetries.Inc()
	return e.transactLocked(ops)
}
