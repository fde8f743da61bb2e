package kv

// KV is a materialized key/value view returned by a scan. It is a copy: the
// adapter's lmdb binding already copies bytes out of the native memory map
// on every read, so a KV remains valid past the iterator step that produced
// it (unlike the transient, step-scoped view the native engine itself
// hands back).
type KV struct {
	Key []byte
	Val []byte
}

// CursorIterator is a lazy, single-pass, non-restartable walk over one
// range of one DBI (spec.md §4.4). Call HasNext before every Next; once
// HasNext returns false the iterator is done and must not be reused.
type CursorIterator struct {
	txn  EngineTxn
	dbi  EngineDBI
	cur  EngineCursor
	desc rangeDescriptor
	start []byte
	stop  []byte

	started bool
	ended   bool
	err     error

	curK, curV []byte
}

func newCursorIterator(txn EngineTxn, dbi EngineDBI, cur EngineCursor, desc rangeDescriptor, start, stop []byte) *CursorIterator {
	return &CursorIterator{txn: txn, dbi: dbi, cur: cur, desc: desc, start: start, stop: stop}
}

// HasNext advances the iterator and reports whether a value is available.
// The first call seeks to the range's starting position; subsequent calls
// step once in the range's direction. A stop bound, when present, is
// checked via the native comparator against the freshly stepped-to key.
func (it *CursorIterator) HasNext() bool {
	if it.ended {
		return false
	}

	var ok bool
	if !it.started {
		it.started = true
		ok = it.seek()
	} else {
		ok = it.step()
	}
	if !ok {
		it.ended = true
		return false
	}

	if it.desc.hasStop {
		cmp := it.txn.Cmp(it.dbi, it.curK, it.stop)
		switch {
		case cmp == 0:
			it.ended = true
			return it.desc.includeStop
		case it.desc.forward && cmp > 0, !it.desc.forward && cmp < 0:
			it.ended = true
			return false
		}
	}
	return true
}

// Next returns the key/value the most recent HasNext positioned on.
func (it *CursorIterator) Next() KV {
	return KV{Key: it.curK, Val: it.curV}
}

// Err reports any native error that ended the iteration early. A nil Err
// after HasNext returns false means the range was exhausted normally.
func (it *CursorIterator) Err() error { return it.err }

// Close releases the underlying native cursor. Safe to call more than once.
func (it *CursorIterator) Close() {
	if it.cur == nil {
		return
	}
	it.cur.Close()
	it.cur = nil
}

func (it *CursorIterator) seek() bool {
	if !it.desc.hasStart {
		op := OpFirst
		if !it.desc.forward {
			op = OpLast
		}
		k, v, err := it.cur.Get(nil, op)
		if err != nil {
			it.setEndErr(err)
			return false
		}
		it.curK, it.curV = k, v
		return true
	}

	k, v, err := it.cur.Get(it.start, OpSeek)
	if err != nil {
		if !isNotFound(err) {
			it.setEndErr(err)
			return false
		}
		// OpSeek (SET_RANGE) found nothing >= start.
		if it.desc.forward {
			return false
		}
		// Backward range: every key in the DB is < start, so the largest
		// key <= start is simply the last key, if any.
		k2, v2, err2 := it.cur.Get(nil, OpLast)
		if err2 != nil {
			it.setEndErr(err2)
			return false
		}
		it.curK, it.curV = k2, v2
		return true
	}

	it.curK, it.curV = k, v
	exact := it.txn.Cmp(it.dbi, k, it.start) == 0

	if !it.desc.forward && !exact {
		// SET_RANGE lands on the smallest key > start; a backward range
		// wants the largest key <= start, one step back from there.
		return it.step()
	}
	if exact && !it.desc.includeStart {
		return it.step()
	}
	return true
}

func (it *CursorIterator) step() bool {
	op := OpNext
	if !it.desc.forward {
		op = OpPrev
	}
	k, v, err := it.cur.Get(nil, op)
	if err != nil {
		it.setEndErr(err)
		return false
	}
	it.curK, it.curV = k, v
	return true
}

func (it *CursorIterator) setEndErr(err error) {
	if !isNotFound(err) {
		it.err = err
	}
}
