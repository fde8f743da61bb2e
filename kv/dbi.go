package kv

import "errors"

var (
	errRangeNeedsStart = errors.New("kv: range tag requires a start key")
	errRangeNeedsStop  = errors.New("kv: range tag requires a stop key")
)

// DBIHandle is a named sub-database within an Environment (spec.md §3/§4.5).
// Its own key/value scratch buffers back the write path only; the read
// path (point reads and range scans) uses the borrowing RTX's buffers
// instead, since those must be safe for concurrent, independent use by
// many readers while the write path is already serialized by
// Environment.writeMu.
type DBIHandle struct {
	name string
	dbi  EngineDBI

	keyBuf *Buffer
	valBuf *Buffer

	encoder  Encoder
	measurer Measurer
	decoder  Decoder
}

func (h *DBIHandle) encodeKey(buf *Buffer, x interface{}, typ ValueType) error {
	buf.Reset()
	n, err := h.encoder(buf.Input(), x, typ)
	if err != nil {
		return &Error{Kind: KindEncodingOverflow, Op: "encode-key", Err: err}
	}
	buf.Fill(n)
	return nil
}

// encodeVal encodes x into buf, growing buf once and retrying on overflow
// (spec.md §4.1: only the value cell auto-grows).
func (h *DBIHandle) encodeVal(buf *Buffer, x interface{}, typ ValueType) error {
	buf.Reset()
	n, err := h.encoder(buf.Input(), x, typ)
	if err == nil {
		buf.Fill(n)
		return nil
	}
	if !isOverflow(err) {
		return &Error{Kind: KindNative, Op: "encode-val", Err: err}
	}
	buf.Grow(2 * h.measurer(x, typ))
	n, err = h.encoder(buf.Input(), x, typ)
	if err != nil {
		return &Error{Kind: KindEncodingOverflow, Op: "encode-val", Err: err}
	}
	buf.Fill(n)
	return nil
}

// put writes key/val under flags within txn. Only ever called from the
// write pipeline, which holds Environment.writeMu for the duration.
func (h *DBIHandle) put(txn EngineTxn, key, val interface{}, keyType, valType ValueType, flags PutFlag) error {
	if err := h.encodeKey(h.keyBuf, key, keyType); err != nil {
		return err
	}
	if err := h.encodeVal(h.valBuf, val, valType); err != nil {
		return err
	}
	return txn.Put(h.dbi, h.keyBuf.Output(), h.valBuf.Output(), flags)
}

func (h *DBIHandle) del(txn EngineTxn, key interface{}, keyType ValueType) error {
	if err := h.encodeKey(h.keyBuf, key, keyType); err != nil {
		return err
	}
	return txn.Del(h.dbi, h.keyBuf.Output())
}

// getKV performs a point read using rtx's own key/value buffers, so
// concurrent readers never share scratch space (spec.md §4.5 get_kv).
func (h *DBIHandle) getKV(rtx *RTX, txn EngineTxn, key interface{}, keyType ValueType) ([]byte, error) {
	if err := h.encodeKey(rtx.keyBuf, key, keyType); err != nil {
		return nil, err
	}
	v, err := txn.Get(h.dbi, rtx.keyBuf.Output())
	if err != nil {
		return nil, err
	}
	rtx.valBuf.SetRaw(v)
	return rtx.valBuf.Output(), nil
}

// iterateKV opens a cursor bound to a decoded range over rtx's range-bound
// buffers (spec.md §4.5 iterate_kv).
func (h *DBIHandle) iterateKV(rtx *RTX, txn EngineTxn, tag RangeTag, start, stop interface{}, keyType ValueType) (*CursorIterator, error) {
	desc, err := decodeRange(tag)
	if err != nil {
		return nil, err
	}

	var startBytes, stopBytes []byte
	if desc.hasStart {
		if start == nil {
			return nil, &Error{Kind: KindNative, Op: "iterate-kv", Err: errRangeNeedsStart}
		}
		if err := h.encodeKey(rtx.rangeStartBuf, start, keyType); err != nil {
			return nil, err
		}
		startBytes = append([]byte(nil), rtx.rangeStartBuf.Output()...)
	}
	if desc.hasStop {
		if stop == nil {
			return nil, &Error{Kind: KindNative, Op: "iterate-kv", Err: errRangeNeedsStop}
		}
		if err := h.encodeKey(rtx.rangeStopBuf, stop, keyType); err != nil {
			return nil, err
		}
		stopBytes = append([]byte(nil), rtx.rangeStopBuf.Output()...)
	}

	cur, err := txn.OpenCursor(h.dbi)
	if err != nil {
		return nil, err
	}
	return newCursorIterator(txn, h.dbi, cur, desc, startBytes, stopBytes), nil
}
