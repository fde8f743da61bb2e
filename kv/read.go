package kv

import "fmt"

// GetValue looks up key in dbiName and decodes the stored value, leasing an
// RTX from the pool for the duration (spec.md §4.7 get_value). Defaults:
// key_type and value_type are TypeData when the caller has no more
// specific tag to supply.
func (e *Environment) GetValue(dbiName string, key interface{}, keyType, valType ValueType) (interface{}, error) {
	if err := e.assertOpen("get-value"); err != nil {
		return nil, err
	}
	h, err := e.getDBI(dbiName)
	if err != nil {
		return nil, err
	}
	rtx, err := e.pool.Get()
	if err != nil {
		return nil, err
	}
	defer e.pool.Reset(rtx)

	raw, err := h.getKV(rtx, rtx.txn, key, keyType)
	if err != nil {
		if isNotFound(err) {
			return nil, &Error{Kind: KindNotFound, Op: "get-value"}
		}
		return nil, fmt.Errorf("kv: get-value %s: %w", dbiName, err)
	}
	return h.decoder(raw, valType)
}

// FilterFunc decides whether a scanned key/value survives RangeFilter(Count).
type FilterFunc func(k, v []byte) bool

// scan is the shared read-path helper behind every range operation: it
// resolves the DBI, leases an RTX, walks the decoded range, and always
// resets the RTX before returning (spec.md §4.7).
func (e *Environment) scan(dbiName string, tag RangeTag, start, stop interface{}, keyType ValueType, visit func(k, v []byte) (cont bool, err error)) error {
	if err := e.assertOpen("scan"); err != nil {
		return err
	}
	h, err := e.getDBI(dbiName)
	if err != nil {
		return err
	}
	rtx, err := e.pool.Get()
	if err != nil {
		return err
	}
	defer e.pool.Reset(rtx)

	it, err := h.iterateKV(rtx, rtx.txn, tag, start, stop, keyType)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.HasNext() {
		kv := it.Next()
		cont, err := visit(kv.Key, kv.Val)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return it.Err()
}

func copyKV(k, v []byte) KV {
	return KV{Key: append([]byte(nil), k...), Val: append([]byte(nil), v...)}
}

// GetFirst returns the first key/value in the range, if any.
func (e *Environment) GetFirst(dbiName string, tag RangeTag, start, stop interface{}, keyType ValueType) (KV, bool, error) {
	var out KV
	found := false
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		out = copyKV(k, v)
		found = true
		return false, nil
	})
	return out, found, err
}

// GetRange returns every key/value in the range, in range order.
func (e *Environment) GetRange(dbiName string, tag RangeTag, start, stop interface{}, keyType ValueType) ([]KV, error) {
	var out []KV
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		out = append(out, copyKV(k, v))
		return true, nil
	})
	return out, err
}

// RangeCount counts the keys in the range without materializing them.
func (e *Environment) RangeCount(dbiName string, tag RangeTag, start, stop interface{}, keyType ValueType) (int, error) {
	n := 0
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// GetSome returns up to limit key/values from the start of the range.
func (e *Environment) GetSome(dbiName string, tag RangeTag, start, stop interface{}, keyType ValueType, limit int) ([]KV, error) {
	var out []KV
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		out = append(out, copyKV(k, v))
		return len(out) < limit, nil
	})
	return out, err
}

// RangeFilter returns every key/value in the range for which pred holds.
func (e *Environment) RangeFilter(dbiName string, pred FilterFunc, tag RangeTag, start, stop interface{}, keyType ValueType) ([]KV, error) {
	var out []KV
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		if pred(k, v) {
			out = append(out, copyKV(k, v))
		}
		return true, nil
	})
	return out, err
}

// RangeFilterCount counts the key/values in the range for which pred holds.
func (e *Environment) RangeFilterCount(dbiName string, pred FilterFunc, tag RangeTag, start, stop interface{}, keyType ValueType) (int, error) {
	n := 0
	err := e.scan(dbiName, tag, start, stop, keyType, func(k, v []byte) (bool, error) {
		if pred(k, v) {
			n++
		}
		return true, nil
	})
	return n, err
}
