package kv

import (
	"errors"
	"fmt"
	"strings"
)

// ValueType tags how a key or value should be encoded/decoded. The
// serialization layer itself is out of scope (spec.md §1); Options.Encoder/
// Decoder/Measurer are the collaborator this package calls out to, exactly
// as spec.md §6 names put_buffer/measure_size as externally supplied.
type ValueType int

const (
	TypeData ValueType = iota
	TypeString
	TypeLong
	TypeBytes
)

// Encoder writes the encoding of v (tagged typ) into dst and returns the
// number of bytes written. When dst is too small it must return an error
// whose message contains "BufferOverflow" (spec.md §4.1/§6) so the caller
// can distinguish overflow from any other encode failure.
type Encoder func(dst []byte, v interface{}, typ ValueType) (n int, err error)

// Measurer reports how many bytes v would need once encoded, consulted
// only after an Encoder overflow to size the replacement buffer.
type Measurer func(v interface{}, typ ValueType) int

// Decoder is the paired read-side collaborator.
type Decoder func(b []byte, typ ValueType) (interface{}, error)

func isOverflow(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BufferOverflow")
}

// RawEncoder is the default Encoder: it treats v as a []byte or string and
// copies it verbatim. Real deployments supply a richer Encoder (e.g. one
// that understands the full Datalevin-style value-type tag set); this one
// is a minimal stand-in so the adapter is independently testable.
func RawEncoder(dst []byte, v interface{}, _ ValueType) (int, error) {
	var b []byte
	switch x := v.(type) {
	case []byte:
		b = x
	case string:
		b = []byte(x)
	default:
		return 0, fmt.Errorf("kv: RawEncoder: unsupported value type %T", v)
	}
	if len(b) > len(dst) {
		return 0, errors.New("kv: RawEncoder: BufferOverflow")
	}
	copy(dst, b)
	return len(b), nil
}

// RawMeasurer is the Measurer paired with RawEncoder.
func RawMeasurer(v interface{}, _ ValueType) int {
	switch x := v.(type) {
	case []byte:
		return len(x)
	case string:
		return len(x)
	default:
		return 64
	}
}

// RawDecoder is the Decoder paired with RawEncoder: it copies the raw bytes
// out so the result outlives the RTX lease that produced it.
func RawDecoder(b []byte, _ ValueType) (interface{}, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
