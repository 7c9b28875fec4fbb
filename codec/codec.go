// Package codec maps schema type tags onto fixed-width binary layouts. It
// knows byte widths and byte order, nothing about calibration.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Endian selects the byte order applied to multi-byte numeric types.
type Endian int

const (
	Little Endian = iota
	Big
)

// ParseEndian maps the schema spelling of a byte order onto an Endian.
func ParseEndian(s string) (Endian, error) {
	switch s {
	case "little":
		return Little, nil
	case "big":
		return Big, nil
	}
	return Little, fmt.Errorf("endian must be 'little' or 'big', got %q", s)
}

func (e Endian) String() string {
	if e == Big {
		return "big"
	}
	return "little"
}

func (e Endian) order() binary.ByteOrder {
	if e == Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Bytes is the variable-length raw-bytes type tag. Fields of this type must
// carry an explicit positive byte length in the schema.
const Bytes = "bytes"

// A TypeError reports an unknown type tag or a raw-bytes field declared
// without a usable length.
type TypeError struct {
	Type   string
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %q: %s", e.Type, e.Reason)
}

var widths = map[string]int{
	"u8": 1, "i8": 1,
	"u16": 2, "i16": 2,
	"u32": 4, "i32": 4,
	"u64": 8, "i64": 8,
	"f32": 4, "float32": 4,
	"f64": 8, "float64": 8,
}

// Size returns the number of bytes a field of the given type occupies.
// byteLen is consulted only for the raw-bytes type and must be positive there.
func Size(typ string, byteLen int) (int, error) {
	if n, ok := widths[typ]; ok {
		return n, nil
	}
	if typ == Bytes {
		if byteLen <= 0 {
			return 0, &TypeError{Type: typ, Reason: "requires a positive 'bytes' attribute"}
		}
		return byteLen, nil
	}
	return 0, &TypeError{Type: typ, Reason: "unknown field type"}
}

// Decode interprets data, which must be exactly the type's width, as a value
// of the given type. Unsigned integers decode to uint64, signed to int64,
// floats to float64. The raw-bytes type returns a copy of the input so
// callers may reuse the frame buffer.
func Decode(data []byte, typ string, endian Endian) (interface{}, error) {
	if typ == Bytes {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	want, ok := widths[typ]
	if !ok {
		return nil, &TypeError{Type: typ, Reason: "unknown field type"}
	}
	if len(data) != want {
		return nil, fmt.Errorf("type %q wants %d bytes, got %d", typ, want, len(data))
	}

	ord := endian.order()

	switch typ {
	case "u8":
		return uint64(data[0]), nil
	case "i8":
		return int64(int8(data[0])), nil
	case "u16":
		return uint64(ord.Uint16(data)), nil
	case "i16":
		return int64(int16(ord.Uint16(data))), nil
	case "u32":
		return uint64(ord.Uint32(data)), nil
	case "i32":
		return int64(int32(ord.Uint32(data))), nil
	case "u64":
		return ord.Uint64(data), nil
	case "i64":
		return int64(ord.Uint64(data)), nil
	case "f32", "float32":
		return float64(math.Float32frombits(ord.Uint32(data))), nil
	case "f64", "float64":
		return math.Float64frombits(ord.Uint64(data)), nil
	}

	return nil, &TypeError{Type: typ, Reason: "unknown field type"}
}

// Append appends the binary form of v to buf under the given type tag and
// byte order, the inverse of Decode. Integer types accept any Go integer,
// float types accept float32/float64, the raw-bytes type accepts []byte.
func Append(buf []byte, typ string, endian Endian, v interface{}) ([]byte, error) {
	if typ == Bytes {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("type %q wants []byte, got %T", typ, v)
		}
		return append(buf, b...), nil
	}

	want, ok := widths[typ]
	if !ok {
		return nil, &TypeError{Type: typ, Reason: "unknown field type"}
	}

	var bits uint64
	switch typ {
	case "f32", "float32":
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		bits = uint64(math.Float32bits(float32(f)))
	case "f64", "float64":
		f, err := asFloat(v)
		if err != nil {
			return nil, err
		}
		bits = math.Float64bits(f)
	default:
		u, err := asUint(v)
		if err != nil {
			return nil, err
		}
		bits = u
	}

	scratch := make([]byte, 8)
	endian.order().PutUint64(scratch, bits)
	if endian == Big {
		return append(buf, scratch[8-want:]...), nil
	}
	return append(buf, scratch[:want]...), nil
}

func asUint(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case int32:
		return uint64(int64(n)), nil
	case uint16:
		return uint64(n), nil
	case int16:
		return uint64(int64(n)), nil
	case uint8:
		return uint64(n), nil
	case int8:
		return uint64(int64(n)), nil
	}
	return 0, fmt.Errorf("not an integer value: %T", v)
}

func asFloat(v interface{}) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	}
	return 0, fmt.Errorf("not a float value: %T", v)
}
