package codec

import (
	"bytes"
	"math"
	mrand "math/rand"
	"testing"
	"time"
)

const Trials = 512

var intTypes = []string{"u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64"}

func TestIntRoundTrip(t *testing.T) {
	for _, endian := range []Endian{Little, Big} {
		for _, typ := range intTypes {
			width, err := Size(typ, 0)
			if err != nil {
				t.Fatalf("%+v\n", err)
			}

			for trial := 0; trial < Trials; trial++ {
				bits := mrand.Uint64()
				if width < 8 {
					bits &= 1<<(uint(width)*8) - 1
				}

				buf, err := Append(nil, typ, endian, bits)
				if err != nil {
					t.Fatalf("%+v\n", err)
				}
				if len(buf) != width {
					t.Fatalf("%s: encoded %d bytes, want %d\n", typ, len(buf), width)
				}

				v, err := Decode(buf, typ, endian)
				if err != nil {
					t.Fatalf("%+v\n", err)
				}

				var got uint64
				switch n := v.(type) {
				case uint64:
					got = n
				case int64:
					got = uint64(n) & (1<<(uint(width)*8) - 1)
					if width == 8 {
						got = uint64(n)
					}
				default:
					t.Fatalf("%s: decoded %T, want integer\n", typ, v)
				}

				if got != bits {
					t.Fatalf("%s %s: round trip %X != %X\n", typ, endian, got, bits)
				}
			}
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	for _, endian := range []Endian{Little, Big} {
		for trial := 0; trial < Trials; trial++ {
			f := mrand.NormFloat64() * 1e3

			buf, err := Append(nil, "f64", endian, f)
			if err != nil {
				t.Fatalf("%+v\n", err)
			}
			v, err := Decode(buf, "f64", endian)
			if err != nil {
				t.Fatalf("%+v\n", err)
			}
			if v.(float64) != f {
				t.Fatalf("f64 %s: round trip %v != %v\n", endian, v, f)
			}

			f32 := float32(f)
			buf, err = Append(nil, "f32", endian, f32)
			if err != nil {
				t.Fatalf("%+v\n", err)
			}
			v, err = Decode(buf, "f32", endian)
			if err != nil {
				t.Fatalf("%+v\n", err)
			}
			if float32(v.(float64)) != f32 {
				t.Fatalf("f32 %s: round trip %v != %v\n", endian, v, f32)
			}
		}
	}
}

func TestKnownValues(t *testing.T) {
	v, err := Decode([]byte{0x12, 0x34}, "u16", Big)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if v.(uint64) != 0x1234 {
		t.Fatalf("u16 big: %X != 1234\n", v)
	}

	v, err = Decode([]byte{0x12, 0x34}, "u16", Little)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if v.(uint64) != 0x3412 {
		t.Fatalf("u16 little: %X != 3412\n", v)
	}

	v, err = Decode([]byte{0xFF}, "i8", Big)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if v.(int64) != -1 {
		t.Fatalf("i8: %d != -1\n", v)
	}

	buf, err := Append(nil, "f64", Big, math.Pi)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	v, err = Decode(buf, "f64", Big)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if v.(float64) != math.Pi {
		t.Fatalf("f64: %v != pi\n", v)
	}
}

func TestBytesPassthrough(t *testing.T) {
	src := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	n, err := Size(Bytes, len(src))
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if n != len(src) {
		t.Fatalf("bytes size: %d != %d\n", n, len(src))
	}

	v, err := Decode(src, Bytes, Big)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	if !bytes.Equal(v.([]byte), src) {
		t.Fatalf("bytes: %X != %X\n", v, src)
	}

	// Decoded bytes must be a copy, not an alias of the frame buffer.
	src[0] = 0x00
	if v.([]byte)[0] != 0xDE {
		t.Fatal("decoded bytes alias the input buffer")
	}
}

func TestTypeErrors(t *testing.T) {
	if _, err := Size("q128", 0); err == nil {
		t.Fatal("expected error for unknown type")
	} else if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected TypeError, got %T\n", err)
	}

	if _, err := Size(Bytes, 0); err == nil {
		t.Fatal("expected error for bytes without length")
	}
	if _, err := Size(Bytes, -3); err == nil {
		t.Fatal("expected error for negative bytes length")
	}

	if _, err := Decode([]byte{0, 1, 2}, "u32", Little); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestParseEndian(t *testing.T) {
	for s, want := range map[string]Endian{"little": Little, "big": Big} {
		e, err := ParseEndian(s)
		if err != nil {
			t.Fatalf("%+v\n", err)
		}
		if e != want {
			t.Fatalf("%s: %v != %v\n", s, e, want)
		}
	}

	if _, err := ParseEndian("middle"); err == nil {
		t.Fatal("expected error for unknown endian")
	}
}

func init() {
	mrand.Seed(time.Now().UnixNano())
}
