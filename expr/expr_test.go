package expr

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func TestAccepted(t *testing.T) {
	cases := []struct {
		src  string
		raw  float64
		want float64
	}{
		{"raw", 42, 42},
		{"raw * 0.01873128 + (-38.682956)", 1000, 1000*0.01873128 + (-38.682956)},
		{"sqrt(raw)", 16, 4},
		{"math.sqrt(raw)", 16, 4},
		{"raw ** 2", 3, 9},
		{"-2 ** 2", 0, -4},
		{"2 ** -1", 0, 0.5},
		{"7 // 2", 0, 3},
		{"-7 // 2", 0, -4},
		{"7 % 3", 0, 1},
		{"-7 % 3", 0, 2},
		{"raw / 4", 10, 2.5},
		{"(raw + 1) * (raw - 1)", 5, 24},
		{"+raw", -3, -3},
		{"--raw", -3, -3},
		{"raw if raw > 0 else -raw", -8, 8},
		{"raw if raw > 0 else -raw", 8, 8},
		{"1 if raw == 16 else 0", 16, 1},
		{"1 if raw != 16 else 0", 16, 0},
		{"raw > 2 and raw < 5", 3, 1},
		{"raw > 2 and raw < 5", 7, 0},
		{"raw < 2 or raw > 5", 7, 1},
		{"0 < raw < 100", 50, 1},
		{"0 < raw < 100", 150, 0},
		{"0 < raw < 100", -1, 0},
		{"1 <= raw <= 3 <= raw", 3, 1},
		{"1 <= raw <= 3 <= raw", 2, 0},
		{"raw == raw == 1", 1, 1},
		{"'a' < 'b' < 'c'", 0, 1},
		{"min(raw, 10)", 25, 10},
		{"max(raw, 10, 100)", 25, 100},
		{"round(raw * 3.14159, 2)", 1, 3.14},
		{"round(2.5)", 0, 3},
		{"floor(raw / 2)", 7, 3},
		{"ceil(raw / 2)", 7, 4},
		{"abs(-raw)", 12, 12},
		{"fabs(-raw)", 12, 12},
		{"log(raw)", math.E, 1},
		{"log(8, 2)", 0, 3},
		{"log10(1000)", 0, 3},
		{"exp(0)", 0, 1},
		{"pow(2, 10)", 0, 1024},
		{"math.log10(raw)", 100, 2},
		{"atan(0)", 0, 0},
		{"sin(0) + cos(0) + tan(0)", 0, 1},
		{"asin(1)", 0, math.Pi / 2},
		{"acos(1)", 0, 0},
		{"'3.5'", 0, 3.5},
		{"'a' == 'a'", 0, 1},
		{"\"a\" < \"b\"", 0, 1},
		{"1e3 + .5", 0, 1000.5},
	}

	for _, c := range cases {
		got, err := Eval(c.src, c.raw)
		if err != nil {
			t.Fatalf("%q: %+v\n", c.src, err)
		}
		if math.Abs(got-c.want) > tolerance {
			t.Fatalf("%q with raw=%v: got %v, want %v\n", c.src, c.raw, got, c.want)
		}
	}
}

func TestRejected(t *testing.T) {
	cases := []string{
		"__import__('os')",
		"open('x')",
		"raw.bit_length()",
		"raw = 1",
		"foo",
		"raw[0]",
		"lambda x: x",
		"math.gcd(4, 6)",
		"math.pi",
		"math",
		"sqrt",
		"sqrt(1, 2)",
		"pow(2)",
		"min()",
		"raw +",
		"(raw",
		"raw raw",
		"1 if raw",
		"import os",
		"raw; raw",
		"{1: 2}",
		"[x for x in raw]",
		"",
	}

	for _, src := range cases {
		if _, err := Parse(src); err == nil {
			t.Fatalf("%q: expected parse error\n", src)
		} else if _, ok := err.(*Error); !ok {
			t.Fatalf("%q: expected *Error, got %T\n", src, err)
		}
	}
}

func TestRuntimeErrors(t *testing.T) {
	cases := []struct {
		src string
		raw float64
	}{
		{"sqrt(raw)", -1},
		{"log(raw)", 0},
		{"log10(raw)", -5},
		{"asin(raw)", 2},
		{"acos(raw)", -2},
		{"raw / 0", 1},
		{"raw // 0", 1},
		{"raw % 0", 1},
		{"(-1) ** 0.5", 0},
		{"'a' + 1", 0},
		{"'a' < 1", 0},
		{"'a'", 0},
	}

	for _, c := range cases {
		if _, err := Eval(c.src, c.raw); err == nil {
			t.Fatalf("%q with raw=%v: expected evaluation error\n", c.src, c.raw)
		} else if _, ok := err.(*Error); !ok {
			t.Fatalf("%q: expected *Error, got %T\n", c.src, err)
		}
	}
}

// Evaluation of the branch not taken must not fail.
func TestShortCircuit(t *testing.T) {
	cases := []struct {
		src  string
		raw  float64
		want float64
	}{
		{"raw / 0 if raw else 2", 0, 2},
		{"raw == 0 or 1 / raw > 0", 0, 1},
		{"raw != 0 and 1 / raw > 0", 0, 0},
		{"0 < raw < 1 / raw", 0, 0},
	}

	for _, c := range cases {
		got, err := Eval(c.src, c.raw)
		if err != nil {
			t.Fatalf("%q: %+v\n", c.src, err)
		}
		if got != c.want {
			t.Fatalf("%q with raw=%v: got %v, want %v\n", c.src, c.raw, got, c.want)
		}
	}
}

func TestProgramReuse(t *testing.T) {
	p, err := Parse("raw * 2 + 1")
	if err != nil {
		t.Fatalf("%+v\n", err)
	}

	for raw := float64(0); raw < 64; raw++ {
		a, err := p.Eval(raw)
		if err != nil {
			t.Fatalf("%+v\n", err)
		}
		b, err := p.Eval(raw)
		if err != nil {
			t.Fatalf("%+v\n", err)
		}
		if a != b || a != raw*2+1 {
			t.Fatalf("raw=%v: got %v then %v, want %v\n", raw, a, b, raw*2+1)
		}
	}
}

func TestErrorNamesExpression(t *testing.T) {
	_, err := Eval("sqrt(raw)", -4)
	if err == nil {
		t.Fatal("expected error")
	}

	exprErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T\n", err)
	}
	if exprErr.Expr != "sqrt(raw)" {
		t.Fatalf("error does not name the expression: %v\n", err)
	}
}
