package expr

import (
	"fmt"
	"math"
)

// A builtin is one entry of the fixed function allow-list. Arity is checked
// at parse time; domain constraints at evaluation time.
type builtin struct {
	minArgs, maxArgs int // maxArgs < 0 means unbounded
	apply            func(args []float64) (float64, error)
}

func unaryFn(f func(float64) float64) *builtin {
	return &builtin{1, 1, func(args []float64) (float64, error) {
		return f(args[0]), nil
	}}
}

var builtins = map[string]*builtin{
	"sin": unaryFn(math.Sin),
	"cos": unaryFn(math.Cos),
	"tan": unaryFn(math.Tan),
	"asin": {1, 1, func(args []float64) (float64, error) {
		if args[0] < -1 || args[0] > 1 {
			return 0, fmt.Errorf("math domain error: asin of %v", args[0])
		}
		return math.Asin(args[0]), nil
	}},
	"acos": {1, 1, func(args []float64) (float64, error) {
		if args[0] < -1 || args[0] > 1 {
			return 0, fmt.Errorf("math domain error: acos of %v", args[0])
		}
		return math.Acos(args[0]), nil
	}},
	"atan": unaryFn(math.Atan),
	"sqrt": {1, 1, func(args []float64) (float64, error) {
		if args[0] < 0 {
			return 0, fmt.Errorf("math domain error: sqrt of %v", args[0])
		}
		return math.Sqrt(args[0]), nil
	}},
	"log": {1, 2, func(args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, fmt.Errorf("math domain error: log of %v", args[0])
		}
		if len(args) == 1 {
			return math.Log(args[0]), nil
		}
		base := args[1]
		if base <= 0 || base == 1 {
			return 0, fmt.Errorf("math domain error: log base %v", base)
		}
		return math.Log(args[0]) / math.Log(base), nil
	}},
	"log10": {1, 1, func(args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, fmt.Errorf("math domain error: log10 of %v", args[0])
		}
		return math.Log10(args[0]), nil
	}},
	"exp":   unaryFn(math.Exp),
	"fabs":  unaryFn(math.Abs),
	"abs":   unaryFn(math.Abs),
	"floor": unaryFn(math.Floor),
	"ceil":  unaryFn(math.Ceil),
	"round": {1, 2, func(args []float64) (float64, error) {
		if len(args) == 1 {
			return math.Round(args[0]), nil
		}
		p := math.Pow(10, math.Trunc(args[1]))
		return math.Round(args[0]*p) / p, nil
	}},
	"min": {1, -1, func(args []float64) (float64, error) {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Min(m, a)
		}
		return m, nil
	}},
	"max": {1, -1, func(args []float64) (float64, error) {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Max(m, a)
		}
		return m, nil
	}},
	"pow": {2, 2, func(args []float64) (float64, error) {
		return pow(args[0], args[1])
	}},
}

func pow(x, y float64) (float64, error) {
	r := math.Pow(x, y)
	if math.IsNaN(r) && !math.IsNaN(x) && !math.IsNaN(y) {
		return 0, fmt.Errorf("math domain error: %v ** %v", x, y)
	}
	return r, nil
}

// floorDiv matches the source schemas' // operator: division rounded toward
// negative infinity.
func floorDiv(l, r float64) float64 {
	return math.Floor(l / r)
}

// pyMod matches the source schemas' % operator: the result takes the sign of
// the divisor.
func pyMod(l, r float64) float64 {
	m := math.Mod(l, r)
	if m != 0 && (m < 0) != (r < 0) {
		m += r
	}
	return m
}
