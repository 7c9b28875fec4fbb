// Package expr parses and evaluates calibration expressions. The accepted
// language is a closed arithmetic sublanguage over a single input variable
// named raw: numeric and string constants, unary +/-, the binary operators
// + - * / // % **, comparisons, and/or, a conditional written
// "x if cond else y", and calls to a fixed set of math functions addressed
// either bare (sqrt, log, ...) or as math.sqrt, math.log, and so on.
//
// Expressions are parsed into a typed tree before anything is evaluated; any
// construct outside the grammar above is a parse error. Evaluation sees an
// environment containing exactly raw and the function set, nothing else.
package expr

import (
	"fmt"
	"strconv"
)

// Error reports a rejected or failed expression. It always carries the
// offending expression text.
type Error struct {
	Expr string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expression %q: %s: %v", e.Expr, e.Msg, e.Err)
	}
	return fmt.Sprintf("expression %q: %s", e.Expr, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// A Program is a parsed, validated expression. Programs are immutable and
// safe for concurrent evaluation.
type Program struct {
	src  string
	root node
}

// Parse validates src against the calibration grammar and compiles it.
func Parse(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, &Error{Expr: src, Msg: "invalid token", Err: err}
	}

	p := &parser{src: src, toks: toks}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, &Error{Expr: src, Msg: fmt.Sprintf("unexpected %q after expression", tok.Value)}
	}

	return &Program{src: src, root: root}, nil
}

// Eval runs the program with raw bound to the input value and coerces the
// result to a float.
func (p *Program) Eval(raw float64) (float64, error) {
	v, err := p.root.eval(raw)
	if err != nil {
		return 0, &Error{Expr: p.src, Msg: "evaluation failed", Err: err}
	}
	f, err := resultFloat(v)
	if err != nil {
		return 0, &Error{Expr: p.src, Msg: "result is not numeric", Err: err}
	}
	return f, nil
}

// Eval parses and evaluates src in one step.
func Eval(src string, raw float64) (float64, error) {
	p, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return p.Eval(raw)
}

// Values flowing through a tree are float64, string, or bool. Arithmetic is
// defined on numbers only; strings exist so schema authors can compare
// against tags, and bools so comparisons compose with and/or and the
// conditional.

type node interface {
	eval(raw float64) (interface{}, error)
}

type literal struct{ v interface{} }

func (l literal) eval(float64) (interface{}, error) { return l.v, nil }

type variable struct{}

func (variable) eval(raw float64) (interface{}, error) { return raw, nil }

type unary struct {
	op string
	x  node
}

func (u unary) eval(raw float64) (interface{}, error) {
	v, err := u.x.eval(raw)
	if err != nil {
		return nil, err
	}
	f, err := asNumber(v)
	if err != nil {
		return nil, fmt.Errorf("unary %s: %v", u.op, err)
	}
	if u.op == "-" {
		return -f, nil
	}
	return f, nil
}

type binary struct {
	op       string
	lhs, rhs node
}

func (b binary) eval(raw float64) (interface{}, error) {
	lv, err := b.lhs.eval(raw)
	if err != nil {
		return nil, err
	}
	rv, err := b.rhs.eval(raw)
	if err != nil {
		return nil, err
	}

	l, err := asNumber(lv)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %v", b.op, err)
	}
	r, err := asNumber(rv)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %v", b.op, err)
	}

	switch b.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "//":
		if r == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return floorDiv(l, r), nil
	case "%":
		if r == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return pyMod(l, r), nil
	case "**":
		return pow(l, r)
	}
	return nil, fmt.Errorf("operator %s not implemented", b.op)
}

// compare holds a comparison chain: operands has one more entry than ops,
// and "a < b <= c" means "a < b and b <= c" with each operand evaluated once
// and the chain short-circuiting on the first false link.
type compare struct {
	ops      []string
	operands []node
}

func (c compare) eval(raw float64) (interface{}, error) {
	lv, err := c.operands[0].eval(raw)
	if err != nil {
		return nil, err
	}
	for i, op := range c.ops {
		rv, err := c.operands[i+1].eval(raw)
		if err != nil {
			return nil, err
		}
		ok, err := cmpValues(op, lv, rv)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		lv = rv
	}
	return true, nil
}

func cmpValues(op string, lv, rv interface{}) (bool, error) {
	lf, lerr := asNumber(lv)
	rf, rerr := asNumber(rv)
	if lerr == nil && rerr == nil {
		return cmpOrdered(op, lf < rf, lf == rf)
	}

	ls, lok := lv.(string)
	rs, rok := rv.(string)
	if lok && rok {
		return cmpOrdered(op, ls < rs, ls == rs)
	}

	// Mixed types: equality is decidable, ordering is not.
	switch op {
	case "==":
		return false, nil
	case "!=":
		return true, nil
	}
	return false, fmt.Errorf("operator %s: incomparable operands", op)
}

func cmpOrdered(op string, less, equal bool) (bool, error) {
	switch op {
	case "==":
		return equal, nil
	case "!=":
		return !equal, nil
	case "<":
		return less, nil
	case "<=":
		return less || equal, nil
	case ">":
		return !less && !equal, nil
	case ">=":
		return !less, nil
	}
	return false, fmt.Errorf("comparison %s not implemented", op)
}

type boolop struct {
	op       string
	lhs, rhs node
}

func (b boolop) eval(raw float64) (interface{}, error) {
	lv, err := b.lhs.eval(raw)
	if err != nil {
		return nil, err
	}

	// Short-circuit, yielding the deciding operand like the source language.
	if b.op == "and" {
		if !truthy(lv) {
			return lv, nil
		}
	} else {
		if truthy(lv) {
			return lv, nil
		}
	}
	return b.rhs.eval(raw)
}

type cond struct {
	test, then, orelse node
}

func (c cond) eval(raw float64) (interface{}, error) {
	tv, err := c.test.eval(raw)
	if err != nil {
		return nil, err
	}
	if truthy(tv) {
		return c.then.eval(raw)
	}
	return c.orelse.eval(raw)
}

type call struct {
	name string
	fn   *builtin
	args []node
}

func (c call) eval(raw float64) (interface{}, error) {
	args := make([]float64, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(raw)
		if err != nil {
			return nil, err
		}
		f, err := asNumber(v)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %v", c.name, i+1, err)
		}
		args[i] = f
	}

	res, err := c.fn.apply(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", c.name, err)
	}
	return res, nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case float64:
		return t != 0
	case string:
		return t != ""
	case bool:
		return t
	}
	return false
}

func asNumber(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

func resultFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot convert %v to float", v)
}
