package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// The token set is the whole surface area of the language: anything the lexer
// cannot match is rejected before parsing, so assignment, subscripting and
// similar host-language syntax never reach the tree builder.
var calibLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `\d+\.\d*([eE][-+]?\d+)?|\.\d+([eE][-+]?\d+)?|\d+[eE][-+]?\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `("(\\"|[^"])*")|('(\\'|[^'])*')`},
	{Name: "Op", Pattern: `\*\*|//|==|!=|<=|>=|[-+*/%<>(),.]`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
})

var (
	symbols   = calibLexer.Symbols()
	tokFloat  = symbols["Float"]
	tokInt    = symbols["Int"]
	tokString = symbols["String"]
	tokOp     = symbols["Op"]
	tokIdent  = symbols["Ident"]
	tokSpace  = symbols["Whitespace"]
)

func tokenize(src string) ([]lexer.Token, error) {
	lex, err := calibLexer.LexString("", src)
	if err != nil {
		return nil, err
	}

	var toks []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			return toks, nil
		}
		if tok.Type == tokSpace {
			continue
		}
		toks = append(toks, tok)
	}
}

// parser is a Pratt-style recursive descent parser over the token slice. One
// level per precedence tier, mirroring the source language: conditional, or,
// and, comparison, additive, multiplicative, unary, power, atom.
type parser struct {
	src  string
	toks []lexer.Token
	pos  int
}

func (p *parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (lexer.Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.Type != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tok.Value == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) acceptKeyword(kw string) bool {
	tok, ok := p.peek()
	if ok && tok.Type == tokIdent && tok.Value == kw {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &Error{Expr: p.src, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseTernary() (node, error) {
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("if") {
		return body, nil
	}

	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("else") {
		return nil, p.errorf("conditional is missing 'else'")
	}
	orelse, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return cond{test: test, then: body, orelse: orelse}, nil
}

func (p *parser) parseOr() (node, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("or") {
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = boolop{op: "or", lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (node, error) {
	lhs, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("and") {
		rhs, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		lhs = boolop{op: "and", lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseCmp() (node, error) {
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}

	// Comparisons chain: "0 < raw < 100" reads as "0 < raw and raw < 100".
	var ops []string
	operands := []node{lhs}
	for {
		op, ok := p.acceptOp("==", "!=", "<", "<=", ">", ">=")
		if !ok {
			break
		}
		rhs, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		operands = append(operands, rhs)
	}
	if len(ops) == 0 {
		return lhs, nil
	}
	return compare{ops: ops, operands: operands}, nil
}

func (p *parser) parseAdd() (node, error) {
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		lhs = binary{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseMul() (node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "//", "%")
		if !ok {
			return lhs, nil
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = binary{op: op, lhs: lhs, rhs: rhs}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.acceptOp("+", "-"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unary{op: op, x: x}, nil
	}
	return p.parsePower()
}

// parsePower binds ** tighter than a unary sign on its left and looser than
// one on its right, so -2**2 is -4 and 2**-1 is 0.5.
func (p *parser) parsePower() (node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if _, ok := p.acceptOp("."); ok {
		return nil, p.errorf("attribute access is only allowed as math.<function>")
	}

	if _, ok := p.acceptOp("**"); ok {
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binary{op: "**", lhs: base, rhs: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (node, error) {
	tok, ok := p.next()
	if !ok {
		return nil, p.errorf("unexpected end of expression")
	}

	switch tok.Type {
	case tokFloat, tokInt:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", tok.Value)
		}
		return literal{v: f}, nil

	case tokString:
		return literal{v: unquote(tok.Value)}, nil

	case tokOp:
		if tok.Value == "(" {
			inner, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, p.errorf("missing closing parenthesis")
			}
			return inner, nil
		}
		return nil, p.errorf("unexpected %q", tok.Value)

	case tokIdent:
		return p.parseIdent(tok.Value)
	}

	return nil, p.errorf("unexpected %q", tok.Value)
}

func (p *parser) parseIdent(name string) (node, error) {
	switch name {
	case "raw":
		return variable{}, nil

	case "math":
		if _, ok := p.acceptOp("."); !ok {
			return nil, p.errorf("unknown variable %q (allowed: raw)", name)
		}
		tok, ok := p.next()
		if !ok || tok.Type != tokIdent {
			return nil, p.errorf("expected function name after math.")
		}
		if _, ok := builtins[tok.Value]; !ok {
			return nil, p.errorf("function math.%s is not allowed", tok.Value)
		}
		return p.parseCall("math."+tok.Value, tok.Value)

	case "if", "else", "and", "or":
		return nil, p.errorf("unexpected keyword %q", name)
	}

	if _, ok := builtins[name]; ok {
		return p.parseCall(name, name)
	}

	if tok, ok := p.peek(); ok && tok.Type == tokOp && tok.Value == "(" {
		return nil, p.errorf("function %q is not allowed", name)
	}
	return nil, p.errorf("unknown variable %q (allowed: raw)", name)
}

func (p *parser) parseCall(display, name string) (node, error) {
	fn := builtins[name]

	if _, ok := p.acceptOp("("); !ok {
		return nil, p.errorf("function %q must be called", display)
	}

	var args []node
	if _, ok := p.acceptOp(")"); !ok {
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if _, ok := p.acceptOp(","); ok {
				continue
			}
			if _, ok := p.acceptOp(")"); ok {
				break
			}
			return nil, p.errorf("missing closing parenthesis in call to %s", display)
		}
	}

	if len(args) < fn.minArgs {
		return nil, p.errorf("%s takes at least %d argument(s), got %d", display, fn.minArgs, len(args))
	}
	if fn.maxArgs >= 0 && len(args) > fn.maxArgs {
		return nil, p.errorf("%s takes at most %d argument(s), got %d", display, fn.maxArgs, len(args))
	}

	return call{name: display, fn: fn, args: args}, nil
}

func unquote(s string) string {
	q := s[0]
	body := s[1 : len(s)-1]

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == q || body[i+1] == '\\') {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
