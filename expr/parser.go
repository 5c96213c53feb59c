package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Parse compiles a condition source string into an AST.
//
// Grammar (lowest to highest precedence):
//
//	or     := and ( "or" and )*
//	and    := unary ( "and" unary )*
//	unary  := "not" unary | cmp
//	cmp    := term ( ("=="|"!="|"<"|"<="|">"|">=") term )?
//	term   := "(" or ")" | literal | field
//
// Literals are decimal numbers, single- or double-quoted strings, and the
// keywords true/false. Any other identifier is a field reference.
func Parse(src string) (Expr, error) {
	p := &parser{src: src}
	p.next()
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: p.tok.pos, Msg: "unexpected " + p.tok.describe()}
	}
	return e, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp     // == != < <= > >=
	tokLParen
	tokRParen
	tokBad
)

type token struct {
	kind tokenKind
	pos  int
	text string
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of condition"
	default:
		return "\"" + t.text + "\""
	}
}

type parser struct {
	src string
	off int
	tok token
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isKeyword("not") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokOp {
		return left, nil
	}
	var op Op
	switch p.tok.text {
	case "==":
		op = OpEq
	case "!=":
		op = OpNe
	case "<":
		op = OpLt
	case "<=":
		op = OpLe
	case ">":
		op = OpGt
	case ">=":
		op = OpGe
	}
	p.next()
	right, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return Comparison{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseTerm() (Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, &SyntaxError{Pos: p.tok.pos, Msg: "expected ) but found " + p.tok.describe()}
		}
		p.next()
		return e, nil
	case tokNumber:
		d, err := decimal.NewFromString(p.tok.text)
		if err != nil {
			return nil, &SyntaxError{Pos: p.tok.pos, Msg: "invalid number " + p.tok.text}
		}
		p.next()
		return Literal{Value: Number(d)}, nil
	case tokString:
		text := p.tok.text
		p.next()
		return Literal{Value: String(text)}, nil
	case tokIdent:
		name := p.tok.text
		pos := p.tok.pos
		p.next()
		switch name {
		case "true":
			return Literal{Value: Bool(true)}, nil
		case "false":
			return Literal{Value: Bool(false)}, nil
		case "and", "or", "not":
			return nil, &SyntaxError{Pos: pos, Msg: "unexpected keyword \"" + name + "\""}
		}
		return FieldRef{Name: name}, nil
	default:
		return nil, &SyntaxError{Pos: p.tok.pos, Msg: "unexpected " + p.tok.describe()}
	}
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok.kind == tokIdent && p.tok.text == kw
}

// next scans the following token into p.tok.
func (p *parser) next() {
	for p.off < len(p.src) && (p.src[p.off] == ' ' || p.src[p.off] == '\t' || p.src[p.off] == '\n' || p.src[p.off] == '\r') {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.off]
	switch {
	case c == '(':
		p.off++
		p.tok = token{kind: tokLParen, pos: start, text: "("}
	case c == ')':
		p.off++
		p.tok = token{kind: tokRParen, pos: start, text: ")"}
	case c == '=' || c == '!' || c == '<' || c == '>':
		op := string(c)
		p.off++
		if p.off < len(p.src) && p.src[p.off] == '=' {
			op += "="
			p.off++
		}
		// lone "=" or "!" is not an operator
		if op == "=" || op == "!" {
			p.tok = token{kind: tokBad, pos: start, text: op}
			return
		}
		p.tok = token{kind: tokOp, pos: start, text: op}
	case c == '\'' || c == '"':
		quote := c
		p.off++
		var b strings.Builder
		for p.off < len(p.src) && p.src[p.off] != quote {
			if p.src[p.off] == '\\' && p.off+1 < len(p.src) {
				p.off++
			}
			b.WriteByte(p.src[p.off])
			p.off++
		}
		if p.off >= len(p.src) {
			p.tok = token{kind: tokBad, pos: start, text: "unterminated string"}
			return
		}
		p.off++ // closing quote
		p.tok = token{kind: tokString, pos: start, text: b.String()}
	case c >= '0' && c <= '9' || c == '-' && p.off+1 < len(p.src) && p.src[p.off+1] >= '0' && p.src[p.off+1] <= '9':
		p.off++
		for p.off < len(p.src) && (p.src[p.off] >= '0' && p.src[p.off] <= '9' || p.src[p.off] == '.') {
			p.off++
		}
		p.tok = token{kind: tokNumber, pos: start, text: p.src[start:p.off]}
	default:
		r, size := utf8.DecodeRuneInString(p.src[p.off:])
		if !isIdentStart(r) {
			p.off += size
			p.tok = token{kind: tokBad, pos: start, text: string(r)}
			return
		}
		for p.off < len(p.src) {
			r, size := utf8.DecodeRuneInString(p.src[p.off:])
			if !isIdentPart(r) {
				break
			}
			p.off += size
		}
		p.tok = token{kind: tokIdent, pos: start, text: p.src[start:p.off]}
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
