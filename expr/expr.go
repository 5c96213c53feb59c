// Package expr implements the small condition language used by mapping
// rules: boolean expressions over a record's fields, with equality,
// ordering comparisons, and/or/not, and grouping.
//
// Conditions are compiled once into an AST with Parse and then evaluated
// many times with Eval. Evaluation is pure: the same expression and the
// same environment always produce the same result.
package expr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind discriminates the runtime type of a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a typed scalar: one of string, number or bool.
type Value struct {
	kind Kind
	str  string
	num  decimal.Decimal
	b    bool
}

func String(s string) Value           { return Value{kind: KindString, str: s} }
func Number(d decimal.Decimal) Value  { return Value{kind: KindNumber, num: d} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind            { return v.kind }
func (v Value) Str() string           { return v.str }
func (v Value) Num() decimal.Decimal  { return v.num }
func (v Value) IsTrue() bool          { return v.kind == KindBool && v.b }

// Env is the projection of a record to its named field values.
type Env map[string]Value

// Expr is a node of the compiled condition AST.
type Expr interface {
	eval(env Env) (Value, error)
}

// FieldRef references a record field by name.
type FieldRef struct{ Name string }

// Literal is a constant string, number or bool.
type Literal struct{ Value Value }

// Comparison applies a relational operator to two operands.
type Comparison struct {
	Op          Op
	Left, Right Expr
}

// And is a short-circuit conjunction.
type And struct{ Left, Right Expr }

// Or is a short-circuit disjunction.
type Or struct{ Left, Right Expr }

// Not negates a boolean operand.
type Not struct{ X Expr }

// Op is a relational operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Eval evaluates a compiled condition against an environment. The result
// of the top-level expression must be a bool.
func Eval(e Expr, env Env) (bool, error) {
	v, err := e.eval(env)
	if err != nil {
		return false, err
	}
	if v.kind != KindBool {
		return false, &TypeMismatchError{Op: "condition", Left: v.kind, Right: KindBool}
	}
	return v.b, nil
}

func (f FieldRef) eval(env Env) (Value, error) {
	v, ok := env[f.Name]
	if !ok {
		return Value{}, &UnknownFieldError{Field: f.Name}
	}
	return v, nil
}

func (l Literal) eval(Env) (Value, error) { return l.Value, nil }

func (c Comparison) eval(env Env) (Value, error) {
	left, err := c.Left.eval(env)
	if err != nil {
		return Value{}, err
	}
	right, err := c.Right.eval(env)
	if err != nil {
		return Value{}, err
	}
	if left.kind != right.kind {
		return Value{}, &TypeMismatchError{Op: c.Op.String(), Left: left.kind, Right: right.kind}
	}
	switch left.kind {
	case KindString:
		// Case-sensitive, exact. No normalization.
		switch c.Op {
		case OpEq:
			return Bool(left.str == right.str), nil
		case OpNe:
			return Bool(left.str != right.str), nil
		case OpLt:
			return Bool(left.str < right.str), nil
		case OpLe:
			return Bool(left.str <= right.str), nil
		case OpGt:
			return Bool(left.str > right.str), nil
		case OpGe:
			return Bool(left.str >= right.str), nil
		}
	case KindNumber:
		cmp := left.num.Cmp(right.num)
		switch c.Op {
		case OpEq:
			return Bool(cmp == 0), nil
		case OpNe:
			return Bool(cmp != 0), nil
		case OpLt:
			return Bool(cmp < 0), nil
		case OpLe:
			return Bool(cmp <= 0), nil
		case OpGt:
			return Bool(cmp > 0), nil
		case OpGe:
			return Bool(cmp >= 0), nil
		}
	case KindBool:
		switch c.Op {
		case OpEq:
			return Bool(left.b == right.b), nil
		case OpNe:
			return Bool(left.b != right.b), nil
		default:
			return Value{}, &TypeMismatchError{Op: c.Op.String(), Left: left.kind, Right: right.kind}
		}
	}
	return Value{}, fmt.Errorf("unsupported comparison %s on %s", c.Op, left.kind)
}

func (a And) eval(env Env) (Value, error) {
	left, err := boolOperand(a.Left, env, "and")
	if err != nil {
		return Value{}, err
	}
	if !left {
		return Bool(false), nil
	}
	right, err := boolOperand(a.Right, env, "and")
	if err != nil {
		return Value{}, err
	}
	return Bool(right), nil
}

func (o Or) eval(env Env) (Value, error) {
	left, err := boolOperand(o.Left, env, "or")
	if err != nil {
		return Value{}, err
	}
	if left {
		return Bool(true), nil
	}
	right, err := boolOperand(o.Right, env, "or")
	if err != nil {
		return Value{}, err
	}
	return Bool(right), nil
}

func (n Not) eval(env Env) (Value, error) {
	x, err := boolOperand(n.X, env, "not")
	if err != nil {
		return Value{}, err
	}
	return Bool(!x), nil
}

func boolOperand(e Expr, env Env, op string) (bool, error) {
	v, err := e.eval(env)
	if err != nil {
		return false, err
	}
	if v.kind != KindBool {
		return false, &TypeMismatchError{Op: op, Left: v.kind, Right: KindBool}
	}
	return v.b, nil
}
