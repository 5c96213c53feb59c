package expr

import "fmt"

// SyntaxError indicates the condition source could not be parsed.
type SyntaxError struct {
	Pos int // byte offset in the condition source
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition syntax error at offset %d: %s", e.Pos, e.Msg)
}

// UnknownFieldError indicates the condition references a field that is
// not part of the record schema.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// TypeMismatchError indicates an operator was applied to operands of
// incompatible types (e.g. comparing a string field to a number).
type TypeMismatchError struct {
	Op          string
	Left, Right Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s applied to %s and %s", e.Op, e.Left, e.Right)
}
