package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hugr-lab/colexpr/catalog"
)

var (
	// ErrDivideByZero is returned when integer divide or mod meets a zero divisor.
	// The evaluation fails as a whole; no partial output is produced.
	ErrDivideByZero = errors.New("divide by zero")
	// ErrReleased is returned when a released plan or selection vector is used.
	ErrReleased = errors.New("use of released resource")
)

// LiteralParseError is returned when a literal's text cannot be parsed as its declared type.
type LiteralParseError struct {
	Type catalog.TypeTag
	Text string
	Err  error
}

func (e *LiteralParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot parse %q as %s", e.Text, e.Type)
	}
	return fmt.Sprintf("cannot parse %q as %s: %v", e.Text, e.Type, e.Err)
}

func (e *LiteralParseError) Unwrap() error { return e.Err }

// TypeMismatchError is returned when operand or output types disagree.
type TypeMismatchError struct {
	Context  string // function name or output field
	Expected string
	Actual   []catalog.TypeTag
}

func (e *TypeMismatchError) Error() string {
	actual := make([]string, len(e.Actual))
	for i, t := range e.Actual {
		actual[i] = t.String()
	}
	return fmt.Sprintf("%s: expected %s, got (%s)", e.Context, e.Expected, strings.Join(actual, ", "))
}

// SelectionVectorWidthError is returned when a selection vector's width cannot hold
// the requested indices or is not accepted by a projector's selection mode.
type SelectionVectorWidthError struct {
	Width    Width
	Mode     SelectionMode
	Capacity int
	Rows     int
	Reason   string
}

func (e *SelectionVectorWidthError) Error() string {
	return fmt.Sprintf("selection vector %s: %s", e.Width, e.Reason)
}

// UnknownFunctionError is returned for calls to functions missing from the registry.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

func mismatch(context, expected string, args ...catalog.TypeTag) error {
	return &TypeMismatchError{Context: context, Expected: expected, Actual: args}
}
