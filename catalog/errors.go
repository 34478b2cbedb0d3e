package catalog

import (
	"fmt"
)

// UnknownFieldError is returned when a field name does not resolve against a schema.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

// UnsupportedTypeError is returned for type names or Arrow types that have no TypeTag.
type UnsupportedTypeError struct {
	Field string // empty when the type did not come from a field
	Type  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unsupported type %q", e.Type)
	}
	return fmt.Sprintf("field %q: unsupported type %q", e.Field, e.Type)
}

// SchemaMismatchError is returned when a batch does not have the shape a plan was bound to.
type SchemaMismatchError struct {
	Expected string // fingerprint of the bound schema
	Actual   string // fingerprint of the offered schema
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s (expected %s, got %s)", e.Reason, e.Expected, e.Actual)
}
