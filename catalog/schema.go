package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Field is a named, typed column of a schema.
type Field struct {
	Name string
	Type TypeTag
}

func (f Field) String() string {
	return f.Name + ":" + string(f.Type)
}

// Arrow returns the nullable Arrow field for f.
func (f Field) Arrow() arrow.Field {
	return arrow.Field{Name: f.Name, Type: f.Type.ArrowType(), Nullable: true}
}

// Schema is an ordered, immutable list of fields.
// Names are expected to be unique; when they are not, lookups return the first occurrence.
type Schema struct {
	fields      []Field
	index       map[string]int
	arrow       *arrow.Schema
	fingerprint string
}

// NewSchema builds a schema from fields. Every field must carry a supported type tag.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	afields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: empty name", i)
		}
		if !f.Type.Valid() {
			return nil, &UnsupportedTypeError{Field: f.Name, Type: string(f.Type)}
		}
		s.fields[i] = f
		if _, dup := s.index[f.Name]; !dup {
			s.index[f.Name] = i
		}
		afields[i] = f.Arrow()
	}
	s.arrow = arrow.NewSchema(afields, nil)
	s.fingerprint = fingerprint(s.fields)
	return s, nil
}

// Empty builds the output-shape contract for fields before any data exists.
// Unlike NewSchema it rejects duplicate names, since output columns are addressed by name.
func Empty(fields []Field) (*Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate output field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return NewSchema(fields...)
}

// FromArrow converts an Arrow schema. Fields with types outside the
// supported set fail with *UnsupportedTypeError.
func FromArrow(as *arrow.Schema) (*Schema, error) {
	if as == nil {
		return nil, fmt.Errorf("nil arrow schema")
	}
	fields := make([]Field, as.NumFields())
	for i, af := range as.Fields() {
		tag, ok := TagFromArrow(af.Type)
		if !ok {
			return nil, &UnsupportedTypeError{Field: af.Name, Type: af.Type.String()}
		}
		fields[i] = Field{Name: af.Name, Type: tag}
	}
	s, err := NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	// keep the caller's Arrow schema so metadata and timestamp zones survive
	s.arrow = as
	return s, nil
}

// Arrow returns the underlying Arrow schema.
func (s *Schema) Arrow() *arrow.Schema { return s.arrow }

// NumFields returns the number of fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Index returns the position of the first field named name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Resolve looks up a field by exact, case-sensitive name.
func (s *Schema) Resolve(name string) (Field, error) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, &UnknownFieldError{Name: name}
	}
	return s.fields[i], nil
}

// FieldByIndex returns the field at position i together with a bounds check.
func (s *Schema) FieldByIndex(i int) (Field, bool) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fingerprint returns a canonical text form of the field names and types.
// Names are quoted, so schemas with equal fingerprints accept the same batches.
func (s *Schema) Fingerprint() string { return s.fingerprint }

func (s *Schema) String() string { return "schema<" + s.fingerprint + ">" }

// Equal reports whether both schemas have the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.fingerprint == other.fingerprint
}

// Match checks that as has exactly the fields of s, by name and type.
func (s *Schema) Match(as *arrow.Schema) error {
	if as == nil {
		return &SchemaMismatchError{Expected: s.fingerprint, Reason: "batch has no schema"}
	}
	if as.NumFields() != len(s.fields) {
		return &SchemaMismatchError{
			Expected: s.fingerprint,
			Actual:   arrowFingerprint(as),
			Reason:   fmt.Sprintf("field count %d != %d", as.NumFields(), len(s.fields)),
		}
	}
	for i, af := range as.Fields() {
		f := s.fields[i]
		if af.Name != f.Name {
			return &SchemaMismatchError{
				Expected: s.fingerprint,
				Actual:   arrowFingerprint(as),
				Reason:   fmt.Sprintf("field %d is named %q, want %q", i, af.Name, f.Name),
			}
		}
		tag, ok := TagFromArrow(af.Type)
		if !ok || tag != f.Type {
			return &SchemaMismatchError{
				Expected: s.fingerprint,
				Actual:   arrowFingerprint(as),
				Reason:   fmt.Sprintf("field %q has type %s, want %s", f.Name, af.Type, f.Type),
			}
		}
	}
	return nil
}

// EmptyBatch returns a zero-row record batch with the schema's columns.
func (s *Schema) EmptyBatch(mem memory.Allocator) arrow.RecordBatch {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(mem, s.arrow)
	defer b.Release()
	return b.NewRecordBatch()
}

func fingerprint(fields []Field) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(f.Name))
		sb.WriteByte(':')
		sb.WriteString(string(f.Type))
	}
	return sb.String()
}

func arrowFingerprint(as *arrow.Schema) string {
	var sb strings.Builder
	for i, af := range as.Fields() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(af.Name))
		sb.WriteByte(':')
		if tag, ok := TagFromArrow(af.Type); ok {
			sb.WriteString(string(tag))
		} else {
			sb.WriteString(af.Type.String())
		}
	}
	return sb.String()
}
