package catalog

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func TestResolve(t *testing.T) {
	s, err := NewSchema(
		Field{Name: "f0", Type: Int32},
		Field{Name: "F0", Type: Utf8},
		Field{Name: "f0", Type: Float64},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	f, err := s.Resolve("f0")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if f.Type != Int32 {
		t.Errorf("expected first occurrence (Int32), got %s", f.Type)
	}

	f, err = s.Resolve("F0")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if f.Type != Utf8 {
		t.Errorf("lookup must be case-sensitive, got %s", f.Type)
	}

	_, err = s.Resolve("missing")
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if unknown.Name != "missing" {
		t.Errorf("expected name 'missing', got %q", unknown.Name)
	}
	if s.Index("missing") != -1 {
		t.Errorf("expected -1 for missing index")
	}
}

func TestEmptyRejectsDuplicates(t *testing.T) {
	_, err := Empty([]Field{{Name: "res", Type: Int64}, {Name: "res", Type: Int32}})
	if err == nil {
		t.Fatal("expected error for duplicate output field")
	}

	s, err := Empty([]Field{{Name: "res", Type: Int64}})
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := s.EmptyBatch(mem)
	defer batch.Release()
	if batch.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", batch.NumRows())
	}
	if batch.NumCols() != 1 {
		t.Errorf("expected 1 column, got %d", batch.NumCols())
	}
	if !arrow.TypeEqual(batch.Schema().Field(0).Type, arrow.PrimitiveTypes.Int64) {
		t.Errorf("expected int64 column, got %s", batch.Schema().Field(0).Type)
	}
}

func TestNewSchemaInvalidType(t *testing.T) {
	_, err := NewSchema(Field{Name: "x", Type: "Decimal"})
	var unsupported *UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
	if unsupported.Field != "x" {
		t.Errorf("expected field x, got %q", unsupported.Field)
	}
}

func TestFromArrow(t *testing.T) {
	as := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Uint16, Nullable: true},
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond}, Nullable: true},
		{Name: "d", Type: arrow.FixedWidthTypes.Date64, Nullable: true},
		{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	s, err := FromArrow(as)
	if err != nil {
		t.Fatalf("FromArrow failed: %v", err)
	}
	want := `"a":UInt16,"ts":Timestamp,"d":DateMillisecond,"s":Utf8`
	if s.Fingerprint() != want {
		t.Errorf("expected fingerprint %q, got %q", want, s.Fingerprint())
	}
	if err := s.Match(as); err != nil {
		t.Errorf("schema should match its own source: %v", err)
	}

	micro := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Microsecond}},
	}, nil)
	if _, err := FromArrow(micro); err == nil {
		t.Error("expected error for microsecond timestamps")
	}

	utc := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_ms},
	}, nil)
	if _, err := FromArrow(utc); err != nil {
		t.Errorf("UTC timestamps should be accepted: %v", err)
	}

	zoned := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "Europe/Berlin"}},
	}, nil)
	var zerr *UnsupportedTypeError
	if _, err := FromArrow(zoned); !errors.As(err, &zerr) {
		t.Errorf("expected UnsupportedTypeError for zoned timestamps, got %v", err)
	}
	if _, ok := TagFromArrow(zoned.Field(0).Type); ok {
		t.Error("zoned timestamp should have no tag")
	}

	list := arrow.NewSchema([]arrow.Field{
		{Name: "l", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
	}, nil)
	var unsupported *UnsupportedTypeError
	if _, err := FromArrow(list); !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedTypeError, got %v", err)
	}
}

func TestMatch(t *testing.T) {
	s, err := NewSchema(Field{Name: "f0", Type: Int32}, Field{Name: "f1", Type: Int32})
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	tests := []struct {
		name   string
		schema *arrow.Schema
		ok     bool
	}{
		{
			name:   "same",
			schema: s.Arrow(),
			ok:     true,
		},
		{
			name: "renamed",
			schema: arrow.NewSchema([]arrow.Field{
				{Name: "f0", Type: arrow.PrimitiveTypes.Int32},
				{Name: "g1", Type: arrow.PrimitiveTypes.Int32},
			}, nil),
		},
		{
			name: "retyped",
			schema: arrow.NewSchema([]arrow.Field{
				{Name: "f0", Type: arrow.PrimitiveTypes.Int32},
				{Name: "f1", Type: arrow.PrimitiveTypes.Int64},
			}, nil),
		},
		{
			name: "fewer fields",
			schema: arrow.NewSchema([]arrow.Field{
				{Name: "f0", Type: arrow.PrimitiveTypes.Int32},
			}, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Match(tt.schema)
			if tt.ok {
				if err != nil {
					t.Errorf("expected match, got %v", err)
				}
				return
			}
			var mismatch *SchemaMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected SchemaMismatchError, got %v", err)
			}
			if mismatch.Expected != `"f0":Int32,"f1":Int32` {
				t.Errorf("unexpected expected fingerprint %q", mismatch.Expected)
			}
		})
	}
}

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		in   string
		want TypeTag
	}{
		{"Int32", Int32},
		{"Float", Float32},
		{"Double", Float64},
		{"String", Utf8},
		{"DateMillisecond", DateMillisecond},
		{"Timestamp", Timestamp},
		{"Uint8", UInt8},
	}
	for _, tt := range tests {
		got, err := ParseTypeTag(tt.in)
		if err != nil {
			t.Errorf("ParseTypeTag(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTypeTag(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTypeTag("int"); err == nil {
		t.Error("expected error for unknown type name")
	}
}

func TestWider(t *testing.T) {
	if got := Wider(Int8, Int32); got != Int32 {
		t.Errorf("Wider(Int8, Int32) = %s", got)
	}
	if got := Wider(Float64, Float32); got != Float64 {
		t.Errorf("Wider(Float64, Float32) = %s", got)
	}
	if got := Wider(DateMillisecond, Timestamp); got != Timestamp {
		t.Errorf("Wider(DateMillisecond, Timestamp) = %s", got)
	}
	for _, tag := range Tags() {
		if tag.ArrowType() == nil {
			t.Errorf("%s has no arrow type", tag)
			continue
		}
		back, ok := TagFromArrow(tag.ArrowType())
		if !ok || back != tag {
			t.Errorf("%s does not map back from arrow, got %s", tag, back)
		}
	}
}
