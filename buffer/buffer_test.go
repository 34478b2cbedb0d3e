package buffer

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/plan"
)

func testColumns(mem memory.Allocator) (arrow.Array, arrow.Array) {
	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int32{6, 11, 0}, []bool{true, true, false})

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues([]string{"a", "", "c"}, []bool{true, false, true})

	return ib.NewArray(), sb.NewArray()
}

func testSchema(t *testing.T) *catalog.Schema {
	t.Helper()
	s, err := catalog.Empty([]catalog.Field{
		{Name: "result", Type: catalog.Int32},
		{Name: "name", Type: catalog.Utf8},
	})
	if err != nil {
		t.Fatalf("Empty failed: %v", err)
	}
	return s
}

func TestMaterializeDecode(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			ints, strs := testColumns(mem)
			defer ints.Release()
			defer strs.Release()

			buf, err := Materialize(testSchema(t), []arrow.Array{ints, strs}, 3, WithCodec(codec), WithAllocator(mem))
			if err != nil {
				t.Fatalf("Materialize failed: %v", err)
			}
			defer buf.Release()

			if buf.NumRows() != 3 || buf.Codec() != codec {
				t.Errorf("unexpected buffer: %d rows, codec %s", buf.NumRows(), buf.Codec())
			}
			if len(buf.Bytes()) == 0 {
				t.Fatal("expected encoded bytes")
			}

			schema, records, err := Decode(buf.Bytes(), mem)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			defer func() {
				for _, r := range records {
					r.Release()
				}
			}()

			if err := buf.Schema().Match(schema); err != nil {
				t.Errorf("decoded schema mismatch: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if !array.RecordEqual(records[0], buf.Record()) {
				t.Errorf("decoded record differs from materialized record")
			}
			got := records[0].Column(0).(*array.Int32)
			if got.IsValid(2) || got.Value(1) != 11 {
				t.Errorf("unexpected decoded column %v", got)
			}
		})
	}
}

func TestMaterializeErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ints, strs := testColumns(mem)
	defer ints.Release()
	defer strs.Release()
	schema := testSchema(t)

	tests := []struct {
		name    string
		columns []arrow.Array
		rows    int64
		column  int
	}{
		{"column count", []arrow.Array{ints}, 3, -1},
		{"row count", []arrow.Array{ints, strs}, 4, 0},
		{"column type", []arrow.Array{strs, ints}, 3, 0},
		{"missing column", []arrow.Array{ints, nil}, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Materialize(schema, tt.columns, tt.rows, WithAllocator(mem))
			var be *BufferEncodingError
			if !errors.As(err, &be) {
				t.Fatalf("expected BufferEncodingError, got %v", err)
			}
			if be.Column != tt.column {
				t.Errorf("expected column %d, got %d", tt.column, be.Column)
			}
		})
	}
}

func TestMaterializeSelection(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := array.NewBooleanBuilder(mem)
	b.AppendValues([]bool{true, false, false, true, true}, nil)
	col := b.NewArray()
	b.Release()
	rec := array.NewRecordBatch(arrow.NewSchema([]arrow.Field{{Name: "keep", Type: arrow.FixedWidthTypes.Boolean, Nullable: true}}, nil),
		[]arrow.Array{col}, -1)
	col.Release()
	defer rec.Release()

	schema, err := catalog.FromArrow(rec.Schema())
	if err != nil {
		t.Fatalf("FromArrow failed: %v", err)
	}
	filter, err := plan.NewFilter(schema, plan.NewField(schema.Field(0)))
	if err != nil {
		t.Fatalf("NewFilter failed: %v", err)
	}
	defer filter.Release()

	sv, err := filter.Select(rec, plan.WidthInt16, mem)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	defer sv.Release()

	buf, err := MaterializeSelection(sv, WithAllocator(mem))
	if err != nil {
		t.Fatalf("MaterializeSelection failed: %v", err)
	}
	defer buf.Release()

	idx := buf.Record().Column(0).(*array.Int16)
	want := []int16{0, 3, 4}
	if idx.Len() != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), idx.Len())
	}
	for i, w := range want {
		if idx.Value(i) != w {
			t.Errorf("index %d: expected %d, got %d", i, w, idx.Value(i))
		}
	}
}

func TestParseCodec(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecZstd, CodecLZ4} {
		got, err := ParseCodec(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCodec(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseCodec("snappy"); err == nil {
		t.Error("expected error for snappy")
	}
}
