package colexpr

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/buffer"
	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
	"github.com/hugr-lab/colexpr/plan"
	"github.com/hugr-lab/colexpr/source"
)

// abReader serves one batch per entry of a, with b = 10 on every row.
func abReader(t *testing.T, mem memory.Allocator, a ...[]int32) source.Reader {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "b", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)

	records := make([]arrow.RecordBatch, len(a))
	for i, vals := range a {
		b := array.NewRecordBuilder(mem, schema)
		b.Field(0).(*array.Int32Builder).AppendValues(vals, nil)
		for range vals {
			b.Field(1).(*array.Int32Builder).Append(10)
		}
		records[i] = b.NewRecordBatch()
		b.Release()
	}
	r, err := source.NewRecordsReader(schema, records...)
	if err != nil {
		t.Fatalf("NewRecordsReader failed: %v", err)
	}
	for _, rec := range records {
		rec.Release()
	}
	return r
}

func newRunEngine(t *testing.T, mem memory.Allocator, concurrency int) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Allocator: mem, CacheCapacity: 4, Concurrency: concurrency})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func decodeInt32(t *testing.T, buf *buffer.Buffer) []int32 {
	t.Helper()
	_, records, err := buffer.Decode(buf.Bytes(), memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var out []int32
	for _, rec := range records {
		out = append(out, rec.Column(0).(*array.Int32).Int32Values()...)
		rec.Release()
	}
	return out
}

func TestRun(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	e := newRunEngine(t, mem, 2)
	defer e.Close()
	schema := testSchema(t)

	reader := abReader(t, mem, []int32{1, 20, 3}, []int32{30, 40}, []int32{5, 6, 70, 8})
	defer reader.Release()

	filter, err := e.CompileFilter(schema, expr.Compare(expr.OpLessThan, expr.Ref("a"), expr.Ref("b")))
	if err != nil {
		t.Fatalf("CompileFilter failed: %v", err)
	}
	defer filter.Release()
	projector, err := e.CompileProjector(schema, []expr.Output{
		{Name: "sum", Type: catalog.Int32, Expr: expr.Fn("add", expr.Ref("a"), expr.Ref("b"))},
	}, plan.SelectionModeUInt32)
	if err != nil {
		t.Fatalf("CompileProjector failed: %v", err)
	}
	defer projector.Release()

	res, err := e.Run(context.Background(), reader, filter, projector, buffer.WithCodec(buffer.CodecZstd))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	defer res.Release()

	if res.InputRows != 9 {
		t.Errorf("expected 9 input rows, got %d", res.InputRows)
	}
	if res.NumRows() != 5 {
		t.Errorf("expected 5 output rows, got %d", res.NumRows())
	}
	if len(res.Buffers) != 3 {
		t.Fatalf("expected 3 buffers, got %d", len(res.Buffers))
	}

	want := [][]int32{{11, 13}, {}, {15, 16, 18}}
	for i, buf := range res.Buffers {
		if buf.Codec() != buffer.CodecZstd {
			t.Errorf("buffer %d: expected zstd, got %s", i, buf.Codec())
		}
		got := decodeInt32(t, buf)
		if len(got) != len(want[i]) {
			t.Fatalf("buffer %d: got %v, want %v", i, got, want[i])
		}
		for j := range got {
			if got[j] != want[i][j] {
				t.Errorf("buffer %d row %d: got %d, want %d", i, j, got[j], want[i][j])
			}
		}
	}
}

func TestRunWithoutFilter(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	e := newRunEngine(t, mem, 0)
	defer e.Close()
	schema := testSchema(t)

	reader := abReader(t, mem, []int32{1, 2}, []int32{3})
	defer reader.Release()

	projector, err := e.CompileProjector(schema, []expr.Output{
		{Name: "a", Type: catalog.Int32, Expr: expr.Ref("a")},
	}, plan.SelectionModeNone)
	if err != nil {
		t.Fatalf("CompileProjector failed: %v", err)
	}
	defer projector.Release()

	res, err := e.Run(context.Background(), reader, nil, projector)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	defer res.Release()

	if res.NumRows() != 3 || res.InputRows != 3 {
		t.Errorf("expected 3 rows in and out, got %d and %d", res.InputRows, res.NumRows())
	}
	if got := decodeInt32(t, res.Buffers[1]); len(got) != 1 || got[0] != 3 {
		t.Errorf("unexpected second buffer %v", got)
	}
}

func TestRunErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	e := newRunEngine(t, mem, 1)
	defer e.Close()
	schema := testSchema(t)

	reader := abReader(t, mem, []int32{1, 2}, []int32{0, 4})
	defer reader.Release()

	t.Run("DivideByZero", func(t *testing.T) {
		projector, err := e.CompileProjector(schema, []expr.Output{
			{Name: "q", Type: catalog.Int32, Expr: expr.Fn("divide", expr.Ref("b"), expr.Ref("a"))},
		}, plan.SelectionModeNone)
		if err != nil {
			t.Fatalf("CompileProjector failed: %v", err)
		}
		defer projector.Release()

		res, err := e.Run(context.Background(), reader, nil, projector)
		if !errors.Is(err, ErrDivideByZero) {
			t.Errorf("expected ErrDivideByZero, got %v", err)
		}
		if res != nil {
			t.Error("expected no partial result")
			res.Release()
		}
	})

	t.Run("WidthMismatch", func(t *testing.T) {
		filter, err := e.CompileFilter(schema, expr.Compare(expr.OpGreaterThan, expr.Ref("a"), expr.Lit(catalog.Int32, "0")))
		if err != nil {
			t.Fatalf("CompileFilter failed: %v", err)
		}
		defer filter.Release()
		projector, err := e.CompileProjector(schema, []expr.Output{
			{Name: "a", Type: catalog.Int32, Expr: expr.Ref("a")},
		}, plan.SelectionModeUInt16)
		if err != nil {
			t.Fatalf("CompileProjector failed: %v", err)
		}
		defer projector.Release()

		_, err = e.Run(context.Background(), reader, filter, projector)
		var widthErr *SelectionVectorWidthError
		if !errors.As(err, &widthErr) {
			t.Errorf("expected SelectionVectorWidthError, got %v", err)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		projector, err := e.CompileProjector(schema, []expr.Output{
			{Name: "a", Type: catalog.Int32, Expr: expr.Ref("a")},
		}, plan.SelectionModeNone)
		if err != nil {
			t.Fatalf("CompileProjector failed: %v", err)
		}
		defer projector.Release()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := e.Run(ctx, reader, nil, projector); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("NoProjector", func(t *testing.T) {
		if _, err := e.Run(context.Background(), reader, nil, nil); err == nil {
			t.Error("expected error")
		}
	})
}
