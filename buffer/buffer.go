package buffer

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/plan"
)

// Buffer is a self-describing columnar buffer: an Arrow IPC file holding
// the output schema and one record batch with per-column validity and data.
type Buffer struct {
	schema *catalog.Schema
	record arrow.RecordBatch
	data   []byte
	rows   int64
	codec  Codec
}

type options struct {
	codec Codec
	mem   memory.Allocator
}

// Option configures materialization.
type Option func(*options)

// WithCodec enables body compression of the IPC record batch.
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithAllocator sets the allocator used while encoding.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) {
		if mem != nil {
			o.mem = mem
		}
	}
}

// Materialize assembles columns into a buffer described by schema.
// Every column must have the declared type and exactly numRows rows.
// The buffer retains the columns; the caller keeps its own references.
func Materialize(schema *catalog.Schema, columns []arrow.Array, numRows int64, opts ...Option) (*Buffer, error) {
	o := options{mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(&o)
	}

	if len(columns) != schema.NumFields() {
		return nil, &BufferEncodingError{
			Column: -1,
			Reason: fmt.Sprintf("%d columns for %d declared fields", len(columns), schema.NumFields()),
		}
	}
	for i, col := range columns {
		f := schema.Field(i)
		if col == nil {
			return nil, &BufferEncodingError{Column: i, Name: f.Name, Reason: "missing column"}
		}
		if want := f.Type.ArrowType(); !arrow.TypeEqual(col.DataType(), want) {
			return nil, &BufferEncodingError{
				Column: i,
				Name:   f.Name,
				Reason: fmt.Sprintf("type %s, declared %s", col.DataType(), want),
			}
		}
		if int64(col.Len()) != numRows {
			return nil, &BufferEncodingError{
				Column: i,
				Name:   f.Name,
				Reason: fmt.Sprintf("length %d, declared row count %d", col.Len(), numRows),
			}
		}
	}

	rec := array.NewRecordBatch(schema.Arrow(), columns, numRows)
	data, err := encode(rec, o)
	if err != nil {
		rec.Release()
		return nil, err
	}
	return &Buffer{schema: schema, record: rec, data: data, rows: numRows, codec: o.codec}, nil
}

// MaterializeSelection writes the indices of sv as a one-column buffer named "selection",
// typed by the vector's width.
func MaterializeSelection(sv *plan.SelectionVector, opts ...Option) (*Buffer, error) {
	tag, ok := catalog.TagFromArrow(sv.Width().ArrowType())
	if !ok {
		return nil, &catalog.UnsupportedTypeError{Field: "selection", Type: sv.Width().String()}
	}
	schema, err := catalog.Empty([]catalog.Field{{Name: "selection", Type: tag}})
	if err != nil {
		return nil, err
	}
	arr, err := sv.ToArray()
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return Materialize(schema, []arrow.Array{arr}, int64(arr.Len()), opts...)
}

func encode(rec arrow.RecordBatch, o options) ([]byte, error) {
	var buf bytes.Buffer
	ipcOpts := []ipc.Option{ipc.WithSchema(rec.Schema()), ipc.WithAllocator(o.mem)}
	ipcOpts = append(ipcOpts, o.codec.IPCOptions()...)

	w, err := ipc.NewFileWriter(&buf, ipcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPC writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Schema returns the declared schema.
func (b *Buffer) Schema() *catalog.Schema { return b.schema }

// NumRows returns the row count.
func (b *Buffer) NumRows() int64 { return b.rows }

// Codec returns the body compression codec.
func (b *Buffer) Codec() Codec { return b.codec }

// Bytes returns the encoded buffer. The slice is shared, not copied;
// callers must not modify it.
func (b *Buffer) Bytes() []byte { return b.data }

// Record returns the materialized columns as a record batch.
// The record is owned by the buffer; call Retain to keep it past Release.
func (b *Buffer) Record() arrow.RecordBatch { return b.record }

// Release frees the buffer's columns.
func (b *Buffer) Release() {
	if b.record != nil {
		b.record.Release()
		b.record = nil
	}
}

// Decode reads the record batches of an encoded buffer.
// The caller must release the returned records.
func Decode(data []byte, mem memory.Allocator) (*arrow.Schema, []arrow.RecordBatch, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	r, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open buffer: %w", err)
	}
	defer r.Close()

	records := make([]arrow.RecordBatch, 0, r.NumRecords())
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.RecordAt(i)
		if err != nil {
			for _, rec := range records {
				rec.Release()
			}
			return nil, nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return r.Schema(), records, nil
}
