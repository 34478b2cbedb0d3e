package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/internal/compress"
)

// Reader produces the record batches of one input.
type Reader interface {
	// Schema returns the schema shared by every batch.
	Schema() *arrow.Schema
	// NumBatches returns the number of batches.
	NumBatches() int
	// ReadBatch returns batch i. The caller must release it.
	ReadBatch(i int) (arrow.RecordBatch, error)
	// Release frees the reader's batches.
	Release()
}

// ErrBatchIndex is returned for a batch index outside [0, NumBatches).
var ErrBatchIndex = errors.New("batch index out of range")

// RowCount returns the number of rows of batch.
func RowCount(batch arrow.RecordBatch) int {
	return int(batch.NumRows())
}

// ipcFileMagic starts and ends every Arrow IPC file.
var ipcFileMagic = []byte("ARROW1")

type recordsReader struct {
	schema  *arrow.Schema
	records []arrow.RecordBatch
}

// NewRecordsReader serves records held in memory. It retains each record.
// Every record must have schema.
func NewRecordsReader(schema *arrow.Schema, records ...arrow.RecordBatch) (Reader, error) {
	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			return nil, fmt.Errorf("record %d: schema %s differs from %s", i, rec.Schema(), schema)
		}
	}
	r := &recordsReader{schema: schema, records: make([]arrow.RecordBatch, len(records))}
	for i, rec := range records {
		rec.Retain()
		r.records[i] = rec
	}
	return r, nil
}

func (r *recordsReader) Schema() *arrow.Schema { return r.schema }

func (r *recordsReader) NumBatches() int { return len(r.records) }

func (r *recordsReader) ReadBatch(i int) (arrow.RecordBatch, error) {
	if i < 0 || i >= len(r.records) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBatchIndex, i, len(r.records))
	}
	rec := r.records[i]
	rec.Retain()
	return rec, nil
}

func (r *recordsReader) Release() {
	for _, rec := range r.records {
		rec.Release()
	}
	r.records = nil
}

// NewIPCReader reads Arrow IPC data held in memory, in either the file or the stream format.
func NewIPCReader(data []byte, mem memory.Allocator) (Reader, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if bytes.HasPrefix(data, ipcFileMagic) {
		return readIPCFile(data, mem)
	}
	return NewStreamReader(bytes.NewReader(data), mem)
}

func readIPCFile(data []byte, mem memory.Allocator) (Reader, error) {
	f, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC file: %w", err)
	}
	defer f.Close()

	r := &recordsReader{schema: f.Schema(), records: make([]arrow.RecordBatch, 0, f.NumRecords())}
	for i := 0; i < f.NumRecords(); i++ {
		rec, err := f.RecordAt(i)
		if err != nil {
			r.Release()
			return nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}
		r.records = append(r.records, rec)
	}
	return r, nil
}

// NewStreamReader drains an Arrow IPC stream.
func NewStreamReader(in io.Reader, mem memory.Allocator) (Reader, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	s, err := ipc.NewReader(in, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer s.Release()

	r := &recordsReader{schema: s.Schema()}
	for s.Next() {
		rec := s.RecordBatch()
		rec.Retain()
		r.records = append(r.records, rec)
	}
	if err := s.Err(); err != nil && !errors.Is(err, io.EOF) {
		r.Release()
		return nil, fmt.Errorf("failed to read IPC stream: %w", err)
	}
	return r, nil
}

// OpenFile opens an input by extension: .arrow (IPC file), .arrows (IPC stream)
// or .parquet, each optionally wrapped in .zst.
func OpenFile(path string, mem memory.Allocator) (Reader, error) {
	data, err := compress.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(compress.TrimExt(path))); ext {
	case ".arrow", ".ipc", ".feather":
		return NewIPCReader(data, mem)
	case ".arrows":
		return NewStreamReader(bytes.NewReader(data), mem)
	case ".parquet":
		return OpenParquet(bytes.NewReader(data), int64(len(data)), mem)
	default:
		return nil, fmt.Errorf("unsupported input file type %q", ext)
	}
}
