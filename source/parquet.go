package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"

	"github.com/hugr-lab/colexpr/catalog"
)

const parquetReadSize = 1024

// OpenParquet reads a flat Parquet file into one batch per row group.
// Integer logical widths are kept; DATE columns become DateMillisecond and
// TIMESTAMP columns are converted to milliseconds.
func OpenParquet(r io.ReaderAt, size int64, mem memory.Allocator) (Reader, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	pfields := f.Schema().Fields()
	cols := make([]parquetColumn, len(pfields))
	fields := make([]arrow.Field, len(pfields))
	for i, pf := range pfields {
		col, err := newParquetColumn(pf)
		if err != nil {
			return nil, err
		}
		cols[i] = col
		fields[i] = arrow.Field{Name: pf.Name(), Type: col.tag.ArrowType(), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	out := &recordsReader{schema: schema}
	for i, rg := range f.RowGroups() {
		rec, err := readRowGroup(rg, schema, cols, mem)
		if err != nil {
			out.Release()
			return nil, fmt.Errorf("row group %d: %w", i, err)
		}
		out.records = append(out.records, rec)
	}
	return out, nil
}

type parquetColumn struct {
	name string
	tag  catalog.TypeTag
	// scale converts stored temporal values to milliseconds; negative values divide.
	scale int64
}

func newParquetColumn(f parquet.Field) (parquetColumn, error) {
	col := parquetColumn{name: f.Name(), scale: 1}
	if !f.Leaf() || f.Repeated() {
		return col, &catalog.UnsupportedTypeError{Field: f.Name(), Type: "nested or repeated parquet column"}
	}
	t := f.Type()
	lt := t.LogicalType()
	switch t.Kind() {
	case parquet.Boolean:
		col.tag = catalog.Boolean
	case parquet.Int32:
		col.tag = catalog.Int32
		if lt != nil && lt.Date != nil {
			col.tag = catalog.DateMillisecond
			col.scale = 24 * 60 * 60 * 1000
		}
		if lt != nil && lt.Integer != nil {
			col.tag = integerTag(int(lt.Integer.BitWidth), lt.Integer.IsSigned)
		}
	case parquet.Int64:
		col.tag = catalog.Int64
		if lt != nil && lt.Integer != nil && !lt.Integer.IsSigned {
			col.tag = catalog.UInt64
		}
		if lt != nil && lt.Timestamp != nil {
			col.tag = catalog.Timestamp
			switch unit := lt.Timestamp.Unit; {
			case unit.Micros != nil:
				col.scale = -1000
			case unit.Nanos != nil:
				col.scale = -1000000
			}
		}
	case parquet.Float:
		col.tag = catalog.Float32
	case parquet.Double:
		col.tag = catalog.Float64
	case parquet.ByteArray:
		col.tag = catalog.Utf8
	default:
		return col, &catalog.UnsupportedTypeError{Field: f.Name(), Type: t.String()}
	}
	return col, nil
}

func integerTag(bits int, signed bool) catalog.TypeTag {
	switch {
	case bits == 8 && signed:
		return catalog.Int8
	case bits == 8:
		return catalog.UInt8
	case bits == 16 && signed:
		return catalog.Int16
	case bits == 16:
		return catalog.UInt16
	case bits == 32 && !signed:
		return catalog.UInt32
	case bits == 64 && signed:
		return catalog.Int64
	case bits == 64:
		return catalog.UInt64
	default:
		return catalog.Int32
	}
}

func (c parquetColumn) millis(x int64) int64 {
	if c.scale < 0 {
		return floorDiv(x, -c.scale)
	}
	return x * c.scale
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func readRowGroup(rg parquet.RowGroup, schema *arrow.Schema, cols []parquetColumn, mem memory.Allocator) (arrow.RecordBatch, error) {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, parquetReadSize)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for _, v := range row {
				ci := v.Column()
				if ci < 0 || ci >= len(cols) {
					return nil, fmt.Errorf("value for unknown column %d", ci)
				}
				appendValue(b.Field(ci), cols[ci], v)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return b.NewRecordBatch(), nil
}

func appendValue(b array.Builder, col parquetColumn, v parquet.Value) {
	if v.IsNull() {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		b.Append(v.Boolean())
	case *array.Int8Builder:
		b.Append(int8(v.Int32()))
	case *array.Int16Builder:
		b.Append(int16(v.Int32()))
	case *array.Int32Builder:
		b.Append(v.Int32())
	case *array.Int64Builder:
		b.Append(v.Int64())
	case *array.Uint8Builder:
		b.Append(uint8(v.Int32()))
	case *array.Uint16Builder:
		b.Append(uint16(v.Int32()))
	case *array.Uint32Builder:
		b.Append(uint32(v.Int32()))
	case *array.Uint64Builder:
		b.Append(uint64(v.Int64()))
	case *array.Float32Builder:
		b.Append(v.Float())
	case *array.Float64Builder:
		b.Append(v.Double())
	case *array.StringBuilder:
		b.Append(string(v.ByteArray()))
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(col.millis(v.Int64())))
	case *array.Date64Builder:
		b.Append(arrow.Date64(col.millis(int64(v.Int32()))))
	default:
		b.AppendNull()
	}
}
