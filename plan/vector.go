package plan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
)

// vector is the evaluation-time column of a node over the rows being evaluated.
// Values are held widened: signed and temporal in i64, unsigned in u64,
// floats in f64. The slot of a null row holds the zero value.
type vector struct {
	tag   catalog.TypeTag
	n     int
	i64   []int64
	u64   []uint64
	f64   []float64
	str   []string
	b     []bool
	valid []bool // nil when every row is valid
}

func newVector(tag catalog.TypeTag, n int) *vector {
	v := &vector{tag: tag, n: n}
	switch tag.Family() {
	case catalog.FamilySigned, catalog.FamilyTemporal:
		v.i64 = make([]int64, n)
	case catalog.FamilyUnsigned:
		v.u64 = make([]uint64, n)
	case catalog.FamilyFloat:
		v.f64 = make([]float64, n)
	case catalog.FamilyString:
		v.str = make([]string, n)
	case catalog.FamilyBoolean:
		v.b = make([]bool, n)
	}
	return v
}

func (v *vector) isValid(i int) bool {
	return v.valid == nil || v.valid[i]
}

// setNull marks row i null and zeroes its slot.
func (v *vector) setNull(i int) {
	if v.valid == nil {
		v.valid = make([]bool, v.n)
		for j := range v.valid {
			v.valid[j] = true
		}
	}
	v.valid[i] = false
	switch {
	case v.i64 != nil:
		v.i64[i] = 0
	case v.u64 != nil:
		v.u64[i] = 0
	case v.f64 != nil:
		v.f64[i] = 0
	case v.str != nil:
		v.str[i] = ""
	case v.b != nil:
		v.b[i] = false
	}
}

// andValid returns the validity of rows valid in every input, nil if all are valid.
func andValid(n int, vs ...*vector) []bool {
	var out []bool
	for _, v := range vs {
		if v.valid == nil {
			continue
		}
		if out == nil {
			out = make([]bool, n)
			copy(out, v.valid)
			continue
		}
		for i := range out {
			out[i] = out[i] && v.valid[i]
		}
	}
	return out
}

// domain is the set of batch rows an evaluation covers.
// A nil rows slice means every row of the batch, in order.
type domain struct {
	rows []int
	n    int
}

func fullDomain(n int) domain { return domain{n: n} }

func selectedDomain(rows []int) domain { return domain{rows: rows, n: len(rows)} }

func (d domain) row(i int) int {
	if d.rows == nil {
		return i
	}
	return d.rows[i]
}

// readColumn gathers the domain's rows of arr into a vector of the given tag.
func readColumn(arr arrow.Array, tag catalog.TypeTag, d domain) (*vector, error) {
	v := newVector(tag, d.n)
	switch a := arr.(type) {
	case *array.Int8:
		gatherSigned(v, a.Int8Values(), d)
	case *array.Int16:
		gatherSigned(v, a.Int16Values(), d)
	case *array.Int32:
		gatherSigned(v, a.Int32Values(), d)
	case *array.Int64:
		gatherSigned(v, a.Int64Values(), d)
	case *array.Timestamp:
		gatherSigned(v, a.TimestampValues(), d)
	case *array.Date64:
		gatherSigned(v, a.Date64Values(), d)
	case *array.Uint8:
		gatherUnsigned(v, a.Uint8Values(), d)
	case *array.Uint16:
		gatherUnsigned(v, a.Uint16Values(), d)
	case *array.Uint32:
		gatherUnsigned(v, a.Uint32Values(), d)
	case *array.Uint64:
		gatherUnsigned(v, a.Uint64Values(), d)
	case *array.Float32:
		vals := a.Float32Values()
		for i := 0; i < d.n; i++ {
			v.f64[i] = float64(vals[d.row(i)])
		}
	case *array.Float64:
		vals := a.Float64Values()
		for i := 0; i < d.n; i++ {
			v.f64[i] = vals[d.row(i)]
		}
	case *array.String:
		for i := 0; i < d.n; i++ {
			v.str[i] = a.Value(d.row(i))
		}
	case *array.Boolean:
		for i := 0; i < d.n; i++ {
			v.b[i] = a.Value(d.row(i))
		}
	default:
		return nil, fmt.Errorf("unsupported column type %s", arr.DataType())
	}

	if arr.NullN() > 0 {
		for i := 0; i < d.n; i++ {
			if arr.IsNull(d.row(i)) {
				v.setNull(i)
			}
		}
	}
	return v, nil
}

func gatherSigned[T ~int8 | ~int16 | ~int32 | ~int64](v *vector, vals []T, d domain) {
	for i := 0; i < d.n; i++ {
		v.i64[i] = int64(vals[d.row(i)])
	}
}

func gatherUnsigned[T ~uint8 | ~uint16 | ~uint32 | ~uint64](v *vector, vals []T, d domain) {
	for i := 0; i < d.n; i++ {
		v.u64[i] = uint64(vals[d.row(i)])
	}
}

// toArray builds an Arrow array of the vector's tag. The caller owns the result.
func (v *vector) toArray(mem memory.Allocator) arrow.Array {
	b := array.NewBuilder(mem, v.tag.ArrowType())
	defer b.Release()
	b.Reserve(v.n)

	switch bb := b.(type) {
	case *array.Int8Builder:
		appendSigned(bb, v, func(x int64) int8 { return int8(x) })
	case *array.Int16Builder:
		appendSigned(bb, v, func(x int64) int16 { return int16(x) })
	case *array.Int32Builder:
		appendSigned(bb, v, func(x int64) int32 { return int32(x) })
	case *array.Int64Builder:
		appendSigned(bb, v, func(x int64) int64 { return x })
	case *array.TimestampBuilder:
		appendSigned(bb, v, func(x int64) arrow.Timestamp { return arrow.Timestamp(x) })
	case *array.Date64Builder:
		appendSigned(bb, v, func(x int64) arrow.Date64 { return arrow.Date64(x) })
	case *array.Uint8Builder:
		appendUnsigned(bb, v, func(x uint64) uint8 { return uint8(x) })
	case *array.Uint16Builder:
		appendUnsigned(bb, v, func(x uint64) uint16 { return uint16(x) })
	case *array.Uint32Builder:
		appendUnsigned(bb, v, func(x uint64) uint32 { return uint32(x) })
	case *array.Uint64Builder:
		appendUnsigned(bb, v, func(x uint64) uint64 { return x })
	case *array.Float32Builder:
		bb.AppendValues(convert(v.f64, func(x float64) float32 { return float32(x) }), v.valid)
	case *array.Float64Builder:
		bb.AppendValues(v.f64, v.valid)
	case *array.StringBuilder:
		bb.AppendValues(v.str, v.valid)
	case *array.BooleanBuilder:
		bb.AppendValues(v.b, v.valid)
	}
	return b.NewArray()
}

type valuesAppender[T any] interface {
	AppendValues(v []T, valid []bool)
}

func appendSigned[T any](b valuesAppender[T], v *vector, fn func(int64) T) {
	b.AppendValues(convert(v.i64, fn), v.valid)
}

func appendUnsigned[T any](b valuesAppender[T], v *vector, fn func(uint64) T) {
	b.AppendValues(convert(v.u64, fn), v.valid)
}

func convert[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, len(in))
	for i, x := range in {
		out[i] = fn(x)
	}
	return out
}
