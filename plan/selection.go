package plan

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Width is the integer type that stores selection indices.
type Width int

const (
	WidthInt16 Width = iota + 1
	WidthInt32
	WidthUInt32
)

func (w Width) String() string {
	switch w {
	case WidthInt16:
		return "int16"
	case WidthInt32:
		return "int32"
	case WidthUInt32:
		return "uint32"
	default:
		return fmt.Sprintf("width(%d)", int(w))
	}
}

// ParseWidth parses "int16", "int32" or "uint32".
func ParseWidth(s string) (Width, error) {
	switch strings.ToLower(s) {
	case "int16":
		return WidthInt16, nil
	case "int32":
		return WidthInt32, nil
	case "uint32":
		return WidthUInt32, nil
	default:
		return 0, fmt.Errorf("unknown selection vector width %q", s)
	}
}

// MaxCapacity returns the largest number of rows whose indices fit the width.
func (w Width) MaxCapacity() int64 {
	switch w {
	case WidthInt16:
		return math.MaxInt16 + 1
	case WidthInt32:
		return math.MaxInt32 + 1
	case WidthUInt32:
		return math.MaxUint32 + 1
	default:
		return 0
	}
}

func (w Width) byteWidth() int {
	if w == WidthInt16 {
		return 2
	}
	return 4
}

// ArrowType returns the Arrow type of the index values.
func (w Width) ArrowType() arrow.DataType {
	switch w {
	case WidthInt16:
		return arrow.PrimitiveTypes.Int16
	case WidthInt32:
		return arrow.PrimitiveTypes.Int32
	case WidthUInt32:
		return arrow.PrimitiveTypes.Uint32
	default:
		return nil
	}
}

// SelectionMode fixes which selection vector widths a projector accepts.
type SelectionMode int

const (
	// SelectionModeNone accepts no selection vector.
	SelectionModeNone SelectionMode = iota
	// SelectionModeUInt16 accepts 16-bit vectors.
	SelectionModeUInt16
	// SelectionModeUInt32 accepts 16-bit and 32-bit vectors.
	SelectionModeUInt32
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionModeNone:
		return "NONE"
	case SelectionModeUInt16:
		return "UINT16"
	case SelectionModeUInt32:
		return "UINT32"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Accepts reports whether vectors of width w may be passed under mode m.
func (m SelectionMode) Accepts(w Width) bool {
	switch m {
	case SelectionModeUInt16:
		return w == WidthInt16
	case SelectionModeUInt32:
		return w == WidthInt16 || w == WidthInt32 || w == WidthUInt32
	default:
		return false
	}
}

// ModeFor returns the narrowest mode that accepts w.
func ModeFor(w Width) SelectionMode {
	if w == WidthInt16 {
		return SelectionModeUInt16
	}
	return SelectionModeUInt32
}

// SelectionVector holds the ordered indices of the rows a filter kept.
// Storage is allocated once at creation; the length is set by Filter.Evaluate.
// A SelectionVector is owned by one evaluation and must be released after use.
type SelectionVector struct {
	width    Width
	capacity int
	length   int
	buf      *memory.Buffer
	released atomic.Bool
}

// NewSelectionVector allocates a vector able to hold capacity indices.
// The capacity must fit the index range of width.
func NewSelectionVector(width Width, capacity int, mem memory.Allocator) (*SelectionVector, error) {
	if width.ArrowType() == nil {
		return nil, &SelectionVectorWidthError{Width: width, Capacity: capacity, Reason: "unknown width"}
	}
	if capacity < 0 || int64(capacity) > width.MaxCapacity() {
		return nil, &SelectionVectorWidthError{
			Width:    width,
			Capacity: capacity,
			Reason:   fmt.Sprintf("capacity %d outside [0, %d]", capacity, width.MaxCapacity()),
		}
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(capacity * width.byteWidth())
	return &SelectionVector{width: width, capacity: capacity, buf: buf}, nil
}

// Width returns the index width.
func (sv *SelectionVector) Width() Width { return sv.width }

// Capacity returns the maximum number of indices.
func (sv *SelectionVector) Capacity() int { return sv.capacity }

// Len returns the number of selected rows.
func (sv *SelectionVector) Len() int { return sv.length }

// Index returns the i-th selected row. It reports false when i is outside
// [0, Len()) or the vector was released.
func (sv *SelectionVector) Index(i int) (int, bool) {
	if sv.released.Load() || i < 0 || i >= sv.length {
		return 0, false
	}
	switch sv.width {
	case WidthInt16:
		return int(arrow.Int16Traits.CastFromBytes(sv.buf.Bytes())[i]), true
	case WidthInt32:
		return int(arrow.Int32Traits.CastFromBytes(sv.buf.Bytes())[i]), true
	default:
		return int(arrow.Uint32Traits.CastFromBytes(sv.buf.Bytes())[i]), true
	}
}

// Indices returns a copy of the selected rows.
func (sv *SelectionVector) Indices() []int {
	if sv.released.Load() {
		return nil
	}
	out := make([]int, sv.length)
	switch sv.width {
	case WidthInt16:
		for i, x := range arrow.Int16Traits.CastFromBytes(sv.buf.Bytes())[:sv.length] {
			out[i] = int(x)
		}
	case WidthInt32:
		for i, x := range arrow.Int32Traits.CastFromBytes(sv.buf.Bytes())[:sv.length] {
			out[i] = int(x)
		}
	default:
		for i, x := range arrow.Uint32Traits.CastFromBytes(sv.buf.Bytes())[:sv.length] {
			out[i] = int(x)
		}
	}
	return out
}

// set replaces the contents with rows, which must be increasing and fit the capacity.
func (sv *SelectionVector) set(rows []int) {
	switch sv.width {
	case WidthInt16:
		dst := arrow.Int16Traits.CastFromBytes(sv.buf.Bytes())
		for i, r := range rows {
			dst[i] = int16(r)
		}
	case WidthInt32:
		dst := arrow.Int32Traits.CastFromBytes(sv.buf.Bytes())
		for i, r := range rows {
			dst[i] = int32(r)
		}
	default:
		dst := arrow.Uint32Traits.CastFromBytes(sv.buf.Bytes())
		for i, r := range rows {
			dst[i] = uint32(r)
		}
	}
	sv.length = len(rows)
}

// ToArray returns the selected indices as an Arrow array sharing the vector's storage.
// The caller must release the array.
func (sv *SelectionVector) ToArray() (arrow.Array, error) {
	if sv.released.Load() {
		return nil, ErrReleased
	}
	data := array.NewData(sv.width.ArrowType(), sv.length, []*memory.Buffer{nil, sv.buf}, nil, 0, 0)
	defer data.Release()
	return array.MakeFromData(data), nil
}

// Bitmap returns the selected rows as a roaring bitmap.
func (sv *SelectionVector) Bitmap() *roaring.Bitmap {
	bm := roaring.New()
	for _, r := range sv.Indices() {
		bm.Add(uint32(r))
	}
	return bm
}

// SetBitmap replaces the contents with the rows of bm.
// Every row must be below the vector's capacity.
func (sv *SelectionVector) SetBitmap(bm *roaring.Bitmap) error {
	if sv.released.Load() {
		return ErrReleased
	}
	if card := bm.GetCardinality(); card > uint64(sv.capacity) {
		return &SelectionVectorWidthError{
			Width:    sv.width,
			Capacity: sv.capacity,
			Rows:     int(card),
			Reason:   fmt.Sprintf("%d rows exceed capacity %d", card, sv.capacity),
		}
	}
	if !bm.IsEmpty() && int(bm.Maximum()) >= sv.capacity {
		return &SelectionVectorWidthError{
			Width:    sv.width,
			Capacity: sv.capacity,
			Rows:     int(bm.Maximum()) + 1,
			Reason:   fmt.Sprintf("row %d outside capacity %d", bm.Maximum(), sv.capacity),
		}
	}
	rows := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	sv.set(rows)
	return nil
}

// Release frees the vector's storage. Release is idempotent.
func (sv *SelectionVector) Release() {
	if sv.released.CompareAndSwap(false, true) {
		sv.buf.Release()
	}
}
