package catalog

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// TypeTag identifies the value type of a field, literal or compiled node.
type TypeTag string

const (
	TypeInvalid     TypeTag = ""
	UInt8           TypeTag = "UInt8"
	UInt16          TypeTag = "UInt16"
	UInt32          TypeTag = "UInt32"
	UInt64          TypeTag = "UInt64"
	Int8            TypeTag = "Int8"
	Int16           TypeTag = "Int16"
	Int32           TypeTag = "Int32"
	Int64           TypeTag = "Int64"
	Float32         TypeTag = "Float32"
	Float64         TypeTag = "Float64"
	Utf8            TypeTag = "Utf8"
	Boolean         TypeTag = "Boolean"
	Timestamp       TypeTag = "Timestamp"
	DateMillisecond TypeTag = "DateMillisecond"
)

// Family groups type tags that can be compared with each other.
type Family int

const (
	FamilyInvalid Family = iota
	FamilySigned
	FamilyUnsigned
	FamilyFloat
	FamilyString
	FamilyBoolean
	FamilyTemporal
)

func (f Family) String() string {
	switch f {
	case FamilySigned:
		return "signed integer"
	case FamilyUnsigned:
		return "unsigned integer"
	case FamilyFloat:
		return "floating point"
	case FamilyString:
		return "string"
	case FamilyBoolean:
		return "boolean"
	case FamilyTemporal:
		return "temporal"
	default:
		return "invalid"
	}
}

// tagAliases maps alternative spellings to canonical tags.
// Expression sources may send either the short form (e.g., "Double") or
// the canonical name (e.g., "Float64").
var tagAliases = map[string]TypeTag{
	"Float":  Float32,
	"Double": Float64,
	"String": Utf8,
	"Bool":   Boolean,
	"Date":   DateMillisecond,
	"Date64": DateMillisecond,
	"Uint8":  UInt8,
	"Uint16": UInt16,
	"Uint32": UInt32,
	"Uint64": UInt64,
}

var allTags = []TypeTag{
	UInt8, UInt16, UInt32, UInt64,
	Int8, Int16, Int32, Int64,
	Float32, Float64,
	Utf8, Boolean,
	Timestamp, DateMillisecond,
}

// Tags returns every supported type tag in declaration order.
func Tags() []TypeTag {
	out := make([]TypeTag, len(allTags))
	copy(out, allTags)
	return out
}

// ParseTypeTag returns the canonical tag for name, accepting aliases.
func ParseTypeTag(name string) (TypeTag, error) {
	if alias, ok := tagAliases[name]; ok {
		return alias, nil
	}
	t := TypeTag(name)
	if !t.Valid() {
		return TypeInvalid, &UnsupportedTypeError{Type: name}
	}
	return t, nil
}

// Valid reports whether t is one of the supported tags.
func (t TypeTag) Valid() bool {
	return t.Family() != FamilyInvalid
}

// Family returns the comparison family of t.
func (t TypeTag) Family() Family {
	switch t {
	case Int8, Int16, Int32, Int64:
		return FamilySigned
	case UInt8, UInt16, UInt32, UInt64:
		return FamilyUnsigned
	case Float32, Float64:
		return FamilyFloat
	case Utf8:
		return FamilyString
	case Boolean:
		return FamilyBoolean
	case Timestamp, DateMillisecond:
		return FamilyTemporal
	default:
		return FamilyInvalid
	}
}

// BitWidth returns the storage width of fixed-width tags, 0 for Utf8.
func (t TypeTag) BitWidth() int {
	switch t {
	case Boolean:
		return 1
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32, Float32:
		return 32
	case Int64, UInt64, Float64, Timestamp, DateMillisecond:
		return 64
	default:
		return 0
	}
}

// IsNumeric reports whether t is an integer or floating point tag.
func (t TypeTag) IsNumeric() bool {
	switch t.Family() {
	case FamilySigned, FamilyUnsigned, FamilyFloat:
		return true
	}
	return false
}

// IsInteger reports whether t is a signed or unsigned integer tag.
func (t TypeTag) IsInteger() bool {
	f := t.Family()
	return f == FamilySigned || f == FamilyUnsigned
}

func (t TypeTag) String() string {
	if t == TypeInvalid {
		return "invalid"
	}
	return string(t)
}

// Wider returns the wider of two tags of the same family.
// Timestamp wins over DateMillisecond.
func Wider(a, b TypeTag) TypeTag {
	if a.BitWidth() >= b.BitWidth() {
		if a == DateMillisecond && b == Timestamp {
			return b
		}
		return a
	}
	return b
}

// ArrowType returns the Arrow data type that stores values of t.
// Timestamp is stored as timestamp[ms] without a zone, DateMillisecond as date64.
func (t TypeTag) ArrowType() arrow.DataType {
	switch t {
	case UInt8:
		return arrow.PrimitiveTypes.Uint8
	case UInt16:
		return arrow.PrimitiveTypes.Uint16
	case UInt32:
		return arrow.PrimitiveTypes.Uint32
	case UInt64:
		return arrow.PrimitiveTypes.Uint64
	case Int8:
		return arrow.PrimitiveTypes.Int8
	case Int16:
		return arrow.PrimitiveTypes.Int16
	case Int32:
		return arrow.PrimitiveTypes.Int32
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float32:
		return arrow.PrimitiveTypes.Float32
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case Utf8:
		return arrow.BinaryTypes.String
	case Boolean:
		return arrow.FixedWidthTypes.Boolean
	case Timestamp:
		return &arrow.TimestampType{Unit: arrow.Millisecond}
	case DateMillisecond:
		return arrow.FixedWidthTypes.Date64
	default:
		return nil
	}
}

// TagFromArrow maps an Arrow data type to its tag.
// Timestamps must use millisecond unit and carry no zone or UTC, since
// temporal functions evaluate in UTC.
func TagFromArrow(dt arrow.DataType) (TypeTag, bool) {
	switch dt.ID() {
	case arrow.UINT8:
		return UInt8, true
	case arrow.UINT16:
		return UInt16, true
	case arrow.UINT32:
		return UInt32, true
	case arrow.UINT64:
		return UInt64, true
	case arrow.INT8:
		return Int8, true
	case arrow.INT16:
		return Int16, true
	case arrow.INT32:
		return Int32, true
	case arrow.INT64:
		return Int64, true
	case arrow.FLOAT32:
		return Float32, true
	case arrow.FLOAT64:
		return Float64, true
	case arrow.STRING:
		return Utf8, true
	case arrow.BOOL:
		return Boolean, true
	case arrow.DATE64:
		return DateMillisecond, true
	case arrow.TIMESTAMP:
		if ts, ok := dt.(*arrow.TimestampType); ok && ts.Unit == arrow.Millisecond && utcZone(ts.TimeZone) {
			return Timestamp, true
		}
	}
	return TypeInvalid, false
}

func utcZone(tz string) bool {
	switch tz {
	case "", "UTC", "Etc/UTC", "Z", "+00:00":
		return true
	}
	return false
}
