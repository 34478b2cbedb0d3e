package plan

import (
	"strconv"
	"strings"

	"github.com/hugr-lab/colexpr/catalog"
)

func parseLiteral(tag catalog.TypeTag, text string) (*LiteralNode, error) {
	n := &LiteralNode{tag: tag}
	trimmed := strings.TrimSpace(text)
	var err error

	switch tag.Family() {
	case catalog.FamilySigned:
		n.i64, err = strconv.ParseInt(trimmed, 10, tag.BitWidth())
	case catalog.FamilyUnsigned:
		n.u64, err = strconv.ParseUint(trimmed, 10, tag.BitWidth())
	case catalog.FamilyFloat:
		n.f64, err = strconv.ParseFloat(trimmed, tag.BitWidth())
	case catalog.FamilyString:
		n.str = text
	case catalog.FamilyBoolean:
		n.b, err = strconv.ParseBool(trimmed)
	case catalog.FamilyTemporal:
		n.i64, err = parseTemporal(tag, trimmed)
	default:
		return nil, &catalog.UnsupportedTypeError{Type: string(tag)}
	}
	if err != nil {
		return nil, &LiteralParseError{Type: tag, Text: text, Err: err}
	}
	return n, nil
}

// parseTemporal accepts integer milliseconds since the epoch or text.
// Dates given as text are truncated to midnight UTC.
func parseTemporal(tag catalog.TypeTag, text string) (int64, error) {
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		return ms, nil
	}
	if tag == catalog.DateMillisecond {
		return parseDate(text)
	}
	return parseTimestamp(text)
}
