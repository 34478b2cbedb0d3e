package plan

import (
	"fmt"
	"time"

	"github.com/hugr-lab/colexpr/catalog"
)

func resolveCastTimestamp(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 {
		return catalog.TypeInvalid, nil, mismatch(name, "one Utf8, temporal or Int64 operand", args...)
	}
	switch args[0] {
	case catalog.Utf8:
		return catalog.Timestamp, parseKernel(name, catalog.Timestamp, parseTimestamp), nil
	case catalog.Timestamp, catalog.DateMillisecond, catalog.Int64:
		return catalog.Timestamp, retag(catalog.Timestamp, func(ms int64) int64 { return ms }), nil
	}
	return catalog.TypeInvalid, nil, mismatch(name, "one Utf8, temporal or Int64 operand", args...)
}

func resolveCastDate(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 {
		return catalog.TypeInvalid, nil, mismatch(name, "one Utf8 or temporal operand", args...)
	}
	switch args[0] {
	case catalog.Utf8:
		return catalog.DateMillisecond, parseKernel(name, catalog.DateMillisecond, parseDate), nil
	case catalog.Timestamp, catalog.DateMillisecond:
		return catalog.DateMillisecond, retag(catalog.DateMillisecond, truncateDay), nil
	}
	return catalog.TypeInvalid, nil, mismatch(name, "one Utf8 or temporal operand", args...)
}

// parseKernel parses text rows. An unparsable row fails the evaluation.
func parseKernel(name string, ret catalog.TypeTag, parse func(string) (int64, error)) kernel {
	return func(vs []*vector, n int) (*vector, error) {
		out := newVector(ret, n)
		out.valid = andValid(n, vs[0])
		for i := 0; i < n; i++ {
			if !out.isValid(i) {
				continue
			}
			ms, err := parse(vs[0].str[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, &LiteralParseError{Type: ret, Text: vs[0].str[i], Err: err})
			}
			out.i64[i] = ms
		}
		return out, nil
	}
}

func retag(ret catalog.TypeTag, fn func(int64) int64) kernel {
	return func(vs []*vector, n int) (*vector, error) {
		out := newVector(ret, n)
		out.valid = andValid(n, vs[0])
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.i64[i] = fn(vs[0].i64[i])
			}
		}
		return out, nil
	}
}

func resolveExtract(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || args[0].Family() != catalog.FamilyTemporal {
		return catalog.TypeInvalid, nil, mismatch(name, "one Timestamp or DateMillisecond operand", args...)
	}
	var part func(t time.Time) int
	switch name {
	case "extractYear":
		part = time.Time.Year
	case "extractMonth":
		part = func(t time.Time) int { return int(t.Month()) }
	case "extractDay":
		part = time.Time.Day
	case "extractHour":
		part = time.Time.Hour
	case "extractMinute":
		part = time.Time.Minute
	case "extractSecond":
		part = time.Time.Second
	}
	return catalog.Int64, retag(catalog.Int64, func(ms int64) int64 {
		return int64(part(time.UnixMilli(ms).UTC()))
	}), nil
}
