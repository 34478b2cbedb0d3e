package plan

import (
	"cmp"
	"strings"

	"github.com/hugr-lab/colexpr/catalog"
)

func resolveCompare(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 2 {
		return catalog.TypeInvalid, nil, mismatch(name, "two operands", args...)
	}
	family := args[0].Family()
	if family == catalog.FamilyInvalid || family != args[1].Family() {
		return catalog.TypeInvalid, nil, mismatch(name, "operands of one type family", args...)
	}
	if family == catalog.FamilyBoolean && name != "equal" && name != "not_equal" {
		return catalog.TypeInvalid, nil, mismatch(name, "ordered operands", args...)
	}

	var test func(c int) bool
	switch name {
	case "greater_than":
		test = func(c int) bool { return c > 0 }
	case "greater_than_or_equal_to":
		test = func(c int) bool { return c >= 0 }
	case "equal":
		test = func(c int) bool { return c == 0 }
	case "not_equal":
		test = func(c int) bool { return c != 0 }
	case "less_than_or_equal_to":
		test = func(c int) bool { return c <= 0 }
	case "less_than":
		test = func(c int) bool { return c < 0 }
	}

	return catalog.Boolean, func(vs []*vector, n int) (*vector, error) {
		a, b := vs[0], vs[1]
		out := newVector(catalog.Boolean, n)
		out.valid = andValid(n, a, b)
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.b[i] = test(compareAt(a, b, i))
			}
		}
		return out, nil
	}, nil
}

// compareAt compares row i of two vectors with the same storage.
func compareAt(a, b *vector, i int) int {
	switch {
	case a.i64 != nil:
		return cmp.Compare(a.i64[i], b.i64[i])
	case a.u64 != nil:
		return cmp.Compare(a.u64[i], b.u64[i])
	case a.f64 != nil:
		return cmp.Compare(a.f64[i], b.f64[i])
	case a.str != nil:
		return strings.Compare(a.str[i], b.str[i])
	case a.b != nil:
		switch {
		case a.b[i] == b.b[i]:
			return 0
		case b.b[i]:
			return -1
		default:
			return 1
		}
	}
	return 0
}
