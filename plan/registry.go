package plan

import (
	"sort"

	"github.com/hugr-lab/colexpr/catalog"
)

// kernel evaluates a function over argument vectors of n rows.
// Kernels never modify their arguments.
type kernel func(args []*vector, n int) (*vector, error)

// resolver checks argument types and picks the result type and kernel.
type resolver func(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error)

var registry = map[string]resolver{
	// boolean
	"and":       resolveConnective,
	"or":        resolveConnective,
	"not":       resolveNot,
	"isnull":    resolveNullTest,
	"isnotnull": resolveNullTest,

	// comparison
	"greater_than":             resolveCompare,
	"greater_than_or_equal_to": resolveCompare,
	"equal":                    resolveCompare,
	"not_equal":                resolveCompare,
	"less_than_or_equal_to":    resolveCompare,
	"less_than":                resolveCompare,

	// arithmetic
	"add":      resolveArith,
	"subtract": resolveArith,
	"multiply": resolveArith,
	"divide":   resolveArith,
	"mod":      resolveArith,
	"negate":   resolveNegate,

	// string
	"like":        resolveStringPredicate,
	"ilike":       resolveStringPredicate,
	"starts_with": resolveStringPredicate,
	"ends_with":   resolveStringPredicate,
	"char_length": resolveCharLength,
	"upper":       resolveCaseMap,
	"lower":       resolveCaseMap,

	// temporal
	"castTIMESTAMP": resolveCastTimestamp,
	"castDATE":      resolveCastDate,
	"extractYear":   resolveExtract,
	"extractMonth":  resolveExtract,
	"extractDay":    resolveExtract,
	"extractHour":   resolveExtract,
	"extractMinute": resolveExtract,
	"extractSecond": resolveExtract,

	// numeric casts
	"castBIGINT": resolveIntegerCast,
	"castINT":    resolveIntegerCast,
	"castFLOAT8": resolveFloatCast,
	"castFLOAT4": resolveFloatCast,
}

// Functions returns the names of every registered function, sorted.
func Functions() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func arity(name string, args []catalog.TypeTag, n int, expected string) error {
	if len(args) != n {
		return mismatch(name, expected, args...)
	}
	return nil
}
