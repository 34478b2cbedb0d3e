package plan

import (
	"strings"
	"unicode/utf8"

	"github.com/hugr-lab/colexpr/catalog"
)

func resolveStringPredicate(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 2 || args[0] != catalog.Utf8 || args[1] != catalog.Utf8 {
		return catalog.TypeInvalid, nil, mismatch(name, "(Utf8, Utf8)", args...)
	}

	var pred func(s, arg string, cache *patternCache) bool
	switch name {
	case "like":
		pred = func(s, pattern string, cache *patternCache) bool { return cache.get(pattern, false).match(s) }
	case "ilike":
		pred = func(s, pattern string, cache *patternCache) bool { return cache.get(pattern, true).match(s) }
	case "starts_with":
		pred = func(s, prefix string, _ *patternCache) bool { return strings.HasPrefix(s, prefix) }
	case "ends_with":
		pred = func(s, suffix string, _ *patternCache) bool { return strings.HasSuffix(s, suffix) }
	}

	return catalog.Boolean, func(vs []*vector, n int) (*vector, error) {
		a, b := vs[0], vs[1]
		out := newVector(catalog.Boolean, n)
		out.valid = andValid(n, a, b)
		var cache patternCache
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.b[i] = pred(a.str[i], b.str[i], &cache)
			}
		}
		return out, nil
	}, nil
}

// patternCache keeps the last compiled pattern; the pattern operand is
// usually a literal, so it is compiled once per evaluation.
type patternCache struct {
	text    string
	fold    bool
	ok      bool
	pattern likePattern
}

func (c *patternCache) get(text string, fold bool) likePattern {
	if !c.ok || c.text != text || c.fold != fold {
		c.text, c.fold, c.ok = text, fold, true
		c.pattern = compileLike(text, fold)
	}
	return c.pattern
}

func resolveCharLength(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || args[0] != catalog.Utf8 {
		return catalog.TypeInvalid, nil, mismatch(name, "(Utf8)", args...)
	}
	return catalog.Int32, func(vs []*vector, n int) (*vector, error) {
		out := newVector(catalog.Int32, n)
		out.valid = andValid(n, vs[0])
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.i64[i] = int64(utf8.RuneCountInString(vs[0].str[i]))
			}
		}
		return out, nil
	}, nil
}

func resolveCaseMap(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || args[0] != catalog.Utf8 {
		return catalog.TypeInvalid, nil, mismatch(name, "(Utf8)", args...)
	}
	fn := strings.ToUpper
	if name == "lower" {
		fn = strings.ToLower
	}
	return catalog.Utf8, func(vs []*vector, n int) (*vector, error) {
		out := newVector(catalog.Utf8, n)
		out.valid = andValid(n, vs[0])
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.str[i] = fn(vs[0].str[i])
			}
		}
		return out, nil
	}, nil
}
