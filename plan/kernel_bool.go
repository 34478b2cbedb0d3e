package plan

import (
	"github.com/hugr-lab/colexpr/catalog"
)

func resolveConnective(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) < 2 {
		return catalog.TypeInvalid, nil, mismatch(name, "two or more Boolean operands", args...)
	}
	for _, t := range args {
		if t != catalog.Boolean {
			return catalog.TypeInvalid, nil, mismatch(name, "Boolean operands", args...)
		}
	}
	// and: false dominates; or: true dominates
	dominant := name == "or"
	return catalog.Boolean, func(vs []*vector, n int) (*vector, error) {
		return connective(vs, n, dominant), nil
	}, nil
}

// connective applies Kleene logic: a valid dominant operand decides the row,
// otherwise any null operand makes it null.
func connective(vs []*vector, n int, dominant bool) *vector {
	out := newVector(catalog.Boolean, n)
	for i := 0; i < n; i++ {
		decided, unknown := false, false
		for _, v := range vs {
			if !v.isValid(i) {
				unknown = true
				continue
			}
			if v.b[i] == dominant {
				decided = true
				break
			}
		}
		switch {
		case decided:
			out.b[i] = dominant
		case unknown:
			out.setNull(i)
		default:
			out.b[i] = !dominant
		}
	}
	return out
}

func resolveNot(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || args[0] != catalog.Boolean {
		return catalog.TypeInvalid, nil, mismatch(name, "one Boolean operand", args...)
	}
	return catalog.Boolean, func(vs []*vector, n int) (*vector, error) {
		out := newVector(catalog.Boolean, n)
		out.valid = andValid(n, vs[0])
		for i := 0; i < n; i++ {
			if out.isValid(i) {
				out.b[i] = !vs[0].b[i]
			}
		}
		return out, nil
	}, nil
}

func resolveNullTest(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if err := arity(name, args, 1, "one operand"); err != nil {
		return catalog.TypeInvalid, nil, err
	}
	wantNull := name == "isnull"
	return catalog.Boolean, func(vs []*vector, n int) (*vector, error) {
		out := newVector(catalog.Boolean, n)
		for i := 0; i < n; i++ {
			out.b[i] = vs[0].isValid(i) != wantNull
		}
		return out, nil
	}, nil
}
