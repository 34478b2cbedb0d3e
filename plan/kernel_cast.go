package plan

import (
	"github.com/hugr-lab/colexpr/catalog"
)

func resolveIntegerCast(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || !args[0].IsInteger() {
		return catalog.TypeInvalid, nil, mismatch(name, "one integer operand", args...)
	}
	ret := catalog.Int64
	if name == "castINT" {
		ret = catalog.Int32
	}
	return ret, func(vs []*vector, n int) (*vector, error) {
		a := vs[0]
		out := newVector(ret, n)
		out.valid = andValid(n, a)
		for i := 0; i < n; i++ {
			if !out.isValid(i) {
				continue
			}
			var x int64
			if a.i64 != nil {
				x = a.i64[i]
			} else {
				x = int64(a.u64[i])
			}
			out.i64[i] = wrapSigned(ret, x)
		}
		return out, nil
	}, nil
}

func resolveFloatCast(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || !args[0].IsNumeric() {
		return catalog.TypeInvalid, nil, mismatch(name, "one numeric operand", args...)
	}
	ret := catalog.Float64
	if name == "castFLOAT4" {
		ret = catalog.Float32
	}
	return ret, func(vs []*vector, n int) (*vector, error) {
		a := vs[0]
		out := newVector(ret, n)
		out.valid = andValid(n, a)
		for i := 0; i < n; i++ {
			if !out.isValid(i) {
				continue
			}
			var x float64
			switch {
			case a.i64 != nil:
				x = float64(a.i64[i])
			case a.u64 != nil:
				x = float64(a.u64[i])
			default:
				x = a.f64[i]
			}
			out.f64[i] = roundFloat(ret, x)
		}
		return out, nil
	}, nil
}
