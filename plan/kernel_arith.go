package plan

import (
	"math"

	"github.com/hugr-lab/colexpr/catalog"
)

func resolveArith(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 2 || !args[0].IsNumeric() || args[0].Family() != args[1].Family() {
		return catalog.TypeInvalid, nil, mismatch(name, "two numeric operands of one type family", args...)
	}
	ret := catalog.Wider(args[0], args[1])

	var (
		si func(a, b int64) (int64, error)
		ui func(a, b uint64) (uint64, error)
		fl func(a, b float64) float64
	)
	switch name {
	case "add":
		si = func(a, b int64) (int64, error) { return a + b, nil }
		ui = func(a, b uint64) (uint64, error) { return a + b, nil }
		fl = func(a, b float64) float64 { return a + b }
	case "subtract":
		si = func(a, b int64) (int64, error) { return a - b, nil }
		ui = func(a, b uint64) (uint64, error) { return a - b, nil }
		fl = func(a, b float64) float64 { return a - b }
	case "multiply":
		si = func(a, b int64) (int64, error) { return a * b, nil }
		ui = func(a, b uint64) (uint64, error) { return a * b, nil }
		fl = func(a, b float64) float64 { return a * b }
	case "divide":
		si = func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, ErrDivideByZero
			}
			return a / b, nil
		}
		ui = func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, ErrDivideByZero
			}
			return a / b, nil
		}
		fl = func(a, b float64) float64 { return a / b }
	case "mod":
		si = func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, ErrDivideByZero
			}
			return a % b, nil
		}
		ui = func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, ErrDivideByZero
			}
			return a % b, nil
		}
		fl = math.Mod
	}

	return ret, func(vs []*vector, n int) (*vector, error) {
		a, b := vs[0], vs[1]
		out := newVector(ret, n)
		out.valid = andValid(n, a, b)
		for i := 0; i < n; i++ {
			if !out.isValid(i) {
				continue
			}
			switch ret.Family() {
			case catalog.FamilySigned:
				r, err := si(a.i64[i], b.i64[i])
				if err != nil {
					return nil, err
				}
				out.i64[i] = wrapSigned(ret, r)
			case catalog.FamilyUnsigned:
				r, err := ui(a.u64[i], b.u64[i])
				if err != nil {
					return nil, err
				}
				out.u64[i] = wrapUnsigned(ret, r)
			case catalog.FamilyFloat:
				out.f64[i] = roundFloat(ret, fl(a.f64[i], b.f64[i]))
			}
		}
		return out, nil
	}, nil
}

func resolveNegate(name string, args []catalog.TypeTag) (catalog.TypeTag, kernel, error) {
	if len(args) != 1 || (args[0].Family() != catalog.FamilySigned && args[0].Family() != catalog.FamilyFloat) {
		return catalog.TypeInvalid, nil, mismatch(name, "one signed or floating point operand", args...)
	}
	ret := args[0]
	return ret, func(vs []*vector, n int) (*vector, error) {
		a := vs[0]
		out := newVector(ret, n)
		out.valid = andValid(n, a)
		for i := 0; i < n; i++ {
			if !out.isValid(i) {
				continue
			}
			if out.i64 != nil {
				out.i64[i] = wrapSigned(ret, -a.i64[i])
			} else {
				out.f64[i] = -a.f64[i]
			}
		}
		return out, nil
	}, nil
}

// wrapSigned truncates x to the width of tag, two's complement.
func wrapSigned(tag catalog.TypeTag, x int64) int64 {
	switch tag.BitWidth() {
	case 8:
		return int64(int8(x))
	case 16:
		return int64(int16(x))
	case 32:
		return int64(int32(x))
	default:
		return x
	}
}

func wrapUnsigned(tag catalog.TypeTag, x uint64) uint64 {
	switch tag.BitWidth() {
	case 8:
		return uint64(uint8(x))
	case 16:
		return uint64(uint16(x))
	case 32:
		return uint64(uint32(x))
	default:
		return x
	}
}

func roundFloat(tag catalog.TypeTag, x float64) float64 {
	if tag == catalog.Float32 {
		return float64(float32(x))
	}
	return x
}
