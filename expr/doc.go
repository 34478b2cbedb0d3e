// Package expr defines the expression tree compiled by package plan.
//
// An Expression is one of a closed set of variants:
//   - Literal: a typed constant in text form, e.g. Int32 "10"
//   - FieldRef: a reference to an input field by name
//   - Not: boolean negation
//   - BinaryBool: AND / OR of two boolean operands
//   - Comparison: >, >=, ==, !=, <=, < over operands of one type family
//   - Call: a named function such as like, add or castTIMESTAMP
//
// # Basic Usage
//
// Parse an expression received from an editor or a request:
//
//	e, err := expr.Parse([]byte(`{"type":"<","left":{"type":"literal","literal":"f0"},"right":{"type":"literal","literal":"f1"}}`))
//	if err != nil {
//	    return err
//	}
//
// or build it directly:
//
//	e := expr.Compare(expr.OpLessThan, expr.Ref("f0"), expr.Ref("f1"))
//
// Output columns are declared with ParseOutputs or as []Output values.
//
// # SQL Encoding
//
// DuckDBEncoder renders expressions as DuckDB SQL. Expressions that have no
// DuckDB equivalent encode to the empty string:
//
//	enc := expr.NewDuckDBEncoder(nil)
//	where := enc.Encode(e) // (f0 < f1)
package expr
