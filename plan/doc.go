// Package plan compiles expression trees into typed nodes and evaluates them
// over Arrow record batches.
//
// Evaluation has two phases. A Filter evaluates a Boolean condition and writes
// the surviving row indices into a SelectionVector. A Projector then computes
// its output columns, either over every row or over the rows named by the
// selection vector:
//
//	cond, err := plan.Compile(schema, filterExpr)
//	filter, err := plan.NewFilter(schema, cond)
//	defer filter.Release()
//
//	exprs, err := plan.CompileOutputs(schema, outputs)
//	proj, err := plan.NewProjector(schema, exprs, plan.WithSelectionMode(plan.SelectionModeUInt16))
//	defer proj.Release()
//
//	sv, err := plan.NewSelectionVector(plan.WidthInt16, int(batch.NumRows()), mem)
//	defer sv.Release()
//	if err := filter.Evaluate(batch, sv); err != nil {
//	    return err
//	}
//	cols, err := proj.EvaluateWithSelection(sv, batch)
//
// Nulls follow three-valued logic. Comparisons, arithmetic and string
// functions yield null when any operand is null. AND is false when any
// operand is false and OR is true when any operand is true; otherwise a null
// operand makes them null. A filter selects only rows whose condition is true.
//
// Plans are reference counted so a cache can share them: Retain adds an
// owner, Release drops one, and a plan whose last owner is gone returns
// ErrReleased.
package plan
