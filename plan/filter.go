package plan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
)

// Filter is a compiled boolean condition bound to an input schema.
// It is immutable and safe for concurrent evaluation against different batches.
type Filter struct {
	refCount
	schema    *catalog.Schema
	condition Node
}

// NewFilter binds condition to schema.
// The condition must be Boolean and read only fields of schema.
func NewFilter(schema *catalog.Schema, condition Node) (*Filter, error) {
	if condition == nil {
		return nil, mismatch("filter condition", "Boolean")
	}
	if condition.Type() != catalog.Boolean {
		return nil, mismatch("filter condition", "Boolean", condition.Type())
	}
	if err := checkFields(schema, condition); err != nil {
		return nil, err
	}
	f := &Filter{schema: schema, condition: condition}
	f.init()
	return f, nil
}

// Schema returns the bound input schema.
func (f *Filter) Schema() *catalog.Schema { return f.schema }

// Condition returns the compiled condition.
func (f *Filter) Condition() Node { return f.condition }

func (f *Filter) String() string {
	return "filter " + f.condition.String()
}

// Retain adds a reference to the plan. It has no effect once the last
// reference was released.
func (f *Filter) Retain() { f.retain() }

// Release drops a reference. The plan is unusable once the last reference is gone.
func (f *Filter) Release() { f.release() }

// Evaluate writes into sv the indices of the rows of batch for which the condition is true.
// Rows where it is false or null are skipped. Indices are in row order.
func (f *Filter) Evaluate(batch arrow.RecordBatch, sv *SelectionVector) error {
	if !f.alive() || sv.released.Load() {
		return ErrReleased
	}
	if err := f.schema.Match(batch.Schema()); err != nil {
		return err
	}
	rows := int(batch.NumRows())
	if rows > sv.Capacity() {
		return &SelectionVectorWidthError{
			Width:    sv.Width(),
			Capacity: sv.Capacity(),
			Rows:     rows,
			Reason:   fmt.Sprintf("batch of %d rows exceeds capacity %d", rows, sv.Capacity()),
		}
	}

	ec := newEvalContext(f.schema, batch, fullDomain(rows))
	v, err := ec.eval(f.condition)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	selected := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		if v.isValid(i) && v.b[i] {
			selected = append(selected, i)
		}
	}
	sv.set(selected)
	return nil
}

// Select allocates a selection vector of the given width sized to batch and evaluates into it.
// The caller must release the returned vector.
func (f *Filter) Select(batch arrow.RecordBatch, width Width, mem memory.Allocator) (*SelectionVector, error) {
	sv, err := NewSelectionVector(width, int(batch.NumRows()), mem)
	if err != nil {
		return nil, err
	}
	if err := f.Evaluate(batch, sv); err != nil {
		sv.Release()
		return nil, err
	}
	return sv, nil
}
