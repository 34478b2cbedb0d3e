package plan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
)

// Projector computes output columns from an input batch.
// It is immutable and safe for concurrent evaluation against different batches.
type Projector struct {
	refCount
	schema *catalog.Schema
	output *catalog.Schema
	exprs  []Projection
	mode   SelectionMode
	mem    memory.Allocator
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithSelectionMode fixes the selection vector widths accepted by EvaluateWithSelection.
// The default, SelectionModeNone, accepts none.
func WithSelectionMode(mode SelectionMode) ProjectorOption {
	return func(p *Projector) { p.mode = mode }
}

// WithAllocator sets the allocator for output arrays.
func WithAllocator(mem memory.Allocator) ProjectorOption {
	return func(p *Projector) {
		if mem != nil {
			p.mem = mem
		}
	}
}

// NewProjector binds projections to schema. Each node's type must equal
// the type of its output field.
func NewProjector(schema *catalog.Schema, exprs []Projection, opts ...ProjectorOption) (*Projector, error) {
	p := &Projector{
		schema: schema,
		exprs:  make([]Projection, len(exprs)),
		mem:    memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mode != SelectionModeNone && p.mode != SelectionModeUInt16 && p.mode != SelectionModeUInt32 {
		return nil, fmt.Errorf("unknown selection mode %d", int(p.mode))
	}

	fields := make([]catalog.Field, len(exprs))
	for i, e := range exprs {
		if e.Node == nil {
			return nil, mismatch(e.Field.Name, string(e.Field.Type))
		}
		if e.Node.Type() != e.Field.Type {
			return nil, mismatch(e.Field.Name, string(e.Field.Type), e.Node.Type())
		}
		if err := checkFields(schema, e.Node); err != nil {
			return nil, fmt.Errorf("output %q: %w", e.Field.Name, err)
		}
		p.exprs[i] = e
		fields[i] = e.Field
	}

	output, err := catalog.Empty(fields)
	if err != nil {
		return nil, err
	}
	p.output = output
	p.init()
	return p, nil
}

// Schema returns the bound input schema.
func (p *Projector) Schema() *catalog.Schema { return p.schema }

// OutputSchema returns the schema of the produced columns.
func (p *Projector) OutputSchema() *catalog.Schema { return p.output }

// Mode returns the selection mode.
func (p *Projector) Mode() SelectionMode { return p.mode }

// Projections returns the compiled output expressions.
func (p *Projector) Projections() []Projection {
	out := make([]Projection, len(p.exprs))
	copy(out, p.exprs)
	return out
}

func (p *Projector) String() string {
	s := "project"
	for _, e := range p.exprs {
		s += " " + e.Field.Name + "=" + e.Node.String() + ";"
	}
	return s
}

// Retain adds a reference to the plan. It has no effect once the last
// reference was released.
func (p *Projector) Retain() { p.retain() }

// Release drops a reference. The plan is unusable once the last reference is gone.
func (p *Projector) Release() { p.release() }

// Evaluate computes every output column over every row of batch.
// The caller must release the returned arrays.
func (p *Projector) Evaluate(batch arrow.RecordBatch) ([]arrow.Array, error) {
	if !p.alive() {
		return nil, ErrReleased
	}
	if err := p.schema.Match(batch.Schema()); err != nil {
		return nil, err
	}
	return p.evaluate(batch, fullDomain(int(batch.NumRows())))
}

// EvaluateWithSelection computes every output column over the rows named by sv, in order.
// The caller must release the returned arrays.
func (p *Projector) EvaluateWithSelection(sv *SelectionVector, batch arrow.RecordBatch) ([]arrow.Array, error) {
	if !p.alive() || sv.released.Load() {
		return nil, ErrReleased
	}
	if !p.mode.Accepts(sv.Width()) {
		return nil, &SelectionVectorWidthError{
			Width:  sv.Width(),
			Mode:   p.mode,
			Reason: fmt.Sprintf("not accepted by selection mode %s", p.mode),
		}
	}
	if err := p.schema.Match(batch.Schema()); err != nil {
		return nil, err
	}
	rows := sv.Indices()
	if n := len(rows); n > 0 && rows[n-1] >= int(batch.NumRows()) {
		return nil, &SelectionVectorWidthError{
			Width:  sv.Width(),
			Mode:   p.mode,
			Rows:   int(batch.NumRows()),
			Reason: fmt.Sprintf("index %d outside batch of %d rows", rows[n-1], batch.NumRows()),
		}
	}
	return p.evaluate(batch, selectedDomain(rows))
}

// EvaluateRecord evaluates into a record batch with the output schema.
// A nil sv evaluates every row. The caller must release the result.
func (p *Projector) EvaluateRecord(batch arrow.RecordBatch, sv *SelectionVector) (arrow.RecordBatch, error) {
	var (
		cols []arrow.Array
		err  error
	)
	if sv == nil {
		cols, err = p.Evaluate(batch)
	} else {
		cols, err = p.EvaluateWithSelection(sv, batch)
	}
	if err != nil {
		return nil, err
	}
	defer releaseAll(cols)

	n := batch.NumRows()
	if sv != nil {
		n = int64(sv.Len())
	}
	return array.NewRecordBatch(p.output.Arrow(), cols, n), nil
}

func (p *Projector) evaluate(batch arrow.RecordBatch, dom domain) ([]arrow.Array, error) {
	ec := newEvalContext(p.schema, batch, dom)
	out := make([]arrow.Array, 0, len(p.exprs))
	for _, e := range p.exprs {
		v, err := ec.eval(e.Node)
		if err != nil {
			releaseAll(out)
			return nil, fmt.Errorf("output %q: %w", e.Field.Name, err)
		}
		out = append(out, v.toArray(p.mem))
	}
	return out, nil
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}
