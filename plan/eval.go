package plan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/colexpr/catalog"
)

// evalContext evaluates nodes over one domain of one batch.
// Field columns are read once and shared by every node that references them.
type evalContext struct {
	schema *catalog.Schema
	batch  arrow.RecordBatch
	dom    domain
	cols   map[string]*vector
}

func newEvalContext(schema *catalog.Schema, batch arrow.RecordBatch, dom domain) *evalContext {
	return &evalContext{schema: schema, batch: batch, dom: dom, cols: make(map[string]*vector)}
}

func (ec *evalContext) eval(n Node) (*vector, error) {
	switch n := n.(type) {
	case *FieldNode:
		if v, ok := ec.cols[n.Field.Name]; ok {
			return v, nil
		}
		idx := ec.schema.Index(n.Field.Name)
		if idx < 0 {
			return nil, &catalog.UnknownFieldError{Name: n.Field.Name}
		}
		v, err := readColumn(ec.batch.Column(idx), n.Field.Type, ec.dom)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", n.Field.Name, err)
		}
		ec.cols[n.Field.Name] = v
		return v, nil

	case *LiteralNode:
		return n.broadcast(ec.dom.n), nil

	case *FunctionNode:
		args := make([]*vector, len(n.Args))
		for i, a := range n.Args {
			v, err := ec.eval(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		v, err := n.impl(args, ec.dom.n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name, err)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

// checkFields verifies that every field read by n exists in schema with the same type.
func checkFields(schema *catalog.Schema, n Node) error {
	for _, f := range fields(n, nil) {
		got, err := schema.Resolve(f.Name)
		if err != nil {
			return err
		}
		if got.Type != f.Type {
			return mismatch("field "+f.Name, string(got.Type), f.Type)
		}
	}
	return nil
}
