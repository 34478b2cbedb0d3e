package plan

import (
	"fmt"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
)

// Compile lowers an expression tree into a node bound to schema.
// A nil expression compiles to a nil node and no error.
//
// Error conditions:
//   - *catalog.UnknownFieldError for field references missing from schema
//   - *LiteralParseError for literal text that does not parse as its type
//   - *TypeMismatchError for operands of the wrong type
//   - *UnknownFunctionError for calls to unregistered functions
func Compile(schema *catalog.Schema, e expr.Expression) (Node, error) {
	if e == nil {
		return nil, nil
	}
	return compile(schema, e)
}

func compile(schema *catalog.Schema, e expr.Expression) (Node, error) {
	switch e := e.(type) {
	case *expr.FieldRef:
		f, err := schema.Resolve(e.Name)
		if err != nil {
			return nil, err
		}
		return NewField(f), nil

	case *expr.Literal:
		return NewLiteral(e.Type, e.Text)

	case *expr.Not:
		operand, err := compileOperand(schema, e.Operand)
		if err != nil {
			return nil, err
		}
		return NewFunction("not", operand)

	case *expr.BinaryBool:
		left, right, err := compilePair(schema, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		name := e.Op.FunctionName()
		if name == "" {
			return nil, fmt.Errorf("unknown boolean operator %q", e.Op)
		}
		return NewFunction(name, flatten(name, left, right)...)

	case *expr.Comparison:
		left, right, err := compilePair(schema, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		name := e.Op.FunctionName()
		if name == "" {
			return nil, fmt.Errorf("unknown comparison operator %q", e.Op)
		}
		return NewFunction(name, left, right)

	case *expr.Call:
		args := make([]Node, len(e.Args))
		for i, a := range e.Args {
			n, err := compileOperand(schema, a)
			if err != nil {
				return nil, err
			}
			args[i] = n
		}
		return NewFunction(e.Name, args...)

	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

func compileOperand(schema *catalog.Schema, e expr.Expression) (Node, error) {
	if e == nil {
		return nil, fmt.Errorf("missing operand")
	}
	return compile(schema, e)
}

func compilePair(schema *catalog.Schema, l, r expr.Expression) (Node, Node, error) {
	left, err := compileOperand(schema, l)
	if err != nil {
		return nil, nil, err
	}
	right, err := compileOperand(schema, r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// flatten merges nested and/or nodes of the same connective into one n-ary node.
func flatten(name string, nodes ...Node) []Node {
	var out []Node
	for _, n := range nodes {
		if fn, ok := n.(*FunctionNode); ok && fn.Name == name {
			out = append(out, fn.Args...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Projection pairs a compiled node with the output field it produces.
type Projection struct {
	Node  Node
	Field catalog.Field
}

// CompileOutputs compiles output declarations against schema.
func CompileOutputs(schema *catalog.Schema, outputs []expr.Output) ([]Projection, error) {
	out := make([]Projection, 0, len(outputs))
	for _, o := range outputs {
		n, err := Compile(schema, o.Expr)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.Name, err)
		}
		if n == nil {
			return nil, fmt.Errorf("output %q: no expression", o.Name)
		}
		out = append(out, Projection{Node: n, Field: o.Field()})
	}
	return out, nil
}

// FunctionExpression builds a projection applying name to input fields,
// producing out. The function's result type must equal out.Type.
func FunctionExpression(name string, inputs []catalog.Field, out catalog.Field) (Projection, error) {
	args := make([]Node, len(inputs))
	for i, f := range inputs {
		args[i] = NewField(f)
	}
	fn, err := NewFunction(name, args...)
	if err != nil {
		return Projection{}, err
	}
	if fn.Type() != out.Type {
		return Projection{}, mismatch(out.Name, string(out.Type)+" result", fn.Type())
	}
	return Projection{Node: fn, Field: out}, nil
}
