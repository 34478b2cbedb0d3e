package plan

import (
	"strconv"
	"strings"

	"github.com/hugr-lab/colexpr/catalog"
)

// Node is a compiled, typed expression node. Nodes are immutable and hold no row data.
// The set of node kinds is closed: *FieldNode, *LiteralNode and *FunctionNode.
type Node interface {
	// Type returns the type of the values the node produces.
	Type() catalog.TypeTag

	// String returns the canonical text of the node.
	String() string

	nodeMarker()
}

// FieldNode reads an input column.
type FieldNode struct {
	Field catalog.Field
}

// LiteralNode is a typed constant broadcast to every evaluated row.
type LiteralNode struct {
	tag catalog.TypeTag
	i64 int64
	u64 uint64
	f64 float64
	str string
	b   bool
}

// FunctionNode applies a registered function to its argument nodes.
type FunctionNode struct {
	Name string
	Args []Node
	ret  catalog.TypeTag
	impl kernel
}

func (n *FieldNode) Type() catalog.TypeTag    { return n.Field.Type }
func (n *LiteralNode) Type() catalog.TypeTag  { return n.tag }
func (n *FunctionNode) Type() catalog.TypeTag { return n.ret }

func (*FieldNode) nodeMarker()    {}
func (*LiteralNode) nodeMarker()  {}
func (*FunctionNode) nodeMarker() {}

func (n *FieldNode) String() string {
	return "(" + string(n.Field.Type) + ") " + n.Field.Name
}

func (n *LiteralNode) String() string {
	return "(const " + string(n.tag) + ") " + n.text()
}

func (n *LiteralNode) text() string {
	switch n.tag.Family() {
	case catalog.FamilySigned, catalog.FamilyTemporal:
		return strconv.FormatInt(n.i64, 10)
	case catalog.FamilyUnsigned:
		return strconv.FormatUint(n.u64, 10)
	case catalog.FamilyFloat:
		return strconv.FormatFloat(n.f64, 'g', -1, 64)
	case catalog.FamilyString:
		return strconv.Quote(n.str)
	case catalog.FamilyBoolean:
		return strconv.FormatBool(n.b)
	default:
		return "?"
	}
}

func (n *FunctionNode) String() string {
	var sb strings.Builder
	sb.WriteString(string(n.ret))
	sb.WriteByte(' ')
	sb.WriteString(n.Name)
	sb.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// NewField returns a node reading field f.
func NewField(f catalog.Field) *FieldNode {
	return &FieldNode{Field: f}
}

// NewLiteral parses text as a constant of type tag.
// Failure yields *LiteralParseError.
func NewLiteral(tag catalog.TypeTag, text string) (*LiteralNode, error) {
	return parseLiteral(tag, text)
}

// NewFunction resolves name against the function registry for the argument types.
func NewFunction(name string, args ...Node) (*FunctionNode, error) {
	def, ok := registry[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}
	types := make([]catalog.TypeTag, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	ret, impl, err := def(name, types)
	if err != nil {
		return nil, err
	}
	return &FunctionNode{Name: name, Args: args, ret: ret, impl: impl}, nil
}

// broadcast expands the literal to n rows.
func (n *LiteralNode) broadcast(count int) *vector {
	v := newVector(n.tag, count)
	switch {
	case v.i64 != nil:
		fill(v.i64, n.i64)
	case v.u64 != nil:
		fill(v.u64, n.u64)
	case v.f64 != nil:
		fill(v.f64, n.f64)
	case v.str != nil:
		fill(v.str, n.str)
	case v.b != nil:
		fill(v.b, n.b)
	}
	return v
}

func fill[T any](s []T, x T) {
	for i := range s {
		s[i] = x
	}
}

// fields returns every field read by the node tree, in first-use order.
func fields(n Node, out []catalog.Field) []catalog.Field {
	switch n := n.(type) {
	case *FieldNode:
		for _, f := range out {
			if f.Name == n.Field.Name {
				return out
			}
		}
		return append(out, n.Field)
	case *FunctionNode:
		for _, a := range n.Args {
			out = fields(a, out)
		}
	}
	return out
}
