package expr

import (
	"strconv"
	"strings"

	"github.com/hugr-lab/colexpr/catalog"
)

// Kind identifies the variant of an expression.
type Kind string

const (
	KindLiteral    Kind = "literal"
	KindField      Kind = "field"
	KindNot        Kind = "not"
	KindBinaryBool Kind = "binary_bool"
	KindComparison Kind = "comparison"
	KindCall       Kind = "call"
)

// Expression is the interface implemented by all expression variants.
// The set of variants is closed; use a type switch to access variant data.
type Expression interface {
	// Kind returns the variant of the expression.
	Kind() Kind

	// String returns the canonical text form. Equal trees have equal text.
	String() string

	// expressionMarker is a marker method to prevent external implementation.
	expressionMarker()
}

// BoolOp is a binary boolean connective.
type BoolOp string

const (
	OpAnd BoolOp = "&&"
	OpOr  BoolOp = "||"
)

// FunctionName returns the compiled function name for op.
func (op BoolOp) FunctionName() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return ""
	}
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpGreaterThan        CompareOp = ">"
	OpGreaterThanOrEqual CompareOp = ">="
	OpEqual              CompareOp = "=="
	OpNotEqual           CompareOp = "!="
	OpLessThanOrEqual    CompareOp = "<="
	OpLessThan           CompareOp = "<"
)

// FunctionName returns the compiled function name for op.
func (op CompareOp) FunctionName() string {
	switch op {
	case OpGreaterThan:
		return "greater_than"
	case OpGreaterThanOrEqual:
		return "greater_than_or_equal_to"
	case OpEqual:
		return "equal"
	case OpNotEqual:
		return "not_equal"
	case OpLessThanOrEqual:
		return "less_than_or_equal_to"
	case OpLessThan:
		return "less_than"
	default:
		return ""
	}
}

func (op CompareOp) valid() bool { return op.FunctionName() != "" }

// Literal is a typed constant in its textual form.
// The text is parsed when the expression is compiled.
type Literal struct {
	Type catalog.TypeTag
	Text string
}

// FieldRef references an input field by name.
type FieldRef struct {
	Name string
}

// Not negates a boolean operand.
type Not struct {
	Operand Expression
}

// BinaryBool combines two boolean operands with AND or OR.
type BinaryBool struct {
	Op    BoolOp
	Left  Expression
	Right Expression
}

// Comparison compares two operands of the same type family.
type Comparison struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

// Call invokes a named function from the plan registry.
type Call struct {
	Name string
	Args []Expression
}

func (*Literal) Kind() Kind    { return KindLiteral }
func (*FieldRef) Kind() Kind   { return KindField }
func (*Not) Kind() Kind        { return KindNot }
func (*BinaryBool) Kind() Kind { return KindBinaryBool }
func (*Comparison) Kind() Kind { return KindComparison }
func (*Call) Kind() Kind       { return KindCall }

func (*Literal) expressionMarker()    {}
func (*FieldRef) expressionMarker()   {}
func (*Not) expressionMarker()        {}
func (*BinaryBool) expressionMarker() {}
func (*Comparison) expressionMarker() {}
func (*Call) expressionMarker()       {}

func (l *Literal) String() string {
	return string(l.Type) + "(" + strconv.Quote(l.Text) + ")"
}

func (f *FieldRef) String() string {
	return "col(" + strconv.Quote(f.Name) + ")"
}

func (n *Not) String() string {
	return "not(" + String(n.Operand) + ")"
}

func (b *BinaryBool) String() string {
	return b.Op.FunctionName() + "(" + String(b.Left) + ", " + String(b.Right) + ")"
}

func (c *Comparison) String() string {
	return c.Op.FunctionName() + "(" + String(c.Left) + ", " + String(c.Right) + ")"
}

func (c *Call) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(String(a))
	}
	sb.WriteByte(')')
	return sb.String()
}

// String returns the canonical text of e, or "null" for a nil expression.
func String(e Expression) string {
	if e == nil {
		return "null"
	}
	return e.String()
}

// Output declares one projected column: its name, type and the expression producing it.
type Output struct {
	Name string
	Type catalog.TypeTag
	Expr Expression
}

// Field returns the output column as a catalog field.
func (o Output) Field() catalog.Field {
	return catalog.Field{Name: o.Name, Type: o.Type}
}

func (o Output) String() string {
	return strconv.Quote(o.Name) + ":" + string(o.Type) + "=" + String(o.Expr)
}

// OutputsString returns the canonical text of an output list.
func OutputsString(outputs []Output) string {
	parts := make([]string, len(outputs))
	for i, o := range outputs {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Constructors keep test and CLI code short.

// Lit returns a typed literal.
func Lit(t catalog.TypeTag, text string) *Literal { return &Literal{Type: t, Text: text} }

// Ref returns a field reference.
func Ref(name string) *FieldRef { return &FieldRef{Name: name} }

// Negate returns NOT e.
func Negate(e Expression) *Not { return &Not{Operand: e} }

// And returns l AND r.
func And(l, r Expression) *BinaryBool { return &BinaryBool{Op: OpAnd, Left: l, Right: r} }

// Or returns l OR r.
func Or(l, r Expression) *BinaryBool { return &BinaryBool{Op: OpOr, Left: l, Right: r} }

// Compare returns the comparison l op r.
func Compare(op CompareOp, l, r Expression) *Comparison {
	return &Comparison{Op: op, Left: l, Right: r}
}

// Fn returns a call of the named function.
func Fn(name string, args ...Expression) *Call { return &Call{Name: name, Args: args} }
