package expr

import (
	"strconv"
	"strings"
	"time"

	"github.com/hugr-lab/colexpr/catalog"
)

// EncoderOptions configures SQL encoding.
type EncoderOptions struct {
	// ColumnMapping maps field names to target column names.
	// Fields not in the map use their original names.
	ColumnMapping map[string]string

	// ColumnExpressions maps field names to SQL expressions.
	// Takes precedence over ColumnMapping.
	ColumnExpressions map[string]string
}

// DuckDBEncoder encodes expressions to DuckDB SQL.
// It is used to cross-check plans against DuckDB and to print plans in SQL form.
type DuckDBEncoder struct {
	opts *EncoderOptions
}

// NewDuckDBEncoder creates a new DuckDB SQL encoder.
// If opts is nil, default options are used.
func NewDuckDBEncoder(opts *EncoderOptions) *DuckDBEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &DuckDBEncoder{opts: opts}
}

// Encode converts an expression to SQL.
// Returns empty string if the expression or any of its children is unsupported.
func (e *DuckDBEncoder) Encode(ex Expression) string {
	switch ex := ex.(type) {
	case *Literal:
		return e.encodeLiteral(ex)
	case *FieldRef:
		return e.encodeField(ex)
	case *Not:
		operand := e.Encode(ex.Operand)
		if operand == "" {
			return ""
		}
		return "(NOT " + operand + ")"
	case *BinaryBool:
		return e.encodeBinaryBool(ex)
	case *Comparison:
		return e.encodeComparison(ex)
	case *Call:
		return e.encodeCall(ex)
	default:
		return ""
	}
}

// EncodeOutputs converts outputs to a SELECT list body.
// Returns empty string if any output is unsupported.
func (e *DuckDBEncoder) EncodeOutputs(outputs []Output) string {
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		sql := e.Encode(o.Expr)
		if sql == "" {
			return ""
		}
		parts = append(parts, "CAST("+sql+" AS "+sqlType(o.Type)+") AS "+quoteIdentifier(o.Name))
	}
	return strings.Join(parts, ", ")
}

func (e *DuckDBEncoder) encodeField(f *FieldRef) string {
	if e.opts.ColumnExpressions != nil {
		if sql, ok := e.opts.ColumnExpressions[f.Name]; ok {
			return sql
		}
	}
	name := f.Name
	if e.opts.ColumnMapping != nil {
		if mapped, ok := e.opts.ColumnMapping[name]; ok {
			name = mapped
		}
	}
	return quoteIdentifier(name)
}

func (e *DuckDBEncoder) encodeBinaryBool(b *BinaryBool) string {
	left := e.Encode(b.Left)
	right := e.Encode(b.Right)
	if left == "" || right == "" {
		return ""
	}
	switch b.Op {
	case OpAnd:
		return "(" + left + " AND " + right + ")"
	case OpOr:
		return "(" + left + " OR " + right + ")"
	default:
		return ""
	}
}

func (e *DuckDBEncoder) encodeComparison(c *Comparison) string {
	left := e.Encode(c.Left)
	right := e.Encode(c.Right)
	if left == "" || right == "" {
		return ""
	}
	op := sqlCompareOp(c.Op)
	if op == "" {
		return ""
	}
	return "(" + left + " " + op + " " + right + ")"
}

func sqlCompareOp(op CompareOp) string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return string(op)
	default:
		return ""
	}
}

func (e *DuckDBEncoder) encodeCall(c *Call) string {
	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		sql := e.Encode(a)
		if sql == "" {
			return ""
		}
		args = append(args, sql)
	}

	binary := func(op string) string {
		if len(args) != 2 {
			return ""
		}
		return "(" + args[0] + " " + op + " " + args[1] + ")"
	}
	unary := func(format string) string {
		if len(args) != 1 {
			return ""
		}
		return strings.ReplaceAll(format, "$1", args[0])
	}

	switch c.Name {
	case "and":
		return joinArgs(args, " AND ")
	case "or":
		return joinArgs(args, " OR ")
	case "not":
		return unary("(NOT $1)")
	case "isnull":
		return unary("($1 IS NULL)")
	case "isnotnull":
		return unary("($1 IS NOT NULL)")
	case "greater_than":
		return binary(">")
	case "greater_than_or_equal_to":
		return binary(">=")
	case "equal":
		return binary("=")
	case "not_equal":
		return binary("<>")
	case "less_than_or_equal_to":
		return binary("<=")
	case "less_than":
		return binary("<")
	case "add":
		return binary("+")
	case "subtract":
		return binary("-")
	case "multiply":
		return binary("*")
	case "mod":
		return binary("%")
	case "negate":
		return unary("(-$1)")
	case "like":
		return binary("LIKE")
	case "ilike":
		return binary("ILIKE")
	case "starts_with", "ends_with", "upper", "lower":
		return c.Name + "(" + strings.Join(args, ", ") + ")"
	case "char_length":
		return unary("CAST(length($1) AS INTEGER)")
	case "castTIMESTAMP":
		return unary("CAST($1 AS TIMESTAMP)")
	case "castDATE":
		return unary("CAST($1 AS DATE)")
	case "castBIGINT":
		return unary("CAST($1 AS BIGINT)")
	case "castINT":
		return unary("CAST($1 AS INTEGER)")
	case "castFLOAT8":
		return unary("CAST($1 AS DOUBLE)")
	case "castFLOAT4":
		return unary("CAST($1 AS REAL)")
	case "extractYear":
		return unary("CAST(year($1) AS BIGINT)")
	case "extractMonth":
		return unary("CAST(month($1) AS BIGINT)")
	case "extractDay":
		return unary("CAST(day($1) AS BIGINT)")
	case "extractHour":
		return unary("CAST(hour($1) AS BIGINT)")
	case "extractMinute":
		return unary("CAST(minute($1) AS BIGINT)")
	case "extractSecond":
		return unary("CAST(second($1) AS BIGINT)")
	default:
		// divide has no portable equivalent: DuckDB's "/" returns DOUBLE for integers.
		return ""
	}
}

func joinArgs(args []string, op string) string {
	if len(args) == 0 {
		return ""
	}
	if len(args) == 1 {
		return args[0]
	}
	return "(" + strings.Join(args, op) + ")"
}

func (e *DuckDBEncoder) encodeLiteral(l *Literal) string {
	switch l.Type.Family() {
	case catalog.FamilySigned, catalog.FamilyUnsigned, catalog.FamilyFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(l.Text), 64); err != nil {
			return ""
		}
		return "CAST(" + strings.TrimSpace(l.Text) + " AS " + sqlType(l.Type) + ")"
	case catalog.FamilyString:
		return quoteLiteral(l.Text)
	case catalog.FamilyBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(l.Text))
		if err != nil {
			return ""
		}
		if b {
			return "TRUE"
		}
		return "FALSE"
	case catalog.FamilyTemporal:
		return encodeTemporal(l)
	default:
		return ""
	}
}

func encodeTemporal(l *Literal) string {
	text := strings.TrimSpace(l.Text)
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		if l.Type == catalog.DateMillisecond {
			return "DATE '" + t.Format("2006-01-02") + "'"
		}
		return "TIMESTAMP '" + t.Format("2006-01-02 15:04:05.000") + "'"
	}
	if l.Type == catalog.DateMillisecond {
		return "DATE " + quoteLiteral(text)
	}
	return "TIMESTAMP " + quoteLiteral(text)
}

func sqlType(t catalog.TypeTag) string {
	switch t {
	case catalog.Int8:
		return "TINYINT"
	case catalog.Int16:
		return "SMALLINT"
	case catalog.Int32:
		return "INTEGER"
	case catalog.Int64:
		return "BIGINT"
	case catalog.UInt8:
		return "UTINYINT"
	case catalog.UInt16:
		return "USMALLINT"
	case catalog.UInt32:
		return "UINTEGER"
	case catalog.UInt64:
		return "UBIGINT"
	case catalog.Float32:
		return "REAL"
	case catalog.Float64:
		return "DOUBLE"
	case catalog.Utf8:
		return "VARCHAR"
	case catalog.Boolean:
		return "BOOLEAN"
	case catalog.Timestamp:
		return "TIMESTAMP"
	case catalog.DateMillisecond:
		return "DATE"
	default:
		return "VARCHAR"
	}
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}
	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	switch strings.ToUpper(name) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE",
		"TABLE", "JOIN", "ON", "AS", "IN", "IS", "LIKE", "ILIKE", "BETWEEN", "CASE",
		"WHEN", "THEN", "ELSE", "END", "ORDER", "BY", "GROUP", "LIMIT", "VALUES",
		"CAST", "DATE", "TIME", "TIMESTAMP", "INTERVAL", "ALL", "DISTINCT":
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
