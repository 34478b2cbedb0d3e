package expr

import (
	"testing"

	"github.com/hugr-lab/colexpr/catalog"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{
			name: "comparison",
			expr: Compare(OpLessThan, Ref("f0"), Ref("f1")),
			want: "(f0 < f1)",
		},
		{
			name: "not equal",
			expr: Compare(OpNotEqual, Ref("f0"), Lit(catalog.Int32, "10")),
			want: "(f0 <> CAST(10 AS INTEGER))",
		},
		{
			name: "and or not",
			expr: Or(And(Ref("a"), Ref("b")), Negate(Ref("c"))),
			want: "((a AND b) OR (NOT c))",
		},
		{
			name: "like",
			expr: Fn("like", Ref("a"), Lit(catalog.Utf8, "%spark%")),
			want: "(a LIKE '%spark%')",
		},
		{
			name: "escaped string",
			expr: Compare(OpEqual, Ref("name"), Lit(catalog.Utf8, "O'Brien")),
			want: "(name = 'O''Brien')",
		},
		{
			name: "quoted identifier",
			expr: Compare(OpEqual, Ref("select"), Lit(catalog.Boolean, "true")),
			want: `("select" = TRUE)`,
		},
		{
			name: "timestamp millis",
			expr: Compare(OpGreaterThan, Ref("ts"), Lit(catalog.Timestamp, "969673530920")),
			want: "(ts > TIMESTAMP '2000-09-23 01:45:30.920')",
		},
		{
			name: "date text",
			expr: Compare(OpGreaterThan, Ref("d"), Lit(catalog.DateMillisecond, "2000-01-01")),
			want: "(d > DATE '2000-01-01')",
		},
		{
			name: "arithmetic",
			expr: Fn("add", Ref("f1"), Fn("negate", Ref("f2"))),
			want: "(f1 + (-f2))",
		},
		{
			name: "isnull",
			expr: Fn("isnull", Ref("x")),
			want: "(x IS NULL)",
		},
		{
			name: "unsupported divide",
			expr: Fn("divide", Ref("a"), Ref("b")),
			want: "",
		},
		{
			name: "unsupported child",
			expr: And(Ref("a"), Fn("nosuch", Ref("b"))),
			want: "",
		},
		{
			name: "bad numeric literal",
			expr: Compare(OpEqual, Ref("a"), Lit(catalog.Int32, "ten")),
			want: "",
		},
	}

	enc := NewDuckDBEncoder(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enc.Encode(tt.expr); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEncodeColumnMapping(t *testing.T) {
	enc := NewDuckDBEncoder(&EncoderOptions{
		ColumnMapping:     map[string]string{"f0": "col_0"},
		ColumnExpressions: map[string]string{"total": "(a + b)"},
	})
	got := enc.Encode(Compare(OpLessThan, Ref("f0"), Ref("total")))
	if got != "(col_0 < (a + b))" {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestEncodeOutputs(t *testing.T) {
	enc := NewDuckDBEncoder(nil)
	got := enc.EncodeOutputs([]Output{
		{Name: "result", Type: catalog.Int32, Expr: Fn("add", Ref("f1"), Ref("f2"))},
		{Name: "m", Type: catalog.Int64, Expr: Fn("extractMinute", Ref("ts"))},
	})
	want := "CAST((f1 + f2) AS INTEGER) AS result, CAST(CAST(minute(ts) AS BIGINT) AS BIGINT) AS m"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
