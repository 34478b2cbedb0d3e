package plan

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
)

func TestKleeneLogic(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	// every combination of true, false and null
	valid := []bool{true, true, true, true, true, true, false, false, false}
	batch := makeBatch([]string{"a", "b"},
		boolArray(mem, []bool{true, true, true, false, false, false, false, false, false}, valid),
		boolArray(mem, []bool{true, false, false, true, false, false, true, false, false},
			[]bool{true, true, false, true, true, false, true, true, false}),
	)
	defer batch.Release()
	schema := schemaOf(t, batch)

	proj := compileProjector(t, schema, []expr.Output{
		{Name: "and", Type: catalog.Boolean, Expr: expr.And(expr.Ref("a"), expr.Ref("b"))},
		{Name: "or", Type: catalog.Boolean, Expr: expr.Or(expr.Ref("a"), expr.Ref("b"))},
		{Name: "not", Type: catalog.Boolean, Expr: expr.Negate(expr.Ref("a"))},
	}, WithAllocator(mem))
	defer proj.Release()

	cols, err := proj.Evaluate(batch)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	defer releaseAll(cols)

	// nil means null
	tr, fa := true, false
	T, F := &tr, &fa
	wantAnd := []*bool{T, F, nil, F, F, F, nil, F, nil}
	wantOr := []*bool{T, T, T, T, F, nil, T, nil, nil}
	wantNot := []*bool{F, F, F, T, T, T, nil, nil, nil}

	check := func(name string, arr *array.Boolean, want []*bool) {
		for i, w := range want {
			switch {
			case w == nil && arr.IsValid(i):
				t.Errorf("%s row %d: expected null, got %v", name, i, arr.Value(i))
			case w != nil && !arr.IsValid(i):
				t.Errorf("%s row %d: expected %v, got null", name, i, *w)
			case w != nil && arr.Value(i) != *w:
				t.Errorf("%s row %d: expected %v, got %v", name, i, *w, arr.Value(i))
			}
		}
	}
	check("and", cols[0].(*array.Boolean), wantAnd)
	check("or", cols[1].(*array.Boolean), wantOr)
	check("not", cols[2].(*array.Boolean), wantNot)
}

func TestFlattenConnectives(t *testing.T) {
	schema, err := catalog.NewSchema(
		catalog.Field{Name: "a", Type: catalog.Boolean},
		catalog.Field{Name: "b", Type: catalog.Boolean},
		catalog.Field{Name: "c", Type: catalog.Boolean},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}
	node, err := Compile(schema, expr.And(expr.And(expr.Ref("a"), expr.Ref("b")), expr.Ref("c")))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	fn, ok := node.(*FunctionNode)
	if !ok || fn.Name != "and" || len(fn.Args) != 3 {
		t.Errorf("expected flat and of three operands, got %s", node)
	}
}

func TestNullTests(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := makeBatch([]string{"s"}, stringArray(mem, []string{"x", ""}, []bool{true, false}))
	defer batch.Release()
	schema := schemaOf(t, batch)

	filter := compileFilter(t, schema, expr.Fn("isnull", expr.Ref("s")))
	defer filter.Release()
	sv, err := filter.Select(batch, WidthInt16, mem)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	defer sv.Release()
	checkIndices(t, sv, []int{1})
}

func TestComparisonTypes(t *testing.T) {
	schema, err := catalog.NewSchema(
		catalog.Field{Name: "i", Type: catalog.Int32},
		catalog.Field{Name: "l", Type: catalog.Int64},
		catalog.Field{Name: "s", Type: catalog.Utf8},
		catalog.Field{Name: "b", Type: catalog.Boolean},
	)
	if err != nil {
		t.Fatalf("NewSchema failed: %v", err)
	}

	tests := []struct {
		name    string
		e       expr.Expression
		wantErr bool
	}{
		{"widened signed", expr.Compare(expr.OpLessThan, expr.Ref("i"), expr.Ref("l")), false},
		{"string", expr.Compare(expr.OpEqual, expr.Ref("s"), expr.Lit(catalog.Utf8, "x")), false},
		{"boolean equality", expr.Compare(expr.OpEqual, expr.Ref("b"), expr.Lit(catalog.Boolean, "true")), false},
		{"boolean ordering", expr.Compare(expr.OpLessThan, expr.Ref("b"), expr.Ref("b")), true},
		{"mixed families", expr.Compare(expr.OpEqual, expr.Ref("i"), expr.Ref("s")), true},
		{"not of integer", expr.Negate(expr.Ref("i")), true},
		{"and of integer", expr.And(expr.Ref("b"), expr.Ref("i")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(schema, tt.e)
			if tt.wantErr {
				var tm *TypeMismatchError
				if !errors.As(err, &tm) {
					t.Errorf("expected TypeMismatchError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUnknownFunction(t *testing.T) {
	_, err := NewFunction("frobnicate")
	var uf *UnknownFunctionError
	if !errors.As(err, &uf) || uf.Name != "frobnicate" {
		t.Errorf("expected UnknownFunctionError, got %v", err)
	}
}

func TestDivideByZero(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := makeBatch([]string{"a", "b"},
		int32Array(mem, []int32{10, 7}, nil),
		int32Array(mem, []int32{2, 0}, nil),
	)
	defer batch.Release()
	schema := schemaOf(t, batch)

	proj := compileProjector(t, schema, []expr.Output{
		{Name: "q", Type: catalog.Int32, Expr: expr.Fn("divide", expr.Ref("a"), expr.Ref("b"))},
	}, WithAllocator(mem))
	defer proj.Release()

	if _, err := proj.Evaluate(batch); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}

	// the zero divisor is not selected, so the evaluation succeeds
	sv, err := NewSelectionVector(WidthInt16, 2, mem)
	if err != nil {
		t.Fatalf("NewSelectionVector failed: %v", err)
	}
	defer sv.Release()
	sv.set([]int{0})

	proj16 := compileProjector(t, schema, []expr.Output{
		{Name: "q", Type: catalog.Int32, Expr: expr.Fn("divide", expr.Ref("a"), expr.Ref("b"))},
	}, WithAllocator(mem), WithSelectionMode(SelectionModeUInt16))
	defer proj16.Release()

	cols, err := proj16.EvaluateWithSelection(sv, batch)
	if err != nil {
		t.Fatalf("EvaluateWithSelection failed: %v", err)
	}
	defer releaseAll(cols)
	checkInt32(t, cols[0], []int32{5}, []bool{true})
}

func TestArithmeticWidening(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := makeBatch([]string{"a"}, int32Array(mem, []int32{2147483647, -3}, nil))
	defer batch.Release()
	schema := schemaOf(t, batch)

	proj := compileProjector(t, schema, []expr.Output{
		{Name: "wrapped", Type: catalog.Int32, Expr: expr.Fn("add", expr.Ref("a"), expr.Lit(catalog.Int32, "1"))},
		{Name: "wide", Type: catalog.Int64, Expr: expr.Fn("add", expr.Ref("a"), expr.Lit(catalog.Int64, "1"))},
		{Name: "neg", Type: catalog.Int32, Expr: expr.Fn("negate", expr.Ref("a"))},
		{Name: "mod", Type: catalog.Int32, Expr: expr.Fn("mod", expr.Ref("a"), expr.Lit(catalog.Int32, "2"))},
	}, WithAllocator(mem))
	defer proj.Release()

	cols, err := proj.Evaluate(batch)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	defer releaseAll(cols)

	all := []bool{true, true}
	checkInt32(t, cols[0], []int32{-2147483648, -2}, all)
	wide := cols[1].(*array.Int64)
	if wide.Value(0) != 2147483648 || wide.Value(1) != -2 {
		t.Errorf("unexpected widened sums %v", wide)
	}
	checkInt32(t, cols[2], []int32{-2147483647, 3}, all)
	checkInt32(t, cols[3], []int32{1, -1}, all)
}

func TestStringFunctions(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := makeBatch([]string{"s"},
		stringArray(mem, []string{"Spark", "héllo", ""}, []bool{true, true, false}))
	defer batch.Release()
	schema := schemaOf(t, batch)

	proj := compileProjector(t, schema, []expr.Output{
		{Name: "ilike", Type: catalog.Boolean, Expr: expr.Fn("ilike", expr.Ref("s"), expr.Lit(catalog.Utf8, "sp%"))},
		{Name: "len", Type: catalog.Int32, Expr: expr.Fn("char_length", expr.Ref("s"))},
		{Name: "upper", Type: catalog.Utf8, Expr: expr.Fn("upper", expr.Ref("s"))},
		{Name: "ends", Type: catalog.Boolean, Expr: expr.Fn("ends_with", expr.Ref("s"), expr.Lit(catalog.Utf8, "lo"))},
	}, WithAllocator(mem))
	defer proj.Release()

	cols, err := proj.Evaluate(batch)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	defer releaseAll(cols)

	ilike := cols[0].(*array.Boolean)
	if !ilike.Value(0) || ilike.Value(1) || ilike.IsValid(2) {
		t.Errorf("unexpected ilike result %v", ilike)
	}
	checkInt32(t, cols[1], []int32{5, 5, 0}, []bool{true, true, false})
	upper := cols[2].(*array.String)
	if upper.Value(0) != "SPARK" || upper.Value(1) != "HÉLLO" || upper.IsValid(2) {
		t.Errorf("unexpected upper result %v", upper)
	}
	ends := cols[3].(*array.Boolean)
	if ends.Value(0) || !ends.Value(1) {
		t.Errorf("unexpected ends_with result %v", ends)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"%spark%", "sparkle", true},
		{"%spark%", "park", false},
		{"spark", "spark", true},
		{"spark", "sparks", false},
		{"s_ark", "shark", true},
		{"s_ark", "sark", false},
		{"%", "", true},
		{"_", "", false},
		{"a%%b", "axxb", true},
		{"%ab", "aab", true},
		{"h_llo", "héllo", true},
		{`100\%`, "100%", true},
		{`100\%`, "1000", false},
		{`a\_b`, "a_b", true},
		{`a\_b`, "axb", false},
	}
	for _, tt := range tests {
		if got := compileLike(tt.pattern, false).match(tt.input); got != tt.want {
			t.Errorf("%q like %q: expected %v, got %v", tt.input, tt.pattern, tt.want, got)
		}
	}
	if !compileLike("SP%", true).match("spark") {
		t.Error("expected case-insensitive match")
	}
}

func TestLiteralParse(t *testing.T) {
	tests := []struct {
		tag     catalog.TypeTag
		text    string
		wantErr bool
	}{
		{catalog.Int8, "127", false},
		{catalog.Int8, "128", true},
		{catalog.UInt16, "-1", true},
		{catalog.Float64, "1.5e3", false},
		{catalog.Boolean, "maybe", true},
		{catalog.Timestamp, "969702330920", false},
		{catalog.Timestamp, "2000-09-23 9:45:30.920", false},
		{catalog.Timestamp, "yesterday", true},
		{catalog.DateMillisecond, "2000-09-23", false},
	}
	for _, tt := range tests {
		_, err := NewLiteral(tt.tag, tt.text)
		if tt.wantErr {
			var lp *LiteralParseError
			if !errors.As(err, &lp) {
				t.Errorf("%s %q: expected LiteralParseError, got %v", tt.tag, tt.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %q: unexpected error %v", tt.tag, tt.text, err)
		}
	}
}

func TestDateLiteralTruncates(t *testing.T) {
	n, err := NewLiteral(catalog.DateMillisecond, "2000-09-23 9:45:30")
	if err != nil {
		t.Fatalf("NewLiteral failed: %v", err)
	}
	if n.i64 != 969667200000 {
		t.Errorf("expected midnight, got %d", n.i64)
	}
}

func TestFunctions(t *testing.T) {
	names := Functions()
	want := map[string]bool{"add": false, "like": false, "castTIMESTAMP": false, "extractMinute": false, "less_than": false}
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("names not sorted at %q", name)
		}
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("function %q not registered", name)
		}
	}
}
