package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/source"
)

// writeInput writes f0, f1, f2 Int32 columns to an Arrow IPC file.
func writeInput(t *testing.T, path string) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "f0", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "f1", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "f2", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{0, 5, 1, 0, 7}, nil)
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{1, 1, 2, 3, 4}, nil)
	b.Field(2).(*array.Int32Builder).AppendValues([]int32{5, 0, 9, 0, 1}, []bool{true, true, true, false, true})
	rec := b.NewRecordBatch()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf, ipc.WithSchema(schema))
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

const testFilter = `{"type": "<", "left": {"type": "literal", "literal": "f0"}, "right": {"type": "literal", "literal": "f1"}}`

const testOutputs = `[{"name": "sum", "type": "Int32", "expression":
	{"type": "call", "name": "add", "args": [{"type": "literal", "literal": "f1"}, {"type": "literal", "literal": "f2"}]}}]`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvalToFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.arrow")
	output := filepath.Join(dir, "out.arrow.zst")
	writeInput(t, input)

	outputsFile := filepath.Join(dir, "outputs.json")
	if err := os.WriteFile(outputsFile, []byte(testOutputs), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	msg, err := execute(t, "eval", "--input", input, "--filter", testFilter,
		"--outputs", "@"+outputsFile, "--output", output, "--codec", "zstd")
	if err != nil {
		t.Fatalf("eval failed: %v\n%s", err, msg)
	}
	if !strings.Contains(msg, "3 of 5 rows kept") {
		t.Errorf("unexpected summary %q", msg)
	}

	reader, err := source.OpenFile(output, memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer reader.Release()
	if reader.NumBatches() != 1 {
		t.Fatalf("expected 1 batch, got %d", reader.NumBatches())
	}
	rec, err := reader.ReadBatch(0)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	defer rec.Release()

	col := rec.Column(0).(*array.Int32)
	if col.Len() != 3 || col.Value(0) != 6 || col.Value(1) != 11 || !col.IsNull(2) {
		t.Errorf("unexpected output %v", col)
	}
}

func TestEvalPrint(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.arrow")
	writeInput(t, input)

	msg, err := execute(t, "eval", "--input", input, "--filter", "", "--outputs", testOutputs, "--output", "", "--codec", "none")
	if err != nil {
		t.Fatalf("eval failed: %v\n%s", err, msg)
	}
	if !strings.Contains(msg, "sum") || !strings.Contains(msg, "null") {
		t.Errorf("unexpected table %q", msg)
	}
	if !strings.Contains(msg, "5 of 5 rows kept") {
		t.Errorf("unexpected summary %q", msg)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.arrow")
	writeInput(t, input)

	msg, err := execute(t, "inspect", "--input", input, "--functions")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"f0", "Int32", "1 batches", "5 rows", "castTIMESTAMP"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in output:\n%s", want, msg)
		}
	}
}

func TestReadArg(t *testing.T) {
	got, err := readArg("inline")
	if err != nil || string(got) != "inline" {
		t.Errorf("readArg(inline) = %q, %v", got, err)
	}
	if _, err := readArg("@/does/not/exist.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.arrow")
	writeInput(t, input)

	if _, err := execute(t, "eval", "--input", input, "--outputs", testOutputs, "--width", "int8", "--filter", ""); err == nil {
		t.Error("expected error for unknown width")
	}
	// reset for later tests
	if _, err := execute(t, "eval", "--input", input, "--outputs", testOutputs, "--width", "int32", "--filter", ""); err != nil {
		t.Errorf("eval failed: %v", err)
	}
}
