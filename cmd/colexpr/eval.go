package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/spf13/cobra"

	"github.com/hugr-lab/colexpr"
	"github.com/hugr-lab/colexpr/buffer"
	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
	"github.com/hugr-lab/colexpr/internal/compress"
	"github.com/hugr-lab/colexpr/plan"
	"github.com/hugr-lab/colexpr/source"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Filter and project an Arrow or Parquet file",
		Long: `Evaluates a filter and output expressions over every batch of the input.

Expressions are JSON documents, given inline or as @path:

  colexpr eval --input data.parquet \
    --filter '{"type": "<", "left": {"type": "literal", "literal": "f0"}, "right": {"type": "literal", "literal": "f1"}}' \
    --outputs @outputs.json --output result.arrow.zst

Without --output the result rows are printed as a table.`,
		RunE: runEval,
	}
	cmd.Flags().String("input", "", "input file (.arrow, .arrows, .parquet, optionally .zst)")
	cmd.Flags().String("filter", "", "filter expression JSON or @file; empty keeps every row")
	cmd.Flags().String("outputs", "", "output declarations JSON or @file")
	cmd.Flags().String("output", "", "output Arrow IPC file, .zst compresses it")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("outputs")
	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	codec, err := buffer.ParseCodec(s.Codec)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	filterArg, _ := cmd.Flags().GetString("filter")
	outputsArg, _ := cmd.Flags().GetString("outputs")
	output, _ := cmd.Flags().GetString("output")

	filterJSON, err := readArg(filterArg)
	if err != nil {
		return err
	}
	outputsJSON, err := readArg(outputsArg)
	if err != nil {
		return err
	}
	condition, err := expr.Parse(filterJSON)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	outputs, err := expr.ParseOutputs(outputsJSON)
	if err != nil {
		return fmt.Errorf("outputs: %w", err)
	}

	engine, err := newEngine(s)
	if err != nil {
		return err
	}
	defer engine.Close()

	reader, err := source.OpenFile(input, engine.Allocator())
	if err != nil {
		return err
	}
	defer reader.Release()
	schema, err := catalog.FromArrow(reader.Schema())
	if err != nil {
		return err
	}

	var filter *plan.Filter
	if condition != nil {
		if filter, err = engine.CompileFilter(schema, condition); err != nil {
			return err
		}
		defer filter.Release()
	}
	projector, err := engine.CompileProjector(schema, outputs, plan.ModeFor(engine.SelectionWidth()))
	if err != nil {
		return err
	}
	defer projector.Release()

	res, err := engine.Run(cmd.Context(), reader, filter, projector, buffer.WithCodec(codec))
	if err != nil {
		return err
	}
	defer res.Release()

	if output == "" {
		if err := printResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else if err := writeResult(output, res, codec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d rows kept in %d batches\n", res.NumRows(), res.InputRows, len(res.Buffers))
	return nil
}

// readArg returns arg, or the contents of the file it names as @path.
func readArg(arg string) ([]byte, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	}
	return []byte(arg), nil
}

// writeResult writes every result batch into one Arrow IPC file.
func writeResult(path string, res *colexpr.Result, codec buffer.Codec) error {
	var out bytes.Buffer
	opts := append([]ipc.Option{ipc.WithSchema(res.Schema.Arrow())}, codec.IPCOptions()...)
	w, err := ipc.NewFileWriter(&out, opts...)
	if err != nil {
		return fmt.Errorf("failed to create IPC writer: %w", err)
	}
	for i, b := range res.Buffers {
		if err := w.Write(b.Record()); err != nil {
			w.Close()
			return fmt.Errorf("batch %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish IPC file: %w", err)
	}
	return compress.WriteFile(path, out.Bytes())
}

func printResult(out io.Writer, res *colexpr.Result) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fields := res.Schema.Fields()
	for i, f := range fields {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, f.Name)
	}
	fmt.Fprintln(tw)
	for _, b := range res.Buffers {
		printRecord(tw, b.Record())
	}
	return tw.Flush()
}

func printRecord(w io.Writer, rec arrow.RecordBatch) {
	for row := 0; row < int(rec.NumRows()); row++ {
		for i, col := range rec.Columns() {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if col.IsNull(row) {
				fmt.Fprint(w, "null")
			} else {
				fmt.Fprint(w, col.ValueStr(row))
			}
		}
		fmt.Fprintln(w)
	}
}
