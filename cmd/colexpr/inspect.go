package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/plan"
	"github.com/hugr-lab/colexpr/source"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the schema and batch sizes of an input file",
		RunE:  runInspect,
	}
	cmd.Flags().String("input", "", "input file (.arrow, .arrows, .parquet, optionally .zst)")
	cmd.Flags().Bool("functions", false, "also list the functions usable in expressions")
	cmd.MarkFlagRequired("input")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	functions, _ := cmd.Flags().GetBool("functions")

	reader, err := source.OpenFile(input, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer reader.Release()

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tARROW TYPE\tTYPE TAG")
	for _, f := range reader.Schema().Fields() {
		tag := "unsupported"
		if t, ok := catalog.TagFromArrow(f.Type); ok {
			tag = string(t)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Type, tag)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var total int64
	fmt.Fprintf(out, "\n%d batches\n", reader.NumBatches())
	for i := 0; i < reader.NumBatches(); i++ {
		batch, err := reader.ReadBatch(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  batch %d: %d rows\n", i, batch.NumRows())
		total += batch.NumRows()
		batch.Release()
	}
	fmt.Fprintf(out, "%d rows\n", total)

	if functions {
		fmt.Fprintln(out, "\nfunctions:")
		for _, name := range plan.Functions() {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	return nil
}
