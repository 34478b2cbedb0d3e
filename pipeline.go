package colexpr

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugr-lab/colexpr/buffer"
	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/internal/recovery"
	"github.com/hugr-lab/colexpr/plan"
	"github.com/hugr-lab/colexpr/source"
)

// Result holds the output buffers of a run, one per input batch, in batch order.
type Result struct {
	Schema  *catalog.Schema
	Buffers []*buffer.Buffer
	// InputRows counts the rows read from the source.
	InputRows int64
}

// NumRows returns the total number of output rows.
func (r *Result) NumRows() int64 {
	var n int64
	for _, b := range r.Buffers {
		n += b.NumRows()
	}
	return n
}

// Release frees every buffer.
func (r *Result) Release() {
	for _, b := range r.Buffers {
		if b != nil {
			b.Release()
		}
	}
	r.Buffers = nil
}

// Run evaluates every batch of reader: filter into a selection vector, project
// the selected rows and materialize them. A nil filter projects every row.
// Batches are evaluated concurrently, bounded by Config.Concurrency.
// The first failure cancels the run and no partial result is returned.
func (e *Engine) Run(ctx context.Context, reader source.Reader, filter *plan.Filter, projector *plan.Projector, opts ...buffer.Option) (*Result, error) {
	if projector == nil {
		return nil, fmt.Errorf("run: projector is required")
	}
	if filter != nil && !projector.Mode().Accepts(e.width) {
		return nil, &plan.SelectionVectorWidthError{
			Width:  e.width,
			Mode:   projector.Mode(),
			Reason: fmt.Sprintf("projector does not accept %s selection vectors", e.width),
		}
	}

	n := reader.NumBatches()
	res := &Result{Schema: projector.OutputSchema(), Buffers: make([]*buffer.Buffer, n)}
	rows := make([]int64, n)
	opts = append([]buffer.Option{buffer.WithAllocator(e.mem)}, opts...)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return recovery.Guard(e.logger, fmt.Sprintf("batch %d", i), func() error {
				buf, inRows, err := e.runBatch(reader, i, filter, projector, opts)
				if err != nil {
					return fmt.Errorf("batch %d: %w", i, err)
				}
				res.Buffers[i] = buf
				rows[i] = inRows
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		res.Release()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		res.Release()
		return nil, err
	}

	for _, r := range rows {
		res.InputRows += r
	}
	e.logger.Debug("Run finished",
		"batches", n,
		"input_rows", res.InputRows,
		"output_rows", res.NumRows(),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func (e *Engine) runBatch(reader source.Reader, i int, filter *plan.Filter, projector *plan.Projector, opts []buffer.Option) (*buffer.Buffer, int64, error) {
	batch, err := reader.ReadBatch(i)
	if err != nil {
		return nil, 0, err
	}
	defer batch.Release()

	var sv *plan.SelectionVector
	if filter != nil {
		sv, err = filter.Select(batch, e.width, e.mem)
		if err != nil {
			return nil, 0, err
		}
		defer sv.Release()
	}

	rec, err := projector.EvaluateRecord(batch, sv)
	if err != nil {
		return nil, 0, err
	}
	defer rec.Release()

	buf, err := buffer.Materialize(projector.OutputSchema(), rec.Columns(), rec.NumRows(), opts...)
	if err != nil {
		return nil, 0, err
	}
	e.logger.Debug("Batch evaluated",
		"batch", i,
		"input_rows", batch.NumRows(),
		"output_rows", rec.NumRows(),
	)
	return buf, batch.NumRows(), nil
}
