package flight

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/internal/recovery"
	"github.com/hugr-lab/colexpr/plan"
)

// DoExchange filters and projects a stream of record batches.
//
// Protocol:
//   - The client's first message carries a command descriptor holding a
//     MessagePack ExchangeRequest, together with the input schema.
//   - The client then streams input batches.
//   - The server answers each input batch with one output batch holding the
//     projected rows the filter kept, in input order.
//
// The stages run concurrently: reading input, evaluating plans and writing output.
func (s *Server) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	return recovery.GuardStatus(s.logger, "DoExchange", func() error {
		return s.exchange(stream)
	})
}

func (s *Server) exchange(stream flight.FlightService_DoExchangeServer) error {
	ctx := stream.Context()
	logger := RequestMetaFromContext(ctx).Logger(s.logger)

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.allocator))
	if errors.Is(err, io.EOF) {
		return status.Errorf(codes.InvalidArgument, "missing exchange request")
	}
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to create record reader: %v", err)
	}

	req, err := DecodeExchangeRequest(reader.LatestFlightDescriptor())
	if err != nil {
		reader.Release()
		return status.Errorf(codes.InvalidArgument, "invalid exchange request: %v", err)
	}

	logger.Debug("DoExchange requested",
		"filter", req.Filter != "",
		"selection_width", req.SelectionWidth,
	)

	filter, projector, width, err := s.compile(req, reader.Schema())
	if err != nil {
		reader.Release()
		return err
	}
	if filter != nil {
		defer filter.Release()
	}
	defer projector.Release()

	opts := append([]ipc.Option{
		ipc.WithSchema(projector.OutputSchema().Arrow()),
		ipc.WithAllocator(s.allocator),
	}, s.codec.IPCOptions()...)
	writer := flight.NewRecordWriter(stream, opts...)
	defer writer.Close()

	inputCh := make(chan arrow.RecordBatch, 1)
	processedCh := make(chan arrow.RecordBatch, 1)

	eg, ctx := errgroup.WithContext(ctx)

	// Read input outside the errgroup: a client that stops sending must not
	// block the handler from returning its error status.
	var readErr error
	go func() {
		defer close(inputCh)
		defer reader.Release()

		for reader.Next() {
			rec := reader.RecordBatch()
			rec.Retain()
			select {
			case inputCh <- rec:
			case <-ctx.Done():
				rec.Release()
				return
			}
		}
		if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			readErr = fmt.Errorf("failed to read input: %w", err)
		}
	}()

	// Evaluate
	eg.Go(func() error {
		defer close(processedCh)
		batch := 0
		for in := range inputCh {
			out, err := s.evaluate(filter, projector, width, in)
			in.Release()
			if err != nil {
				go drain(inputCh)
				return fmt.Errorf("batch %d: %w", batch, err)
			}
			logger.Debug("Exchange batch evaluated",
				"batch", batch,
				"output_rows", out.NumRows(),
			)
			batch++

			select {
			case processedCh <- out:
			case <-ctx.Done():
				out.Release()
				go drain(inputCh)
				return ctx.Err()
			}
		}
		return nil
	})

	// Write output
	eg.Go(func() error {
		for out := range processedCh {
			err := writer.Write(out)
			out.Release()
			if err != nil {
				drain(processedCh)
				return fmt.Errorf("failed to write output batch: %w", err)
			}
		}
		return nil
	})

	err = eg.Wait()
	if err == nil {
		// inputCh is closed, so the reader has finished
		err = readErr
	}
	if err != nil {
		logger.Error("DoExchange failed", "error", err)
		return status.Errorf(exchangeCode(err), "exchange failed: %v", err)
	}
	logger.Debug("DoExchange completed")
	return nil
}

// compile parses req and compiles its plans against the input schema.
func (s *Server) compile(req ExchangeRequest, input *arrow.Schema) (*plan.Filter, *plan.Projector, plan.Width, error) {
	parsed, err := req.parse(s.compiler.SelectionWidth())
	if err != nil {
		return nil, nil, 0, status.Errorf(codes.InvalidArgument, "invalid exchange request: %v", err)
	}
	schema, err := catalog.FromArrow(input)
	if err != nil {
		return nil, nil, 0, status.Errorf(codes.InvalidArgument, "unsupported input schema: %v", err)
	}

	var filter *plan.Filter
	if parsed.filter != nil {
		filter, err = s.compiler.CompileFilter(schema, parsed.filter)
		if err != nil {
			return nil, nil, 0, status.Errorf(codes.InvalidArgument, "failed to compile filter: %v", err)
		}
	}
	projector, err := s.compiler.CompileProjector(schema, parsed.outputs, plan.ModeFor(parsed.width))
	if err != nil {
		if filter != nil {
			filter.Release()
		}
		return nil, nil, 0, status.Errorf(codes.InvalidArgument, "failed to compile outputs: %v", err)
	}
	return filter, projector, parsed.width, nil
}

func (s *Server) evaluate(filter *plan.Filter, projector *plan.Projector, width plan.Width, in arrow.RecordBatch) (arrow.RecordBatch, error) {
	if filter == nil {
		return projector.EvaluateRecord(in, nil)
	}
	sv, err := filter.Select(in, width, s.allocator)
	if err != nil {
		return nil, err
	}
	defer sv.Release()
	return projector.EvaluateRecord(in, sv)
}

func drain(ch <-chan arrow.RecordBatch) {
	for rec := range ch {
		rec.Release()
	}
}

// exchangeCode maps evaluation failures to gRPC codes.
func exchangeCode(err error) codes.Code {
	var (
		schemaErr *catalog.SchemaMismatchError
		widthErr  *plan.SelectionVectorWidthError
		parseErr  *plan.LiteralParseError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.As(err, &schemaErr), errors.As(err, &widthErr), errors.As(err, &parseErr),
		errors.Is(err, plan.ErrDivideByZero):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}
