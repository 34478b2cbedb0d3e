// Package flight serves filter and projection over Arrow Flight DoExchange.
package flight

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/colexpr/buffer"
	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
	"github.com/hugr-lab/colexpr/plan"
)

// Compiler builds the plans of exchange requests. The returned plans carry a
// reference the server releases when the exchange ends.
type Compiler interface {
	CompileFilter(schema *catalog.Schema, condition expr.Expression) (*plan.Filter, error)
	CompileProjector(schema *catalog.Schema, outputs []expr.Output, mode plan.SelectionMode) (*plan.Projector, error)
	SelectionWidth() plan.Width
}

// Server implements the Flight service handlers.
// Embeds BaseFlightServer so unimplemented RPCs return Unimplemented.
type Server struct {
	flight.BaseFlightServer

	compiler  Compiler
	allocator memory.Allocator
	logger    *slog.Logger
	codec     buffer.Codec
}

// NewServer creates a Flight server evaluating plans built by compiler.
//
// Parameters:
//   - compiler: builds and caches the plans of each exchange
//   - allocator: Arrow allocator for decoded and projected batches (nil uses the default)
//   - logger: base logger; each call adds its trace and session IDs (nil uses slog.Default)
//   - codec: IPC body compression of the output batches
func NewServer(compiler Compiler, allocator memory.Allocator, logger *slog.Logger, codec buffer.Codec) *Server {
	// Use defaults for optional fields
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		compiler:  compiler,
		allocator: allocator,
		logger:    logger,
		codec:     codec,
	}
}

// RegisterFlightServer registers the Flight service on grpcServer.
// Only DoExchange, DoAction and ListActions are served; the other RPCs
// return Unimplemented through the embedded BaseFlightServer.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
