// Package colexpr compiles filter and projection expressions over Arrow record
// batches and evaluates them in batch at a time.
//
// The colexpr package ties the lower level packages together:
//   - An Engine compiles filters and projectors and caches the plans
//   - Run evaluates plans over a batch source and materializes the output
//   - NewServer exposes the engine as an Arrow Flight DoExchange service
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/apache/arrow-go/v18/arrow/memory"
//
//	    "github.com/hugr-lab/colexpr"
//	    "github.com/hugr-lab/colexpr/catalog"
//	    "github.com/hugr-lab/colexpr/expr"
//	    "github.com/hugr-lab/colexpr/plan"
//	    "github.com/hugr-lab/colexpr/source"
//	)
//
//	func main() {
//	    reader, err := source.OpenFile("events.parquet", memory.DefaultAllocator)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer reader.Release()
//	    schema, _ := catalog.FromArrow(reader.Schema())
//
//	    engine, _ := colexpr.NewEngine(colexpr.Config{CacheCapacity: 64})
//	    defer engine.Close()
//
//	    // f0 < f1
//	    filter, err := engine.CompileFilter(schema,
//	        expr.Compare(expr.OpLessThan, expr.Ref("f0"), expr.Ref("f1")))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer filter.Release()
//
//	    projector, err := engine.CompileProjector(schema, []expr.Output{
//	        {Name: "sum", Type: catalog.Int32, Expr: expr.Fn("add", expr.Ref("f1"), expr.Ref("f2"))},
//	    }, plan.ModeFor(engine.SelectionWidth()))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer projector.Release()
//
//	    res, err := engine.Run(context.Background(), reader, filter, projector)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer res.Release()
//	    log.Printf("kept %d of %d rows", res.NumRows(), res.InputRows)
//	}
//
// # Plan Cache
//
// With Config.CacheCapacity set, identical compile requests (same schema
// fingerprint and same canonical expression text) share one plan. The cache
// holds one reference per plan and drops it on eviction or Close; callers
// hold their own and release it when done. A plan stays usable until its
// last holder releases it.
//
// # Server Lifecycle
//
// NewServer registers Flight handlers on a user-provided grpc.Server but does
// NOT start, stop or listen. ServerOptions returns the interceptors and
// message size options matching a ServerConfig.
//
// # Authentication
//
//	auth := colexpr.BearerAuth(func(token string) (string, error) {
//	    if token == "secret-api-key" {
//	        return "user1", nil
//	    }
//	    return "", colexpr.ErrUnauthorized
//	})
//
// # Logging
//
// The engine logs through Config.Logger, or slog.Default() when unset.
// Compile, cache and batch events are logged at debug level.
//
// # Memory Management
//
// Arrow uses manual reference counting. Callers MUST call Release() on plans,
// selection vectors, records, buffers and results they receive.
package colexpr
