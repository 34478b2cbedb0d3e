package colexpr

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/colexpr/auth"
	"github.com/hugr-lab/colexpr/buffer"
	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/plan"
)

// Config configures an Engine.
type Config struct {
	// Allocator for Arrow memory: selection vectors, output columns and buffers.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for engine logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// If LogLevel is also set, Logger is used as is.
	Logger *slog.Logger

	// LogLevel builds a text logger on stderr at this level.
	// OPTIONAL: Ignored when Logger is set.
	LogLevel *slog.Level

	// CacheCapacity is the number of compiled plans kept for reuse.
	// OPTIONAL: 0 disables the cache; every compile then yields an independent plan.
	CacheCapacity int

	// SelectionWidth is the index width of selection vectors created by Run.
	// OPTIONAL: Uses plan.WidthInt32 if zero.
	SelectionWidth plan.Width

	// Concurrency bounds the batches Run evaluates at once.
	// OPTIONAL: Uses runtime.GOMAXPROCS(0) if zero.
	Concurrency int
}

// ServerConfig configures the Flight service registered by NewServer.
type ServerConfig struct {
	// Engine compiles and caches the plans of exchange requests.
	// REQUIRED: MUST NOT be nil.
	Engine *Engine

	// Auth provides authentication logic.
	// OPTIONAL: If nil, all requests are allowed.
	Auth auth.Authenticator

	// Codec compresses output batches sent to clients.
	// OPTIONAL: Defaults to no compression.
	Codec buffer.Codec

	// MaxMessageSize sets the maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses the gRPC default (4MB).
	MaxMessageSize int
}

// Standard errors returned by the colexpr package.
var (
	// ErrInvalidConfig indicates Config or ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEngineClosed is returned by an Engine after Close.
	ErrEngineClosed = errors.New("engine closed")

	// ErrUnauthorized indicates authentication failed.
	ErrUnauthorized = auth.ErrUnauthorized
)

// Error kinds of the compile and evaluate paths, usable with errors.As.
type (
	UnknownFieldError         = catalog.UnknownFieldError
	UnsupportedTypeError      = catalog.UnsupportedTypeError
	SchemaMismatchError       = catalog.SchemaMismatchError
	LiteralParseError         = plan.LiteralParseError
	TypeMismatchError         = plan.TypeMismatchError
	SelectionVectorWidthError = plan.SelectionVectorWidthError
	UnknownFunctionError      = plan.UnknownFunctionError
	BufferEncodingError       = buffer.BufferEncodingError
)

// Evaluation errors, usable with errors.Is.
var (
	ErrDivideByZero = plan.ErrDivideByZero
	ErrReleased     = plan.ErrReleased
)

func validateConfig(config Config) error {
	if config.CacheCapacity < 0 {
		return fmt.Errorf("cache capacity %d is negative", config.CacheCapacity)
	}
	if config.Concurrency < 0 {
		return fmt.Errorf("concurrency %d is negative", config.Concurrency)
	}
	if config.SelectionWidth != 0 && config.SelectionWidth.ArrowType() == nil {
		return fmt.Errorf("unknown selection width %s", config.SelectionWidth)
	}
	return nil
}

// withDefaults fills the optional fields of a validated config.
func withDefaults(config Config) Config {
	if config.Allocator == nil {
		config.Allocator = memory.DefaultAllocator
	}
	if config.Logger == nil {
		if config.LogLevel != nil {
			config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
		} else {
			config.Logger = slog.Default()
		}
	}
	if config.SelectionWidth == 0 {
		config.SelectionWidth = plan.WidthInt32
	}
	if config.Concurrency == 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}
	return config
}
