package colexpr

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/hugr-lab/colexpr/catalog"
	"github.com/hugr-lab/colexpr/expr"
	"github.com/hugr-lab/colexpr/plan"
)

// Engine compiles plans and runs them over batch sources.
// It is safe for concurrent use.
type Engine struct {
	mem         memory.Allocator
	logger      *slog.Logger
	width       plan.Width
	concurrency int

	mu     sync.Mutex
	cache  *planCache // nil when caching is disabled
	closed bool
}

// NewEngine validates config and creates an engine.
func NewEngine(config Config) (*Engine, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	config = withDefaults(config)

	e := &Engine{
		mem:         config.Allocator,
		logger:      config.Logger,
		width:       config.SelectionWidth,
		concurrency: config.Concurrency,
	}
	if config.CacheCapacity > 0 {
		e.cache = newPlanCache(config.CacheCapacity)
	}

	e.logger.Debug("Engine created",
		"cache_capacity", config.CacheCapacity,
		"selection_width", e.width.String(),
		"concurrency", e.concurrency,
	)
	return e, nil
}

// Allocator returns the engine's Arrow allocator.
func (e *Engine) Allocator() memory.Allocator { return e.mem }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// SelectionWidth returns the width of selection vectors created by Run.
func (e *Engine) SelectionWidth() plan.Width { return e.width }

// CompileFilter compiles condition into a filter bound to schema.
// Identical requests share one cached plan. The caller must release the result.
func (e *Engine) CompileFilter(schema *catalog.Schema, condition expr.Expression) (*plan.Filter, error) {
	key := "filter|" + schema.Fingerprint() + "|" + expr.String(condition)
	p, err := e.compile(key, func() (sharedPlan, error) {
		node, err := plan.Compile(schema, condition)
		if err != nil {
			return nil, err
		}
		f, err := plan.NewFilter(schema, node)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return p.(*plan.Filter), nil
}

// CompileProjector compiles outputs into a projector bound to schema that accepts
// selection vectors under mode. The caller must release the result.
func (e *Engine) CompileProjector(schema *catalog.Schema, outputs []expr.Output, mode plan.SelectionMode) (*plan.Projector, error) {
	key := "project|" + strconv.Itoa(int(mode)) + "|" + schema.Fingerprint() + "|" + expr.OutputsString(outputs)
	p, err := e.compile(key, func() (sharedPlan, error) {
		exprs, err := plan.CompileOutputs(schema, outputs)
		if err != nil {
			return nil, err
		}
		proj, err := plan.NewProjector(schema, exprs, plan.WithSelectionMode(mode), plan.WithAllocator(e.mem))
		if err != nil {
			return nil, err
		}
		return proj, nil
	})
	if err != nil {
		return nil, err
	}
	return p.(*plan.Projector), nil
}

// compile returns the cached plan for key, or builds, caches and returns a new one.
// The returned plan carries a reference owned by the caller.
func (e *Engine) compile(key string, build func() (sharedPlan, error)) (sharedPlan, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if e.cache != nil {
		if entry, ok := e.cache.get(key); ok {
			entry.plan.Retain()
			e.mu.Unlock()
			e.logger.Debug("Plan cache hit", "plan_id", entry.id, "key", key)
			return entry.plan, nil
		}
	}
	e.mu.Unlock()

	// compile outside the lock; a concurrent miss on the same key builds twice
	p, err := build()
	if err != nil {
		e.logger.Debug("Compile failed", "key", key, "error", err)
		return nil, err
	}
	id := uuid.NewString()
	e.logger.Debug("Plan compiled", "plan_id", id, "key", key)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		p.Release()
		return nil, ErrEngineClosed
	}
	if e.cache == nil {
		return p, nil
	}
	if entry, ok := e.cache.get(key); ok {
		p.Release()
		entry.plan.Retain()
		return entry.plan, nil
	}
	p.Retain()
	for _, ev := range e.cache.add(&cacheEntry{key: key, id: id, plan: p}) {
		e.logger.Debug("Plan evicted", "plan_id", ev.id)
		ev.plan.Release()
	}
	return p, nil
}

// CachedPlans returns the number of plans held by the cache.
func (e *Engine) CachedPlans() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache == nil {
		return 0
	}
	return e.cache.len()
}

// Close releases the cached plans. Plans already handed out stay usable
// until their holders release them. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.cache != nil {
		entries := e.cache.clear()
		for _, entry := range entries {
			entry.plan.Release()
		}
		e.logger.Debug("Engine closed", "released_plans", len(entries))
	}
	return nil
}
