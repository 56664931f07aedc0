package refresh

import (
	"context"
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

// Quoter produces one quote per call; pricesource.Source is the production implementation.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// Result is the outcome for one symbol of a refresh pass.
type Result struct {
	Symbol string
	Quote  models.Quote
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Engine quotes watchlist symbols one at a time. Passes never overlap: a pass holds
// the engine lock until its sequence is exhausted or the consumer stops iterating.
type Engine struct {
	quoter Quoter
	logger *zap.Logger
	mu     sync.Mutex
}

func NewEngine(quoter Quoter, logger *zap.Logger) *Engine {
	return &Engine{quoter: quoter, logger: logger}
}

// RefreshAll lazily yields exactly one Result per symbol, in order. A failed symbol
// never stops the pass; once ctx is done the remaining symbols yield ctx.Err().
func (e *Engine) RefreshAll(ctx context.Context, symbols []string) iter.Seq[Result] {
	snapshot := slices.Clone(symbols)

	return func(yield func(Result) bool) {
		e.mu.Lock()
		defer e.mu.Unlock()

		queue := slices.Clone(snapshot)
		for len(queue) > 0 {
			sym := queue[0]
			queue = queue[1:]

			if !yield(e.quote(ctx, sym)) {
				return
			}
		}
	}
}

// RefreshOne quotes a single symbol, serialized with any running pass.
func (e *Engine) RefreshOne(ctx context.Context, symbol string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quote(ctx, symbol)
}

func (e *Engine) quote(ctx context.Context, symbol string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Symbol: symbol, Err: err}
	}

	q, err := e.quoter.Quote(ctx, symbol)
	if err != nil {
		e.logger.Warn("Quote failed", zap.String("symbol", symbol), zap.Error(err))
		return Result{Symbol: symbol, Err: err}
	}
	return Result{Symbol: symbol, Quote: q}
}

// Collect drains a pass into a slice.
func Collect(seq iter.Seq[Result]) []Result {
	return slices.Collect(seq)
}
