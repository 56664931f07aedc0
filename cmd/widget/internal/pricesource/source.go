package pricesource

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

var ErrTransientFetch = errors.New("transient fetch error")

// TransientFetchError is a simulated network failure for one symbol.
type TransientFetchError struct {
	Symbol string
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("quote for %s failed: connection timeout", e.Symbol)
}

func (e *TransientFetchError) Is(target error) bool { return target == ErrTransientFetch }

// Source synthesises quotes by random-walking State.
type Source struct {
	state  *State
	rnd    Randomness
	logger *zap.Logger
}

func NewSource(state *State, rnd Randomness, logger *zap.Logger) *Source {
	return &Source{state: state, rnd: rnd, logger: logger}
}

// Quote produces the next price for symbol. State is only touched on success.
func (s *Source) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return models.Quote{}, err
	}

	if s.rnd.ShouldFail() {
		return models.Quote{}, &TransientFetchError{Symbol: symbol}
	}

	change := s.rnd.Perturbation()
	price := s.state.Step(symbol, change)

	q := models.Quote{
		Symbol: symbol,
		Price:  price,
		Change: models.Round2(change),
	}
	s.logger.Debug("Quoted", zap.String("symbol", symbol), zap.Float64("price", q.Price), zap.Float64("change", q.Change))
	return q, nil
}
