package testutils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/pricesource"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

// MockQuoter returns fixed quotes, fails the symbols in Fail and
// flags any overlapping calls.
type MockQuoter struct {
	Mu      sync.Mutex
	Prices  map[string]float64
	Fail    map[string]bool
	Delay   time.Duration
	Calls   []string
	active  atomic.Int32
	Overlap atomic.Bool
}

func NewMockQuoter() *MockQuoter {
	return &MockQuoter{Prices: make(map[string]float64), Fail: make(map[string]bool)}
}

func (m *MockQuoter) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if m.active.Add(1) > 1 {
		m.Overlap.Store(true)
	}
	defer m.active.Add(-1)

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, symbol)

	if m.Fail[symbol] {
		return models.Quote{}, &pricesource.TransientFetchError{Symbol: symbol}
	}
	price, ok := m.Prices[symbol]
	if !ok {
		price = 100
	}
	return models.Quote{Symbol: symbol, Price: price, Change: 1}, nil
}

func (m *MockQuoter) CallCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Calls)
}
