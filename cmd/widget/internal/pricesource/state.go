package pricesource

import (
	"maps"
	"sync"

	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

// State is the last known price per symbol, the starting point of the next random-walk step.
type State struct {
	mu           sync.Mutex
	prices       map[string]float64
	defaultPrice float64
}

func NewState(baselines map[string]float64, defaultPrice float64) *State {
	prices := make(map[string]float64, len(baselines))
	maps.Copy(prices, baselines)
	return &State{prices: prices, defaultPrice: defaultPrice}
}

// Price returns the last known price, or the default for unseen symbols.
func (s *State) Price(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceLocked(symbol)
}

// Step moves symbol by change, stores the rounded result and returns it.
func (s *State) Step(symbol string, change float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := models.Round2(s.priceLocked(symbol) + change)
	s.prices[symbol] = price
	return price
}

func (s *State) priceLocked(symbol string) float64 {
	if p, ok := s.prices[symbol]; ok {
		return p
	}
	return s.defaultPrice
}
