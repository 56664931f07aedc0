package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrEmptySymbol is returned when a symbol is blank after trimming.
var ErrEmptySymbol = errors.New("symbol is empty")

// NormalizeSymbol trims whitespace and uppercases raw.
func NormalizeSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", ErrEmptySymbol
	}
	return sym, nil
}

type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// DirectionOf classifies a price change.
func DirectionOf(change float64) Direction {
	switch {
	case change > 0:
		return DirectionUp
	case change < 0:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// Quote is one refresh result for a symbol. Price and Change carry two decimals.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

func (q Quote) Direction() Direction { return DirectionOf(q.Change) }

// PriceText renders the price as "$155.00".
func (q Quote) PriceText() string { return fmt.Sprintf("$%.2f", q.Price) }

// ChangeText renders the change as "(+5.00)", "(-10.00)" or "(0.00)".
func (q Quote) ChangeText() string {
	if q.Change > 0 {
		return fmt.Sprintf("(+%.2f)", q.Change)
	}
	return fmt.Sprintf("(%.2f)", q.Change)
}

// Round2 rounds to two decimals, half away from zero, and drops negative zero.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// QuoteEvent is the message published for downstream consumers of refreshed quotes.
type QuoteEvent struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per symbol
}
