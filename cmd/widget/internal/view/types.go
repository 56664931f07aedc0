package view

import (
	"context"
	"iter"
	"time"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/refresh"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

type RowState string

const (
	RowLoading RowState = "loading"
	RowUp      RowState = RowState(models.DirectionUp)
	RowDown    RowState = RowState(models.DirectionDown)
	RowNeutral RowState = RowState(models.DirectionNeutral)
	RowError   RowState = "error"
)

// Row is what one watchlist line displays.
type Row struct {
	Symbol string   `json:"symbol"`
	Price  string   `json:"price"`
	Change string   `json:"change"`
	State  RowState `json:"state"`
}

type Snapshot struct {
	Rows           []Row  `json:"rows"`
	Status         string `json:"status"`
	RefreshEnabled bool   `json:"refresh_enabled"`
}

// Renderer is the display surface shared by every viewer. Calls are
// serialized by the Controller and must not call back into it.
type Renderer interface {
	RenderList(rows []Row)
	UpdateRow(row Row)
	SetStatus(text string)
	SetRefreshEnabled(enabled bool)
}

// Prompter talks to the user who triggered an action.
type Prompter interface {
	Confirm(ctx context.Context, prompt string) bool
	Notify(message string)
}

type QuotePublisher interface {
	Publish(ctx context.Context, q models.Quote) error
}

type Store interface {
	Add(ctx context.Context, raw string) (string, error)
	Remove(ctx context.Context, symbol string) []string
	List() []string
	Contains(symbol string) bool
}

type Engine interface {
	RefreshAll(ctx context.Context, symbols []string) iter.Seq[refresh.Result]
	RefreshOne(ctx context.Context, symbol string) refresh.Result
}

// for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
