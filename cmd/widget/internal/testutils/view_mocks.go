package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/view"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

// RecordingRenderer keeps the latest rendered state and the raw call log.
type RecordingRenderer struct {
	Mu         sync.Mutex
	Rows       []view.Row
	Updates    []view.Row
	Statuses   []string
	EnabledLog []bool
	// Log keeps list and row renders in call order, e.g. "rows:AAPL,TSLA", "row:GOOG".
	Log []string
}

func (r *RecordingRenderer) RenderList(rows []view.Row) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Rows = append([]view.Row(nil), rows...)
	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		symbols = append(symbols, row.Symbol)
	}
	r.Log = append(r.Log, "rows:"+strings.Join(symbols, ","))
}

func (r *RecordingRenderer) UpdateRow(row view.Row) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Updates = append(r.Updates, row)
	r.Log = append(r.Log, "row:"+row.Symbol)
	for i := range r.Rows {
		if r.Rows[i].Symbol == row.Symbol {
			r.Rows[i] = row
		}
	}
}

func (r *RecordingRenderer) SetStatus(text string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Statuses = append(r.Statuses, text)
}

func (r *RecordingRenderer) SetRefreshEnabled(enabled bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.EnabledLog = append(r.EnabledLog, enabled)
}

func (r *RecordingRenderer) RowFor(symbol string) (view.Row, bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	for _, row := range r.Rows {
		if row.Symbol == symbol {
			return row, true
		}
	}
	return view.Row{}, false
}

func (r *RecordingRenderer) LastStatus() string {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if len(r.Statuses) == 0 {
		return ""
	}
	return r.Statuses[len(r.Statuses)-1]
}

// Displayed returns the symbols of the last rendered list.
func (r *RecordingRenderer) Displayed() []string {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	symbols := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		symbols = append(symbols, row.Symbol)
	}
	return symbols
}

// GatedRenderer records like RecordingRenderer but stalls the first list
// render that contains Symbol until Release is closed.
type GatedRenderer struct {
	RecordingRenderer
	Symbol  string
	Entered chan struct{}
	Release chan struct{}
	held    atomic.Bool
}

func NewGatedRenderer(symbol string) *GatedRenderer {
	return &GatedRenderer{
		Symbol:  symbol,
		Entered: make(chan struct{}),
		Release: make(chan struct{}),
	}
}

func (g *GatedRenderer) RenderList(rows []view.Row) {
	for _, row := range rows {
		if row.Symbol == g.Symbol {
			// later renders pass straight through
			if g.held.CompareAndSwap(false, true) {
				close(g.Entered)
				<-g.Release
			}
			break
		}
	}
	g.RecordingRenderer.RenderList(rows)
}

// MockPrompter answers every confirmation with Answer.
type MockPrompter struct {
	Mu            sync.Mutex
	Answer        bool
	Prompts       []string
	Notifications []string
}

func (m *MockPrompter) Confirm(ctx context.Context, prompt string) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Answer
}

func (m *MockPrompter) Notify(message string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Notifications = append(m.Notifications, message)
}

type MockPublisher struct {
	Mu         sync.Mutex
	Quotes     []models.Quote
	ShouldFail bool
}

func (m *MockPublisher) Publish(ctx context.Context, q models.Quote) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("broker down")
	}
	m.Quotes = append(m.Quotes, q)
	return nil
}

// MockClock only moves when After is called; After fires immediately.
type MockClock struct {
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time { return m.CurrentTime }

func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.CurrentTime = m.CurrentTime.Add(d)
	ch := make(chan time.Time, 1)
	ch <- m.CurrentTime
	return ch
}
