package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/refresh"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

const (
	DefaultInterval = 15 * time.Second

	statusUpdating = "Updating prices..."
	statusTimeFmt  = "15:04:05"
)

type Controller struct {
	store     Store
	engine    Engine
	renderer  Renderer
	publisher QuotePublisher
	clock     Clock
	logger    *zap.Logger
	interval  time.Duration

	// shared by the ticker and the manual trigger; overlapping triggers are dropped
	inFlight atomic.Bool

	// mu guards the row state and is held across every renderer call,
	// so viewers receive renders in the order the state changed.
	mu             sync.Mutex
	rows           map[string]Row
	status         string
	refreshEnabled bool
}

type Option func(*Controller)

func WithPublisher(p QuotePublisher) Option { return func(c *Controller) { c.publisher = p } }
func WithClock(clock Clock) Option          { return func(c *Controller) { c.clock = clock } }
func WithInterval(d time.Duration) Option   { return func(c *Controller) { c.interval = d } }

func NewController(store Store, engine Engine, renderer Renderer, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:          store,
		engine:         engine,
		renderer:       renderer,
		clock:          RealClock{},
		logger:         logger,
		interval:       DefaultInterval,
		rows:           make(map[string]Row),
		refreshEnabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start renders every row as loading and runs the first refresh pass.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	for _, sym := range c.store.List() {
		c.rows[sym] = loadingRow(sym)
	}
	c.renderListLocked()
	c.mu.Unlock()

	c.Refresh(ctx)
}

// Run triggers a refresh every interval until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("Refresh timer started", zap.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// OnAddSubmit adds raw to the watchlist and quotes it. Blank input is ignored;
// a duplicate is reported to the user through p.
func (c *Controller) OnAddSubmit(ctx context.Context, raw string, p Prompter) error {
	sym, err := c.store.Add(ctx, raw)
	switch {
	case errors.Is(err, models.ErrEmptySymbol):
		return err
	case errors.Is(err, watchlist.ErrDuplicateSymbol):
		p.Notify(fmt.Sprintf("Symbol %s is already in the watchlist.", sym))
		return err
	case err != nil:
		return err
	}

	c.logger.Info("Symbol added", zap.String("symbol", sym))
	c.mu.Lock()
	c.rows[sym] = loadingRow(sym)
	c.renderListLocked()
	c.mu.Unlock()

	c.apply(ctx, c.engine.RefreshOne(ctx, sym))
	return nil
}

// OnDeleteClick removes symbol once the user confirms. It reports whether anything was removed.
func (c *Controller) OnDeleteClick(ctx context.Context, symbol string, p Prompter) bool {
	if !p.Confirm(ctx, fmt.Sprintf("Remove %s from the watchlist?", symbol)) {
		return false
	}

	c.store.Remove(ctx, symbol)
	c.logger.Info("Symbol removed", zap.String("symbol", symbol))

	c.mu.Lock()
	delete(c.rows, symbol)
	c.renderListLocked()
	c.mu.Unlock()
	return true
}

func (c *Controller) OnRefreshClick(ctx context.Context) bool {
	return c.Refresh(ctx)
}

// Refresh runs one pass over the watchlist. It returns false without doing
// anything when another pass is already running.
func (c *Controller) Refresh(ctx context.Context) bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("Refresh already in flight, dropping trigger")
		return false
	}
	defer c.inFlight.Store(false)

	c.setRefreshEnabled(false)
	c.setStatus(statusUpdating)

	var ok, failed int
	for res := range c.engine.RefreshAll(ctx, c.store.List()) {
		if res.OK() {
			ok++
		} else {
			failed++
		}
		c.apply(ctx, res)
	}

	c.setStatus("Prices last updated: " + c.clock.Now().Format(statusTimeFmt))
	c.setRefreshEnabled(true)
	c.logger.Debug("Refresh pass done", zap.Int("ok", ok), zap.Int("failed", failed))
	return true
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Rows:           c.rowsLocked(c.store.List()),
		Status:         c.status,
		RefreshEnabled: c.refreshEnabled,
	}
}

func (c *Controller) apply(ctx context.Context, res refresh.Result) {
	c.mu.Lock()
	// removed while the pass was running
	if !c.store.Contains(res.Symbol) {
		c.mu.Unlock()
		return
	}
	row := rowFor(res)
	c.rows[res.Symbol] = row
	c.renderer.UpdateRow(row)
	c.mu.Unlock()

	if res.OK() && c.publisher != nil {
		if err := c.publisher.Publish(ctx, res.Quote); err != nil {
			c.logger.Error("Quote publish failed", zap.String("symbol", res.Symbol), zap.Error(err))
		}
	}
}

// renderListLocked reads the store under c.mu so the last render always
// reflects the last mutation.
func (c *Controller) renderListLocked() {
	c.renderer.RenderList(c.rowsLocked(c.store.List()))
}

func (c *Controller) rowsLocked(symbols []string) []Row {
	rows := make([]Row, 0, len(symbols))
	for _, sym := range symbols {
		row, ok := c.rows[sym]
		if !ok {
			row = loadingRow(sym)
		}
		rows = append(rows, row)
	}
	return rows
}

func (c *Controller) setStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = text
	c.renderer.SetStatus(text)
}

func (c *Controller) setRefreshEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshEnabled = enabled
	c.renderer.SetRefreshEnabled(enabled)
}

func loadingRow(sym string) Row {
	return Row{Symbol: sym, Price: "...loading...", State: RowLoading}
}

func rowFor(res refresh.Result) Row {
	if !res.OK() {
		return Row{Symbol: res.Symbol, Price: "Error", State: RowError}
	}
	return Row{
		Symbol: res.Symbol,
		Price:  res.Quote.PriceText(),
		Change: res.Quote.ChangeText(),
		State:  RowState(res.Quote.Direction()),
	}
}
