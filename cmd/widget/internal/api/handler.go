package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/gateway"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/hub"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

//go:embed static/index.html
var indexHTML []byte

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	controller hub.Controller
	hub        *hub.Hub
	logger     *zap.Logger
}

func NewHandler(controller hub.Controller, h *hub.Hub, logger *zap.Logger) *Handler {
	return &Handler{controller: controller, hub: h, logger: logger}
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// prompter answers confirmations from the request and collects notifications for the response.
type prompter struct {
	confirmed bool
	notes     []string
}

func (p *prompter) Confirm(ctx context.Context, prompt string) bool { return p.confirmed }
func (p *prompter) Notify(message string)                           { p.notes = append(p.notes, message) }

// Index serves the widget page.
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "watchlist-widget",
		"clients": h.hub.ClientCount(),
	})
}

// GetWatchlist handles GET /api/watchlist
func (h *Handler) GetWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// AddSymbol handles POST /api/watchlist
func (h *Handler) AddSymbol(c *gin.Context) {
	var req AddSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	p := &prompter{}
	err := h.controller.OnAddSubmit(c.Request.Context(), req.Symbol, p)
	switch {
	case err == nil:
		sym, _ := models.NormalizeSymbol(req.Symbol)
		c.JSON(http.StatusCreated, gin.H{"symbol": sym})
	case errors.Is(err, models.ErrEmptySymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
	case errors.Is(err, watchlist.ErrDuplicateSymbol):
		c.JSON(http.StatusConflict, gin.H{"error": strings.Join(p.notes, " ")})
	default:
		h.logger.Error("Add failed", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// DeleteSymbol handles DELETE /api/watchlist/:symbol
// The caller confirms with ?confirm=true.
func (h *Handler) DeleteSymbol(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	p := &prompter{confirmed: c.Query("confirm") == "true" || c.Query("confirm") == "1"}

	if !h.controller.OnDeleteClick(c.Request.Context(), symbol, p) {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "deletion not confirmed", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol})
}

// Refresh handles POST /api/refresh
func (h *Handler) Refresh(c *gin.Context) {
	// detached from the request: an abandoned call must not fail the pass for everyone
	if !h.controller.OnRefreshClick(context.WithoutCancel(c.Request.Context())) {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// ServeWS upgrades to a websocket and hands the connection to the hub.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := gateway.NewClient(conn, h.hub, h.logger)
	client.Start()
}
