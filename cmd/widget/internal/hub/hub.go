package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/protocol"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/view"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
	view.Prompter
}

// Controller is the part of view.Controller the hub drives.
type Controller interface {
	OnAddSubmit(ctx context.Context, raw string, p view.Prompter) error
	OnDeleteClick(ctx context.Context, symbol string, p view.Prompter) bool
	OnRefreshClick(ctx context.Context) bool
	Snapshot() view.Snapshot
}

// Compile-time check: the hub is the controller's display surface.
var _ view.Renderer = (*Hub)(nil)

// Hub fans rendered state out to every connected browser and routes their commands.
type Hub struct {
	clients    map[ClientInterface]bool
	controller Controller
	logger     *zap.Logger
	mu         sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[ClientInterface]bool),
		logger:  logger,
	}
}

// SetController must be called before any client registers.
func (h *Hub) SetController(c Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controller = c
}

func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Client connected", zap.String("client", client.ID()), zap.Int("clients", count))
	h.sendSnapshot(client, "")
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		client.Close()
		h.logger.Info("Client disconnected", zap.String("client", client.ID()))
	}
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[ClientInterface]bool)
	h.mu.Unlock()

	for c := range clients {
		c.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleCommand(ctx context.Context, client ClientInterface, req protocol.WSRequest) {
	switch req.Action {
	case protocol.ActionAdd:
		h.handleAdd(ctx, client, req)
	case protocol.ActionDelete:
		h.handleDelete(ctx, client, req)
	case protocol.ActionRefresh:
		h.handleRefresh(ctx, client, req)
	case protocol.ActionSnapshot:
		h.sendSnapshot(client, req.ID)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleAdd(ctx context.Context, client ClientInterface, req protocol.WSRequest) {
	err := h.controller.OnAddSubmit(ctx, req.Payload.Symbol, client)
	switch {
	case err == nil:
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Added %s", req.Payload.Symbol))
	case errors.Is(err, models.ErrEmptySymbol):
		h.sendError(client, req.ID, "Symbol is required")
	case errors.Is(err, watchlist.ErrDuplicateSymbol):
		h.sendError(client, req.ID, fmt.Sprintf("Duplicate symbol: %s", req.Payload.Symbol))
	default:
		h.logger.Error("Add failed", zap.String("symbol", req.Payload.Symbol), zap.Error(err))
		h.sendError(client, req.ID, "Add failed")
	}
}

func (h *Hub) handleDelete(ctx context.Context, client ClientInterface, req protocol.WSRequest) {
	if req.Payload.Symbol == "" {
		h.sendError(client, req.ID, "Symbol is required")
		return
	}
	if h.controller.OnDeleteClick(ctx, req.Payload.Symbol, client) {
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Removed %s", req.Payload.Symbol))
	} else {
		h.sendAck(client, req.ID, "cancelled", fmt.Sprintf("Kept %s", req.Payload.Symbol))
	}
}

func (h *Hub) handleRefresh(ctx context.Context, client ClientInterface, req protocol.WSRequest) {
	if h.controller.OnRefreshClick(ctx) {
		h.sendAck(client, req.ID, "success", "Prices refreshed")
	} else {
		h.sendError(client, req.ID, "Refresh already in progress")
	}
}

func (h *Hub) RenderList(rows []view.Row) {
	h.broadcast(protocol.WSResponse{Type: protocol.TypeRows, Data: rows})
}

func (h *Hub) UpdateRow(row view.Row) {
	h.broadcast(protocol.WSResponse{Type: protocol.TypeRow, Data: row})
}

func (h *Hub) SetStatus(text string) {
	h.broadcast(protocol.WSResponse{Type: protocol.TypeStatus, Message: text})
}

func (h *Hub) SetRefreshEnabled(enabled bool) {
	h.broadcast(protocol.WSResponse{Type: protocol.TypeRefreshEnabled, Data: enabled})
}

func (h *Hub) broadcast(msg protocol.WSResponse) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Broadcast marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.SendBytes(b)
	}
}

func (h *Hub) sendSnapshot(c ClientInterface, id string) {
	h.mu.RLock()
	ctrl := h.controller
	h.mu.RUnlock()
	if ctrl == nil {
		return
	}
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeSnapshot, ID: id, Data: ctrl.Snapshot()})
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeAck, ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, ID: id, Status: "error", Message: msg})
}
