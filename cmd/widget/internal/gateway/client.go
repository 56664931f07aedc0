package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/hub"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/protocol"
)

const (
	maxMessageSize     = 512 * 1024
	maxPendingCmds     = 16
	defaultConfirmWait = 30 * time.Second
)

type ClientAdapter struct {
	conn   net.Conn
	hub    *hub.Hub
	send   chan []byte
	cmds   chan protocol.WSRequest
	done   chan struct{}
	logger *zap.Logger

	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	confirmTimeout time.Duration

	mu         sync.Mutex
	closed     bool
	pending    map[string]chan bool
	nextPrompt atomic.Uint64
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:           conn,
		hub:            h,
		send:           make(chan []byte, 256),
		cmds:           make(chan protocol.WSRequest, maxPendingCmds),
		done:           make(chan struct{}),
		logger:         logger,
		writeWait:      5 * time.Second,
		pongWait:       60 * time.Second,
		pingPeriod:     50 * time.Second,
		confirmTimeout: defaultConfirmWait,
		pending:        make(map[string]chan bool),
	}
}

func (c *ClientAdapter) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.commandPump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

// Close only closes the channels; writePump closes the conn.
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.send)
}

func (c *ClientAdapter) SendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		c.SendBytes(b)
	}
}

func (c *ClientAdapter) SendBytes(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// Drop message if buffer full (Backpressure)
	}
}

// Confirm asks the browser a yes/no question and waits for its answer.
// Disconnects and timeouts count as "no".
func (c *ClientAdapter) Confirm(ctx context.Context, prompt string) bool {
	id := fmt.Sprintf("confirm-%d", c.nextPrompt.Add(1))
	answer := make(chan bool, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.pending[id] = answer
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.SendJSON(protocol.WSResponse{Type: protocol.TypeConfirm, ID: id, Message: prompt})

	timer := time.NewTimer(c.confirmTimeout)
	defer timer.Stop()

	select {
	case ok := <-answer:
		return ok
	case <-timer.C:
		c.logger.Warn("Confirmation timed out", zap.String("client", c.ID()), zap.String("prompt", prompt))
		return false
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *ClientAdapter) Notify(message string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeNotify, Message: message})
}

func (c *ClientAdapter) resolve(id string, answer bool) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Unexpected confirmation", zap.String("id", id))
		return
	}
	select {
	case ch <- answer:
	default:
	}
}

// commandPump runs one command at a time so a client's actions apply in order,
// while readPump stays free to deliver confirmation answers.
func (c *ClientAdapter) commandPump() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.cmds:
			// not tied to this connection: a refresh pass is shared by every viewer
			c.hub.HandleCommand(context.Background(), c, req)
		}
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		if !header.Fin {
			c.logger.Warn("Client sent fragmented message (not supported)")
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		if header.OpCode == ws.OpClose {
			break
		}
		if header.OpCode == ws.OpPong {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		}

		if header.OpCode == ws.OpText {
			var req protocol.WSRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, Message: "Invalid JSON"})
				continue
			}

			if req.Action == protocol.ActionConfirm {
				c.resolve(req.ID, req.Payload.Answer)
				continue
			}

			req.Payload.Symbol = strings.ToUpper(strings.TrimSpace(req.Payload.Symbol))

			select {
			case c.cmds <- req:
			default:
				c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, ID: req.ID, Message: "Too many pending commands"})
			}
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
