package tests

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket" // Using Gorilla for the test CLIENT
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/api"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/hub"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/pricesource"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/protocol"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/refresh"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/repository"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/testutils"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/view"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
)

const watchlistKey = "userWatchlist"

var defaults = []string{"AAPL", "GOOG", "TSLA"}

func newStore(mr *miniredis.Miniredis) *watchlist.Store {
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := watchlist.NewStore(repository.NewRedisStore(rdb), watchlistKey, defaults, zap.NewNop())
	store.Load(context.Background())
	return store
}

func startServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	logger := zap.NewNop()

	state := pricesource.NewState(map[string]float64{"AAPL": 150, "GOOG": 2750, "TSLA": 850}, 100)
	source := pricesource.NewSource(state, &testutils.ScriptedRandomness{}, logger)

	wsHub := hub.NewHub(logger)
	ctrl := view.NewController(newStore(mr), refresh.NewEngine(source, logger), wsHub, logger)
	wsHub.SetController(ctrl)
	ctrl.Start(context.Background())

	server := httptest.NewServer(api.NewRouter(api.NewHandler(ctrl, wsHub, logger), logger))
	t.Cleanup(func() {
		server.Close()
		wsHub.Shutdown()
	})
	return server, mr
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	t.Cleanup(func() { wsConn.Close() })
	return wsConn
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) protocol.WSResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Waiting for %q: %v", typ, err)
		}
		var resp protocol.WSResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			t.Fatalf("Server sent invalid JSON %s: %v", msg, err)
		}
		if resp.Type == typ {
			return resp
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestEndToEnd_SnapshotOnConnect(t *testing.T) {
	server, _ := startServer(t)
	wsConn := connectWS(t, server.URL)

	snap := readUntil(t, wsConn, protocol.TypeSnapshot)
	data, _ := json.Marshal(snap.Data)
	if !strings.Contains(string(data), `"price":"$150.00"`) {
		t.Errorf("Expected AAPL at $150.00 in snapshot, got %s", data)
	}
}

func TestEndToEnd_AddPersistsAndBroadcasts(t *testing.T) {
	server, mr := startServer(t)
	actor := connectWS(t, server.URL)
	viewer := connectWS(t, server.URL)
	readUntil(t, actor, protocol.TypeSnapshot)
	readUntil(t, viewer, protocol.TypeSnapshot)

	send(t, actor, `{"action":"add","payload":{"symbol":" msft "},"id":"a1"}`)

	ack := readUntil(t, actor, protocol.TypeAck)
	if ack.ID != "a1" || ack.Status != "success" {
		t.Errorf("Expected success ack for a1, got %+v", ack)
	}

	row := readUntil(t, viewer, protocol.TypeRow)
	data, _ := json.Marshal(row.Data)
	if !strings.Contains(string(data), `"symbol":"MSFT"`) {
		t.Errorf("Viewer should see the MSFT row, got %s", data)
	}

	raw, err := mr.Get(watchlistKey)
	if err != nil || raw != `["AAPL","GOOG","TSLA","MSFT"]` {
		t.Errorf("Unexpected persisted watchlist %q (%v)", raw, err)
	}

	// Reload from storage as a fresh process would.
	if got := newStore(mr).List(); strings.Join(got, ",") != "AAPL,GOOG,TSLA,MSFT" {
		t.Errorf("Reloaded watchlist %v", got)
	}
}

func TestEndToEnd_DuplicateNotifies(t *testing.T) {
	server, _ := startServer(t)
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeSnapshot)

	send(t, wsConn, `{"action":"add","payload":{"symbol":"aapl"},"id":"d1"}`)

	note := readUntil(t, wsConn, protocol.TypeNotify)
	if note.Message != "Symbol AAPL is already in the watchlist." {
		t.Errorf("Unexpected notification %q", note.Message)
	}
}

func TestEndToEnd_DeleteConfirmRoundTrip(t *testing.T) {
	server, mr := startServer(t)
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeSnapshot)

	send(t, wsConn, `{"action":"delete","payload":{"symbol":"GOOG"},"id":"x1"}`)
	prompt := readUntil(t, wsConn, protocol.TypeConfirm)
	if !strings.Contains(prompt.Message, "GOOG") {
		t.Errorf("Prompt should name the symbol, got %q", prompt.Message)
	}

	send(t, wsConn, `{"action":"confirm","payload":{"answer":true},"id":"`+prompt.ID+`"}`)

	ack := readUntil(t, wsConn, protocol.TypeAck)
	if ack.ID != "x1" || ack.Status != "success" {
		t.Errorf("Expected success ack, got %+v", ack)
	}
	if raw, _ := mr.Get(watchlistKey); raw != `["AAPL","TSLA"]` {
		t.Errorf("Unexpected persisted watchlist %q", raw)
	}
}

func TestEndToEnd_DeleteDeclined(t *testing.T) {
	server, mr := startServer(t)
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeSnapshot)

	send(t, wsConn, `{"action":"delete","payload":{"symbol":"GOOG"},"id":"x2"}`)
	prompt := readUntil(t, wsConn, protocol.TypeConfirm)
	send(t, wsConn, `{"action":"confirm","payload":{"answer":false},"id":"`+prompt.ID+`"}`)

	ack := readUntil(t, wsConn, protocol.TypeAck)
	if ack.Status != "cancelled" {
		t.Errorf("Expected cancelled ack, got %+v", ack)
	}
	if mr.Exists(watchlistKey) {
		t.Error("Nothing should be persisted when the user declines")
	}
}

func TestEndToEnd_Refresh(t *testing.T) {
	server, _ := startServer(t)
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeSnapshot)

	send(t, wsConn, `{"action":"refresh","id":"r1"}`)

	status := readUntil(t, wsConn, protocol.TypeStatus)
	if status.Message != "Updating prices..." {
		t.Errorf("Expected updating status, got %q", status.Message)
	}
	status = readUntil(t, wsConn, protocol.TypeStatus)
	if !strings.HasPrefix(status.Message, "Prices last updated: ") {
		t.Errorf("Expected timestamp status, got %q", status.Message)
	}
	if ack := readUntil(t, wsConn, protocol.TypeAck); ack.ID != "r1" {
		t.Errorf("Expected ack for r1, got %+v", ack)
	}
}

func TestEndToEnd_InvalidJSON(t *testing.T) {
	server, _ := startServer(t)
	wsConn := connectWS(t, server.URL)
	readUntil(t, wsConn, protocol.TypeSnapshot)

	send(t, wsConn, `{ "action": "ad`)

	resp := readUntil(t, wsConn, protocol.TypeError)
	if resp.Message != "Invalid JSON" {
		t.Errorf("Expected Invalid JSON error, got %+v", resp)
	}
}

func TestEndToEnd_MaxMessageSize(t *testing.T) {
	server, _ := startServer(t)
	wsConn := connectWS(t, server.URL)

	hugeMsg := `{"action":"add","payload":{"symbol":"` + strings.Repeat("a", 513*1024) + `"}}`

	err := wsConn.WriteMessage(websocket.TextMessage, []byte(hugeMsg))
	// Depending on timing, write might succeed, but Read should fail (Disconnect)
	if err == nil {
		wsConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			if _, _, err := wsConn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
