package testutils

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/protocol"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal         string
	Messages      []protocol.WSResponse // Stores decoded JSON messages
	RawBytes      []string              // Stores raw bytes
	Prompts       []string
	Notifications []string
	Answer        bool // reply to every confirmation
	Closed        bool
	Mu            sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id, Messages: make([]protocol.WSResponse, 0)}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	// If it's a response, store it
	if resp, ok := v.(protocol.WSResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
}

func (m *MockClient) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))
}

func (m *MockClient) Confirm(ctx context.Context, prompt string) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	return m.Answer
}

func (m *MockClient) Notify(message string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Notifications = append(m.Notifications, message)
}

func (m *MockClient) LastMsg() protocol.WSResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return protocol.WSResponse{}
	}
	return m.Messages[len(m.Messages)-1]
}

func (m *MockClient) LastMsgType() string { return m.LastMsg().Type }

// Broadcasts decodes every raw broadcast frame.
func (m *MockClient) Broadcasts() []protocol.WSResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	out := make([]protocol.WSResponse, 0, len(m.RawBytes))
	for _, raw := range m.RawBytes {
		var resp protocol.WSResponse
		if err := json.Unmarshal([]byte(raw), &resp); err == nil {
			out = append(out, resp)
		}
	}
	return out
}
