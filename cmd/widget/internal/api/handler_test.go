package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/api"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/hub"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/refresh"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/testutils"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/view"
	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/watchlist"
)

func setupRouter(t *testing.T) (*gin.Engine, *watchlist.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := watchlist.NewStore(testutils.NewMockBlobStore(), "userWatchlist", []string{"AAPL", "GOOG", "TSLA"}, logger)
	store.Load(context.Background())

	h := hub.NewHub(logger)
	ctrl := view.NewController(store, refresh.NewEngine(testutils.NewMockQuoter(), logger), h, logger)
	h.SetController(ctrl)

	return api.NewRouter(api.NewHandler(ctrl, h, logger), logger), store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestIndex(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refresh-button")
}

func TestGetWatchlist(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap view.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, view.RowLoading, snap.Rows[0].State)
}

func TestAddSymbol(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "created", body: `{"symbol":" nflx "}`, code: http.StatusCreated},
		{name: "duplicate", body: `{"symbol":"aapl"}`, code: http.StatusConflict},
		{name: "blank", body: `{"symbol":"   "}`, code: http.StatusBadRequest},
		{name: "missing", body: `{}`, code: http.StatusBadRequest},
		{name: "malformed", body: `{"symbol":`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t)
			w := do(r, http.MethodPost, "/api/watchlist", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestAddSymbol_DuplicateMessage(t *testing.T) {
	r, store := setupRouter(t)

	w := do(r, http.MethodPost, "/api/watchlist", `{"symbol":"aapl "}`)
	assert.Contains(t, w.Body.String(), "Symbol AAPL is already in the watchlist.")
	assert.Equal(t, []string{"AAPL", "GOOG", "TSLA"}, store.List())
}

func TestDeleteSymbol(t *testing.T) {
	r, store := setupRouter(t)

	w := do(r, http.MethodDelete, "/api/watchlist/goog", "")
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.True(t, store.Contains("GOOG"))

	w = do(r, http.MethodDelete, "/api/watchlist/goog?confirm=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.Contains("GOOG"))

	// removing again is harmless
	w = do(r, http.MethodDelete, "/api/watchlist/GOOG?confirm=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"AAPL", "TSLA"}, store.List())
}

func TestRefresh(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap view.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	for _, row := range snap.Rows {
		assert.Equal(t, view.RowUp, row.State)
		assert.Equal(t, "$100.00", row.Price)
	}
	assert.True(t, snap.RefreshEnabled)
	assert.Contains(t, snap.Status, "Prices last updated")
}
