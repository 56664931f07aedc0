package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/repository"
	"github.com/shubham-shewale/watchlist-widget/pkg/models"
)

var ErrDuplicateSymbol = errors.New("symbol already in watchlist")

// Store owns the ordered, de-duplicated list of tracked symbols.
// Persistence failures are logged and swallowed; the in-memory list stays authoritative.
type Store struct {
	mu       sync.Mutex
	blob     repository.BlobStore
	key      string
	defaults []string
	symbols  []string
	logger   *zap.Logger
}

func NewStore(blob repository.BlobStore, key string, defaults []string, logger *zap.Logger) *Store {
	return &Store{
		blob:     blob,
		key:      key,
		defaults: sanitize(defaults),
		logger:   logger,
	}
}

// Load replaces the in-memory list with the persisted one, or the defaults
// when nothing usable is stored.
func (s *Store) Load(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = s.readLocked(ctx)
	return slices.Clone(s.symbols)
}

func (s *Store) readLocked(ctx context.Context) []string {
	raw, err := s.blob.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Watchlist read failed, using defaults", zap.Error(err))
		}
		return slices.Clone(s.defaults)
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil || stored == nil {
		s.logger.Warn("Persisted watchlist is invalid, using defaults", zap.Error(err), zap.ByteString("raw", raw))
		return slices.Clone(s.defaults)
	}
	return sanitize(stored)
}

// Add appends the normalized symbol. It returns ErrDuplicateSymbol, leaving the
// list untouched, when the symbol is already tracked.
func (s *Store) Add(ctx context.Context, raw string) (string, error) {
	sym, err := models.NormalizeSymbol(raw)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.symbols, sym) {
		return sym, ErrDuplicateSymbol
	}
	s.symbols = append(s.symbols, sym)
	s.persistLocked(ctx)
	return sym, nil
}

// Remove drops the exact symbol and persists, whether or not it was present.
func (s *Store) Remove(ctx context.Context, symbol string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = slices.DeleteFunc(s.symbols, func(v string) bool { return v == symbol })
	s.persistLocked(ctx)
	return slices.Clone(s.symbols)
}

func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.symbols)
}

func (s *Store) Contains(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.symbols, symbol)
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.symbols == nil {
		s.symbols = []string{}
	}
	payload, err := json.Marshal(s.symbols)
	if err != nil {
		s.logger.Error("Watchlist marshal failed", zap.Error(err))
		return
	}
	if err := s.blob.Set(ctx, s.key, payload); err != nil {
		s.logger.Warn("Watchlist persist failed, keeping in-memory state", zap.Error(err))
	}
}

// sanitize normalizes entries and drops blanks and duplicates, keeping first occurrence.
func sanitize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		sym, err := models.NormalizeSymbol(raw)
		if err != nil || slices.Contains(out, sym) {
			continue
		}
		out = append(out, sym)
	}
	return out
}
