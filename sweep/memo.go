package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/orb/backtest"
)

// Entry records one fully tested config.
type Entry struct {
	Key      string
	RunID    string
	Scope    Scope
	Exec     backtest.ExecutionConfig
	Stats    backtest.Stats
	TestedAt time.Time
}

// Memo remembers tested configs across runs. Implementations must be safe
// for concurrent use.
type Memo interface {
	Seen(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string, e Entry) error
}

// MemoryMemo is an in-process Memo.
type MemoryMemo struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryMemo() *MemoryMemo {
	return &MemoryMemo{entries: make(map[string]Entry)}
}

func (m *MemoryMemo) Seen(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok, nil
}

func (m *MemoryMemo) Record(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func (m *MemoryMemo) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *MemoryMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
