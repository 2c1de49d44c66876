package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/registry"
)

// Memory keeps the registry stream in process memory. Writes staged inside
// WithTx become visible only when the callback succeeds.
type Memory struct {
	mu     sync.RWMutex
	events []ledger.Event
	code   map[ledger.Identity]registry.CodeRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{code: make(map[ledger.Identity]registry.CodeRecord)}
}

var _ registry.RepositoryPort = (*Memory)(nil)

type memoryTx struct {
	head   uint64
	events []ledger.Event
	code   []registry.CodeRecord
}

// WithTx stages writes and commits them atomically.
func (m *Memory) WithTx(ctx context.Context, fn func(context.Context, registry.TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{head: m.headLocked()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.events = append(m.events, tx.events...)
	for _, rec := range tx.code {
		m.code[rec.Account] = rec
	}
	return nil
}

// LoadEvents returns a copy of the stream.
func (m *Memory) LoadEvents(ctx context.Context) ([]ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ledger.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

// ListEvents returns up to limit events after afterSeq.
func (m *Memory) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]ledger.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := sort.Search(len(m.events), func(i int) bool { return m.events[i].Seq > afterSeq })
	end := len(m.events)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]ledger.Event, end-start)
	copy(out, m.events[start:end])
	return out, nil
}

// LoadCode returns every registered counterparty.
func (m *Memory) LoadCode(ctx context.Context) ([]registry.CodeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]registry.CodeRecord, 0, len(m.code))
	for _, rec := range m.code {
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory) headLocked() uint64 {
	if len(m.events) == 0 {
		return 0
	}
	return m.events[len(m.events)-1].Seq
}

func (t *memoryTx) AppendEvents(ctx context.Context, events []ledger.Event) error {
	for _, e := range events {
		if e.Seq != t.head+1 {
			return fmt.Errorf("%w: stored head %d, event seq %d", ledger.ErrStaleChangeset, t.head, e.Seq)
		}
		t.head = e.Seq
		t.events = append(t.events, e)
	}
	return nil
}

func (t *memoryTx) UpsertCode(ctx context.Context, rec registry.CodeRecord) error {
	t.code = append(t.code, rec)
	return nil
}
