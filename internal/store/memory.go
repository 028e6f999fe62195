package store

import (
	"context"
	"sync"

	"github.com/lox/codewords/internal/game"
)

// MemoryStore is an in-process RecordStore with subscriber fanout. It
// backs tests and the embedded single-process mode, and applies the same
// strictly-greater timestamp guard as the reference server so a record
// can never regress.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*game.Snapshot
	subs    map[string]map[*memorySubscription]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*game.Snapshot),
		subs:    make(map[string]map[*memorySubscription]struct{}),
	}
}

// Get implements RecordStore.
func (m *MemoryStore) Get(ctx context.Context, code string) (*game.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.records[code]
	if !ok {
		return nil, false, nil
	}
	return CloneSnapshot(snap), true, nil
}

// Put implements RecordStore. Writes carrying a timestamp no greater than
// the stored one are dropped without error; losing a same-timestamp race
// is the documented trade-off of last-write-wins.
func (m *MemoryStore) Put(ctx context.Context, snap *game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.records[snap.GameCode]; ok && snap.LastAction <= prev.LastAction {
		return nil
	}

	stored := CloneSnapshot(snap)
	m.records[snap.GameCode] = stored

	for sub := range m.subs[snap.GameCode] {
		// Non-blocking send: a subscriber that has fallen behind catches
		// up through reconciliation instead of stalling the writer.
		select {
		case sub.updates <- CloneSnapshot(stored):
		default:
		}
	}
	return nil
}

// Subscribe implements RecordStore.
func (m *MemoryStore) Subscribe(ctx context.Context, code string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &memorySubscription{
		store:   m,
		code:    code,
		updates: make(chan *game.Snapshot, 16),
	}
	if m.subs[code] == nil {
		m.subs[code] = make(map[*memorySubscription]struct{})
	}
	m.subs[code][sub] = struct{}{}
	return sub, nil
}

type memorySubscription struct {
	store     *MemoryStore
	code      string
	updates   chan *game.Snapshot
	closeOnce sync.Once
}

func (s *memorySubscription) Updates() <-chan *game.Snapshot { return s.updates }

func (s *memorySubscription) Err() error { return nil }

func (s *memorySubscription) Close() {
	s.closeOnce.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs[s.code], s)
		s.store.mu.Unlock()
		close(s.updates)
	})
}

// MemoryCache is a map-backed Cache for tests and ephemeral runs.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *MemoryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *MemoryCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}
