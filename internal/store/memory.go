package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process DocumentStore. It backs tests and offline
// runs. Transactions serialize on the store mutex, so a transaction sees
// a stable view and its writes apply atomically.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, fields Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = mergeDocument(m.docs[key], fields)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MemoryStore) Increment(ctx context.Context, key, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		doc = Document{}
		m.docs[key] = doc
	}
	addPath(doc, field, delta)
	return nil
}

func (m *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m, writes: make(map[string]Document), deletes: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	for key := range tx.deletes {
		delete(m.docs, key)
	}
	for key, fields := range tx.writes {
		m.docs[key] = mergeDocument(m.docs[key], fields)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// memoryTx buffers writes until commit. Reads see earlier buffered
// writes from the same transaction merged over committed state.
type memoryTx struct {
	store   *MemoryStore
	writes  map[string]Document
	deletes map[string]bool
}

func (t *memoryTx) Get(key string) (Document, error) {
	var base Document
	if !t.deletes[key] {
		if doc, ok := t.store.docs[key]; ok {
			base = cloneDocument(doc)
		}
	}
	if pending, ok := t.writes[key]; ok {
		base = mergeDocument(base, pending)
	}
	if base == nil {
		return nil, ErrNotFound
	}
	return base, nil
}

func (t *memoryTx) Set(key string, fields Document) error {
	t.writes[key] = mergeDocument(t.writes[key], cloneDocument(fields))
	return nil
}

func (t *memoryTx) Delete(key string) error {
	t.deletes[key] = true
	delete(t.writes, key)
	return nil
}
