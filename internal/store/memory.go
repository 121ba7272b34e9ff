package store

import (
	"context"
	"sync"
)

// MemoryBackend is a concurrency-safe in-memory implementation of Backend.
type MemoryBackend struct {
	mu sync.RWMutex

	// key: collection, value: records by id
	data map[Kind]map[string]Record
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[Kind]map[string]Record),
	}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

// List returns a copy of every record in the collection.
func (m *MemoryBackend) List(_ context.Context, kind Kind) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll := m.data[kind]
	out := make([]Record, 0, len(coll))
	for _, rec := range coll {
		out = append(out, clone(rec))
	}
	sortRecords(out)
	return out, nil
}

// Insert stores rec, replacing any record with the same id.
func (m *MemoryBackend) Insert(_ context.Context, kind Kind, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.data[kind]
	if !ok {
		coll = make(map[string]Record)
		m.data[kind] = coll
	}
	coll[rec.ID] = clone(rec)
	return rec, nil
}

// Update merges fields into the stored record.
func (m *MemoryBackend) Update(_ context.Context, kind Kind, id string, fields Fields) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.data[kind][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	merged, err := mergeFields(rec.Data, fields)
	if err != nil {
		return Record{}, err
	}
	rec.Data = merged
	m.data[kind][id] = rec
	return clone(rec), nil
}

// Delete removes the record.
func (m *MemoryBackend) Delete(_ context.Context, kind Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[kind][id]; !ok {
		return ErrNotFound
	}
	delete(m.data[kind], id)
	return nil
}

func clone(rec Record) Record {
	data := make([]byte, len(rec.Data))
	copy(data, rec.Data)
	rec.Data = data
	return rec
}
