package store

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Memory is an in-process Store. Every operation runs under the store lock,
// so index resolution and the read or write that follows it are atomic.
type Memory struct {
	docs   map[string]map[string]bson.Raw // collection -> id -> payload
	mu     sync.RWMutex
	schema Schema

	// counters
	creates int64
	hits    int64
	misses  int64
	updates int64
	deletes int64
	swept   int64
}

// MemoryStats are simple counters for store behavior.
type MemoryStats struct {
	Creates int64 `json:"creates"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Updates int64 `json:"updates"`
	Deletes int64 `json:"deletes"`
	Swept   int64 `json:"swept"`
	Size    int   `json:"size"`
}

var (
	_ Store   = (*Memory)(nil)
	_ Sweeper = (*Memory)(nil)
)

func NewMemory(indexes ...Index) *Memory {
	return &Memory{
		docs:   make(map[string]map[string]bson.Raw),
		schema: NewSchema(indexes...),
	}
}

func (m *Memory) Create(ctx context.Context, collection string, doc any) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflictLocked(collection, "", raw) {
		return nil, ErrDuplicateKey
	}

	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]bson.Raw)
	}
	m.docs[collection][id] = raw

	atomic.AddInt64(&m.creates, 1)
	return m.document(collection, id, raw), nil
}

func (m *Memory) Get(ctx context.Context, target Target) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ref, raw, err := m.resolveLocked(target)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		atomic.AddInt64(&m.misses, 1)
		return nil, nil
	}

	atomic.AddInt64(&m.hits, 1)
	return m.document(ref.Collection, ref.ID, raw), nil
}

func (m *Memory) Update(ctx context.Context, target Target, fields bson.M) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ref, raw, err := m.resolveLocked(target)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		atomic.AddInt64(&m.misses, 1)
		return nil, nil
	}

	updated, err := Merge(raw, fields)
	if err != nil {
		return nil, err
	}
	if m.conflictLocked(ref.Collection, ref.ID, updated) {
		return nil, ErrDuplicateKey
	}

	m.docs[ref.Collection][ref.ID] = updated
	atomic.AddInt64(&m.updates, 1)
	return m.document(ref.Collection, ref.ID, updated), nil
}

func (m *Memory) Delete(ctx context.Context, target Target) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ref, raw, err := m.resolveLocked(target)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		atomic.AddInt64(&m.misses, 1)
		return nil, nil
	}

	delete(m.docs[ref.Collection], ref.ID)
	atomic.AddInt64(&m.deletes, 1)
	return m.document(ref.Collection, ref.ID, raw), nil
}

func (m *Memory) DeleteExpired(ctx context.Context, collection, field string, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	limit := int64(NativeTime(cutoff))

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, raw := range m.docs[collection] {
		v, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		if ms, ok := v.DateTimeOK(); ok && ms < limit {
			delete(m.docs[collection], id)
			n++
		}
	}

	atomic.AddInt64(&m.swept, n)
	return n, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// Len returns the number of stored documents across all collections.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, docs := range m.docs {
		n += len(docs)
	}
	return n
}

func (m *Memory) Stats() MemoryStats {
	return MemoryStats{
		Creates: atomic.LoadInt64(&m.creates),
		Hits:    atomic.LoadInt64(&m.hits),
		Misses:  atomic.LoadInt64(&m.misses),
		Updates: atomic.LoadInt64(&m.updates),
		Deletes: atomic.LoadInt64(&m.deletes),
		Swept:   atomic.LoadInt64(&m.swept),
		Size:    m.Len(),
	}
}

// resolveLocked returns the payload target selects, or a nil payload when
// nothing matches. Index matches resolve to the lowest document ID.
func (m *Memory) resolveLocked(target Target) (Ref, bson.Raw, error) {
	if !target.IsIndex() {
		if target.Ref.IsZero() {
			return Ref{}, nil, ErrInvalidTarget
		}
		return target.Ref, m.docs[target.Ref.Collection][target.Ref.ID], nil
	}

	idx, err := m.schema.Resolve(target)
	if err != nil {
		return Ref{}, nil, err
	}

	var matched []string
	for id, raw := range m.docs[idx.Collection] {
		if terms, ok := idx.Terms(raw); ok && slices.Equal(terms, target.Terms) {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return Ref{}, nil, nil
	}

	first := slices.Min(matched)
	return Ref{Collection: idx.Collection, ID: first}, m.docs[idx.Collection][first], nil
}

// conflictLocked reports whether raw would violate a unique index of
// collection. self is excluded so a document never conflicts with itself.
func (m *Memory) conflictLocked(collection, self string, raw bson.Raw) bool {
	for _, idx := range m.schema {
		if !idx.Unique || idx.Collection != collection {
			continue
		}
		terms, ok := idx.Terms(raw)
		if !ok {
			continue
		}
		for id, other := range m.docs[collection] {
			if id == self {
				continue
			}
			if otherTerms, ok := idx.Terms(other); ok && slices.Equal(terms, otherTerms) {
				return true
			}
		}
	}
	return false
}

func (m *Memory) document(collection, id string, raw bson.Raw) *Document {
	return &Document{
		Ref: Ref{Collection: collection, ID: id},
		Raw: slices.Clone(raw),
	}
}
