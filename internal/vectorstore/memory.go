package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rag-engine/ragctl/internal/domain"
)

// MemoryCollection is an in-process Collection used by tests, and by the
// CLI when the Qdrant client cannot be created.
type MemoryCollection struct {
	mu      sync.RWMutex
	records map[string]Record
	created bool
}

// NewMemory constructs an empty MemoryCollection.
func NewMemory() *MemoryCollection {
	return &MemoryCollection{records: make(map[string]Record)}
}

var _ Collection = (*MemoryCollection)(nil)

func (m *MemoryCollection) Create(ctx context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]Record)
	m.created = true
	return nil
}

func (m *MemoryCollection) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]Record)
	m.created = false
	return nil
}

func (m *MemoryCollection) GetOrCreate(ctx context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.created {
		m.records = make(map[string]Record)
		m.created = true
	}
	return nil
}

func (m *MemoryCollection) Get(ctx context.Context, filter domain.Filter) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids, docs []string
	for _, id := range m.sortedIDs() {
		r := m.records[id]
		if filter.Matches(r.Source, r.FileType) {
			ids = append(ids, r.ID)
			docs = append(docs, r.Document)
		}
	}
	return ids, docs, nil
}

func (m *MemoryCollection) Query(ctx context.Context, embedding []float32, n int, filter domain.Filter) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		id    string
		doc   string
		score float64
	}
	var candidates []scored
	for _, id := range m.sortedIDs() {
		r := m.records[id]
		if !filter.Matches(r.Source, r.FileType) {
			continue
		}
		candidates = append(candidates, scored{id: r.ID, doc: r.Document, score: cosineSimilarity(embedding, r.Embedding)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	ids := make([]string, len(candidates))
	docs := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		docs[i] = c.doc
	}
	return ids, docs, nil
}

func (m *MemoryCollection) Add(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r // later record with same id wins, collapsing duplicates
	}
	return nil
}

func (m *MemoryCollection) DeleteByFilter(ctx context.Context, filter domain.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if filter.Matches(r.Source, r.FileType) {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *MemoryCollection) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// sortedIDs returns ids in insertion-independent, deterministic order so
// that Get/Query results don't vary run to run for identical inputs.
func (m *MemoryCollection) sortedIDs() []string {
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
