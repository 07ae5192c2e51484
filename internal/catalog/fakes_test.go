package catalog_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-promo/internal/catalog"
)

type memStore struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]catalog.Promotion
	activeCalls int
	lastFilter  catalog.ListFilter
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]catalog.Promotion{}}
}

func (m *memStore) Create(_ context.Context, p catalog.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.DeletedAt == nil && row.Slug == p.Slug {
			return catalog.ErrSlugTaken
		}
	}
	m.rows[p.ID] = p
	return nil
}

func (m *memStore) Update(_ context.Context, p catalog.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[p.ID]
	if !ok || row.DeletedAt != nil {
		return catalog.ErrNotFound
	}
	m.rows[p.ID] = p
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (catalog.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.DeletedAt != nil {
		return catalog.Promotion{}, catalog.ErrNotFound
	}
	return row, nil
}

func (m *memStore) List(_ context.Context, f catalog.ListFilter) ([]catalog.Promotion, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	var matched []catalog.Promotion
	for _, row := range m.rows {
		if row.DeletedAt != nil {
			continue
		}
		if f.IsActive != nil && row.IsActive != *f.IsActive {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(f.Name)) {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Size, total)
	return matched[start:end], total, nil
}

func (m *memStore) SoftDelete(_ context.Context, id uuid.UUID, actor string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.DeletedAt != nil {
		return catalog.ErrNotFound
	}
	row.IsActive = false
	row.DeletedBy = &actor
	row.DeletedAt = &at
	m.rows[id] = row
	return nil
}

func (m *memStore) ListActive(context.Context) ([]catalog.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeCalls++
	var out []catalog.Promotion
	for _, row := range m.rows {
		if row.IsActive && row.DeletedAt == nil {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type published struct {
	topic string
	id    uuid.UUID
	actor string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, id uuid.UUID, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, id: id, actor: actor})
	return nil
}

func (r *recordingPublisher) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.topic)
	}
	return out
}
