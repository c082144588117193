package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process catalog
type Memory struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewMemory creates a catalog holding the given templates
func NewMemory(templates ...*Template) *Memory {
	m := &Memory{templates: make(map[string]*Template)}
	for _, t := range templates {
		m.templates[t.ID] = clone(t)
	}
	return m
}

// NewMemoryFromMap creates a catalog from id -> content pairs
func NewMemoryFromMap(contents map[string]string) *Memory {
	m := NewMemory()
	for id, content := range contents {
		m.templates[id] = &Template{ID: id, Content: content}
	}
	return m
}

// Read returns a copy of the template
func (m *Memory) Read(_ context.Context, id string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(t), nil
}

// Save stores a template, stamping its timestamps
func (m *Memory) Save(_ context.Context, t *Template) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("template id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	stored := clone(t)
	if existing, ok := m.templates[t.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.templates[t.ID] = stored
	return nil
}

// Delete removes a template
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.templates, id)
	return nil
}

// List returns all templates ordered by id
func (m *Memory) List(_ context.Context) ([]*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, clone(t))
	}
	sortByID(out)
	return out, nil
}

// Search returns templates matching query
func (m *Memory) Search(ctx context.Context, query string) ([]*Template, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, query), nil
}
