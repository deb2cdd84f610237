package cart

import (
	"context"
	"sort"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	lines map[string]Line // by line id
}

func NewMemory() *Memory {
	return &Memory{lines: map[string]Line{}}
}

func (m *Memory) Lines(_ context.Context, ownerKey string) ([]Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Line
	for _, l := range m.lines {
		if l.OwnerKey == ownerKey {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Line(_ context.Context, ownerKey, lineID string) (Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lines[lineID]
	if !ok || l.OwnerKey != ownerKey {
		return Line{}, ErrNotFound
	}
	return l, nil
}

func (m *Memory) BySKU(_ context.Context, ownerKey, sku string) (Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.lines {
		if l.OwnerKey == ownerKey && l.SKU == sku {
			return l, nil
		}
	}
	return Line{}, ErrNotFound
}

func (m *Memory) Insert(_ context.Context, l Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[l.ID] = l
	return nil
}

func (m *Memory) UpdateQty(_ context.Context, ownerKey, lineID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[lineID]
	if !ok || l.OwnerKey != ownerKey {
		return ErrNotFound
	}
	l.Qty = qty
	m.lines[lineID] = l
	return nil
}

func (m *Memory) Delete(_ context.Context, ownerKey, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[lineID]
	if !ok || l.OwnerKey != ownerKey {
		return ErrNotFound
	}
	delete(m.lines, lineID)
	return nil
}

func (m *Memory) DeleteAll(_ context.Context, ownerKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.lines {
		if l.OwnerKey == ownerKey {
			delete(m.lines, id)
		}
	}
	return nil
}
