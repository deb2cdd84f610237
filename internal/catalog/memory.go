package catalog

import (
	"context"
	"sync"
)

// Memory: implementasi in-memory utk test & demo lokal.
type Memory struct {
	mu      sync.RWMutex
	flavors map[string]Flavor
	recipes map[string]Recipe
}

func NewMemory() *Memory {
	return &Memory{
		flavors: map[string]Flavor{},
		recipes: map[string]Recipe{},
	}
}

func (m *Memory) Flavor(_ context.Context, id string) (Flavor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.flavors[id]
	if !ok {
		return Flavor{}, ErrNotFound
	}
	return f, nil
}

func (m *Memory) Flavors(_ context.Context, ids []string) (map[string]Flavor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]Flavor{}
	for _, id := range ids {
		if f, ok := m.flavors[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (m *Memory) Recipe(_ context.Context, id string) (Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return Recipe{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) CreateFlavor(_ context.Context, f Flavor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flavors[f.ID] = f
	return nil
}

func (m *Memory) CreateRecipe(_ context.Context, r Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[r.ID] = r
	return nil
}

func (m *Memory) DeactivateFlavor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flavors[id]
	if !ok {
		return ErrNotFound
	}
	f.Active = false
	m.flavors[id] = f
	return nil
}
