// Package catalog holds the read-shared, in-memory view of purchasable items
// that carts check stock ceilings and prices against.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-pos-checkout/internal/model"
)

// Loader reads the current catalog rows from the store.
type Loader interface {
	ListForSale(ctx context.Context) ([]model.CatalogItem, error)
}

// Snapshot is advisory: stock truth lives in the store and may have moved on
// since LoadedAt. Items are never mutated in place; Refresh replaces them all.
type Snapshot struct {
	loader Loader

	mu       sync.RWMutex
	items    map[uint]model.CatalogItem
	ordered  []model.CatalogItem
	loadedAt time.Time
}

func NewSnapshot(loader Loader) *Snapshot {
	return &Snapshot{
		loader: loader,
		items:  make(map[uint]model.CatalogItem),
	}
}

// Refresh reloads every item from the store. On error the previous snapshot is kept.
func (s *Snapshot) Refresh(ctx context.Context) error {
	items, err := s.loader.ListForSale(ctx)
	if err != nil {
		return err
	}
	s.Replace(items)
	return nil
}

// Replace swaps the snapshot contents wholesale.
func (s *Snapshot) Replace(items []model.CatalogItem) {
	byID := make(map[uint]model.CatalogItem, len(items))
	ordered := make([]model.CatalogItem, 0, len(items))
	for _, it := range items {
		if _, dup := byID[it.ID]; dup {
			continue
		}
		byID[it.ID] = it
		ordered = append(ordered, it)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	s.mu.Lock()
	s.items = byID
	s.ordered = ordered
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

func (s *Snapshot) Lookup(id uint) (model.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Items returns a copy of the snapshot ordered by name.
func (s *Snapshot) Items() []model.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CatalogItem, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
