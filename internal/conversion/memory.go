package conversion

import (
	"context"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// It uses a map with RWMutex for thread-safe access.
type MemoryRepository struct {
	mu          sync.RWMutex
	conversions map[string]*Conversion
}

// NewMemoryRepository creates a new in-memory conversion repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		conversions: make(map[string]*Conversion),
	}
}

// Save stores a clone of c to avoid external mutations.
func (r *MemoryRepository) Save(_ context.Context, c *Conversion) error {
	clone := c.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversions[clone.ID] = clone
	return nil
}

// FindByID retrieves a conversion by its ID.
// Returns a clone to prevent external mutations.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Conversion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversions[id]
	if !ok {
		return nil, ErrConversionNotFound
	}
	return c.Clone(), nil
}

// List returns clones of all stored conversions.
func (r *MemoryRepository) List(_ context.Context) ([]*Conversion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Conversion, 0, len(r.conversions))
	for _, c := range r.conversions {
		result = append(result, c.Clone())
	}
	return result, nil
}

// Delete removes a conversion from storage.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversions[id]; !ok {
		return ErrConversionNotFound
	}
	delete(r.conversions, id)
	return nil
}

// CountActive returns the number of conversions still in progress.
func (r *MemoryRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.conversions {
		if !c.State.IsTerminal() {
			n++
		}
	}
	return n, nil
}
