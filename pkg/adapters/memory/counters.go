package memory

import (
	"context"
	"sync"

	"github.com/aretw0/formflow/pkg/domain"
)

// Counters implements ports.CounterStore in memory.
type Counters struct {
	mu     sync.Mutex
	totals map[string]domain.Counters
}

// NewCounters creates an empty counter store.
func NewCounters() *Counters {
	return &Counters{totals: make(map[string]domain.Counters)}
}

// Increment bumps one counter of a form.
func (c *Counters) Increment(ctx context.Context, formID string, counter domain.Counter) (domain.Counters, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.totals[formID].Add(counter, 1)
	c.totals[formID] = next
	return next, nil
}

// Get returns the totals of a form.
func (c *Counters) Get(ctx context.Context, formID string) (domain.Counters, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals[formID], nil
}
