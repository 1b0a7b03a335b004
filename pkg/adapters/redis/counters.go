package redis

import (
	"context"
	"fmt"
	"strconv"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/formflow/pkg/domain"
)

// Counters implements ports.CounterStore with one hash per form.
type Counters struct {
	client *backend.Client
	prefix string
}

// NewCounters creates a counter store sharing client.
func NewCounters(client *backend.Client, prefix string) *Counters {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Counters{client: client, prefix: prefix}
}

func (c *Counters) key(formID string) string {
	return c.prefix + "counters:" + formID
}

// Increment bumps counter with HINCRBY and returns the totals read in the same transaction.
func (c *Counters) Increment(ctx context.Context, formID string, counter domain.Counter) (domain.Counters, error) {
	var all *backend.MapStringStringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HIncrBy(ctx, c.key(formID), string(counter), 1)
		all = pipe.HGetAll(ctx, c.key(formID))
		return nil
	})
	if err != nil {
		return domain.Counters{}, fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	return parseCounters(all.Val())
}

// Get returns the totals of a form.
func (c *Counters) Get(ctx context.Context, formID string) (domain.Counters, error) {
	vals, err := c.client.HGetAll(ctx, c.key(formID)).Result()
	if err != nil {
		return domain.Counters{}, fmt.Errorf("failed to read counters: %w", err)
	}
	return parseCounters(vals)
}

func parseCounters(vals map[string]string) (domain.Counters, error) {
	var out domain.Counters
	for field, raw := range vals {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Counters{}, fmt.Errorf("corrupt counter %s: %w", field, err)
		}
		out = out.Add(domain.Counter(field), n)
	}
	return out, nil
}
