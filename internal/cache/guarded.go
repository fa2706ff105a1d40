package cache

import (
	"context"

	"github.com/stanley00316/election-system-demo-sub004/internal/resilience"
)

// GuardedStore routes a remote store through a circuit breaker so a redis
// outage costs one fast failure per request instead of a dial timeout.
type GuardedStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

// NewGuardedStore wraps store with breaker
func NewGuardedStore(store Store, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker}
}

func (g *GuardedStore) Get(ctx context.Context, key string) (data []byte, found bool, err error) {
	err = g.breaker.Call(func() error {
		var inner error
		data, found, inner = g.store.Get(ctx, key)
		return inner
	})
	return data, found, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, data []byte) error {
	return g.breaker.Call(func() error { return g.store.Set(ctx, key, data) })
}

func (g *GuardedStore) Delete(ctx context.Context, key string) error {
	return g.breaker.Call(func() error { return g.store.Delete(ctx, key) })
}

func (g *GuardedStore) Close() error {
	return g.store.Close()
}

// Breaker exposes the breaker for health reporting
func (g *GuardedStore) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}
