package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Ristretto is an in-process Cache backed by dgraph-io/ristretto.
// Values are costed by their size in bytes.
type Ristretto struct {
	c *ristretto.Cache[string, []byte]
}

// NewRistretto creates a cache holding at most maxCostBytes of values.
func NewRistretto(maxCostBytes int64) (*Ristretto, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/100*10, 1000), // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (r *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := r.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set admits the value asynchronously; call Wait to make it visible immediately.
func (r *Ristretto) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

func (r *Ristretto) Delete(_ context.Context, key string) error {
	r.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (r *Ristretto) Wait() {
	r.c.Wait()
}

// Close releases the cache's goroutines.
func (r *Ristretto) Close() {
	r.c.Close()
}
