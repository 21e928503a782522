package cache

import (
	"context"
	"time"
)

// Namespaced confines a Cache to keys starting with a fixed prefix.
type Namespaced struct {
	next   Cache
	prefix string
}

// WithNamespace returns a view of c in which every key is prefixed with prefix.
func WithNamespace(c Cache, prefix string) *Namespaced {
	return &Namespaced{next: c, prefix: prefix}
}

// Prefix returns the key prefix.
func (n *Namespaced) Prefix() string {
	return n.prefix
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.next.Set(ctx, n.prefix+key, value, ttl)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.next.Delete(ctx, n.prefix+key)
}
