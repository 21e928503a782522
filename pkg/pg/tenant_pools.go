package pg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenancy/pkg/cache"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

// Opener opens a pool for a derived tenant connection.
type Opener func(ctx context.Context, cfg tenancy.ConnectionConfig) (*pgxpool.Pool, error)

// TenantPools keeps one pgx pool per tenant connection. Pools are opened on
// first use, at most once at a time per connection. A pool leaving the
// registry (eviction, Forget, Close) is closed once its last Lease is released.
type TenantPools struct {
	open  Opener
	pools *cache.LRU[string, *poolEntry]
	group singleflight.Group

	mu     sync.RWMutex
	closed bool
}

// Lease is a pool handed out by TenantPools.Get. The pool stays open until
// Release, even if the registry drops it meanwhile.
type Lease struct {
	*pgxpool.Pool
	entry *poolEntry
	once  sync.Once
}

// Release returns the lease. Further calls are no-ops.
func (l *Lease) Release() {
	l.once.Do(l.entry.release)
}

type poolEntry struct {
	pool    *pgxpool.Pool
	mu      sync.Mutex
	leases  int
	evicted bool
}

func (e *poolEntry) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return false
	}
	e.leases++
	return true
}

func (e *poolEntry) release() {
	e.mu.Lock()
	e.leases--
	closeNow := e.evicted && e.leases == 0
	e.mu.Unlock()
	if closeNow {
		go e.pool.Close()
	}
}

// evict runs under the LRU lock; pgxpool.Pool.Close blocks on acquired
// connections, so closing happens in its own goroutine.
func (e *poolEntry) evict() {
	e.mu.Lock()
	e.evicted = true
	closeNow := e.leases == 0
	e.mu.Unlock()
	if closeNow {
		go e.pool.Close()
	}
}

// NewTenantPools keeps up to capacity open pools. A nil opener uses OpenTenantPool.
func NewTenantPools(capacity int, open Opener) *TenantPools {
	if capacity <= 0 {
		capacity = 64
	}
	if open == nil {
		open = OpenTenantPool
	}
	pools := cache.NewLRU[string, *poolEntry](capacity)
	pools.OnEvict(func(_ string, e *poolEntry) { e.evict() })
	return &TenantPools{open: open, pools: pools}
}

// Get leases the pool of cfg.Name, opening it from cfg when needed.
// cfg is expected to come from tenancy.Connections.TenantConnectionConfig.
// The caller must Release the lease.
func (tp *TenantPools) Get(ctx context.Context, cfg tenancy.ConnectionConfig) (*Lease, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: connection name is empty", tenancy.ErrConfiguration)
	}

	tp.mu.RLock()
	defer tp.mu.RUnlock()
	if tp.closed {
		return nil, ErrTenantPoolsClosed
	}

	for {
		entry, err := tp.entry(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// An entry evicted between lookup and acquire is already closing.
		if entry.acquire() {
			return &Lease{Pool: entry.pool, entry: entry}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (tp *TenantPools) entry(ctx context.Context, cfg tenancy.ConnectionConfig) (*poolEntry, error) {
	if entry, ok := tp.pools.Get(cfg.Name); ok {
		return entry, nil
	}
	v, err, _ := tp.group.Do(cfg.Name, func() (any, error) {
		if entry, ok := tp.pools.Get(cfg.Name); ok {
			return entry, nil
		}
		pool, err := tp.open(context.WithoutCancel(ctx), cfg)
		if err != nil {
			return nil, err
		}
		entry := &poolEntry{pool: pool}
		tp.pools.Put(cfg.Name, entry)
		return entry, nil
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	return v.(*poolEntry), nil
}

// Forget drops the pool of a connection, e.g. after its tenant was deleted.
// The pool closes once outstanding leases are released.
func (tp *TenantPools) Forget(name string) {
	tp.pools.Remove(name)
}

// Len returns the number of pools in the registry.
func (tp *TenantPools) Len() int {
	return tp.pools.Len()
}

// Close drops every pool. Later calls to Get fail with ErrTenantPoolsClosed.
func (tp *TenantPools) Close() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.closed = true
	tp.pools.Purge()
}

// TenantPoolConfig turns a derived tenant connection into a pgx pool config:
// the DSN's database is replaced by cfg.Database, pool limits come from
// cfg.Pool and cfg.Options become runtime parameters (search_path and such).
func TenantPoolConfig(cfg tenancy.ConnectionConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.Database != "" {
		poolConfig.ConnConfig.Database = cfg.Database
	}
	if p := cfg.Pool; p != nil {
		if p.MaxConnections > 0 {
			poolConfig.MaxConns = int32(p.MaxConnections)
		}
		if p.MinConnections > 0 {
			poolConfig.MinConns = int32(min(p.MinConnections, p.MaxConnections))
		}
		if p.MaxConnIdleTime > 0 {
			poolConfig.MaxConnIdleTime = p.MaxConnIdleTime
		}
		if p.MaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = p.MaxConnLifetime
		}
	}
	for k, v := range cfg.Options {
		poolConfig.ConnConfig.RuntimeParams[k] = v
	}
	return poolConfig, nil
}

// OpenTenantPool opens a pool from TenantPoolConfig(cfg). Connections are
// established lazily unless cfg.Pool asks for idle ones.
func OpenTenantPool(ctx context.Context, cfg tenancy.ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := TenantPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, poolConfig)
}
