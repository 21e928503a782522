package tenancy

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// lookupResult is the outcome of one pass over the loaded tenant list.
type lookupResult int

const (
	lookupFound lookupResult = iota
	lookupRetry
	lookupMissing
)

// Directory resolves tenant ids to records for a single request.
//
// It loads every tenant once, filters in memory and reloads once when an id
// is missing, which covers tenants created after the first load. Every lookup
// of an unknown id costs a full reload, so large tenant counts call for a
// Store doing point lookups behind the same contract.
type Directory struct {
	store   Store
	timeout time.Duration

	mu      sync.Mutex
	loaded  bool
	tenants []*Tenant
}

// NewDirectory creates a request-scoped directory over store.
// A positive timeout bounds every store call.
func NewDirectory(store Store, timeout time.Duration) *Directory {
	return &Directory{store: store, timeout: timeout}
}

// Lookup returns the record of id. forceRefresh reloads the tenant list first.
func (d *Directory) Lookup(ctx context.Context, id string, forceRefresh bool) (*Tenant, error) {
	t, res, err := d.find(ctx, id, forceRefresh)
	if err != nil {
		return nil, err
	}
	if res == lookupRetry {
		t, res, err = d.find(ctx, id, true)
		if err != nil {
			return nil, err
		}
	}
	if res != lookupFound {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return t, nil
}

// IDs returns all tenant ids ordered by creation time.
func (d *Directory) IDs(ctx context.Context) ([]string, error) {
	tenants, err := d.all(ctx, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// Reset drops the loaded list so the next lookup hits the store.
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.tenants = nil
}

func (d *Directory) find(ctx context.Context, id string, forceRefresh bool) (*Tenant, lookupResult, error) {
	tenants, err := d.all(ctx, forceRefresh)
	if err != nil {
		return nil, lookupMissing, err
	}
	for _, t := range tenants {
		if t.ID == id {
			return t, lookupFound, nil
		}
	}
	if forceRefresh {
		return nil, lookupMissing, nil
	}
	return nil, lookupRetry, nil
}

func (d *Directory) all(ctx context.Context, forceRefresh bool) ([]*Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded && !forceRefresh {
		return d.tenants, nil
	}
	if d.store == nil {
		return nil, fmt.Errorf("%w: no tenant store configured", ErrTenantLookupFailed)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	tenants, err := d.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTenantLookupFailed, err)
	}

	tenants = slices.DeleteFunc(slices.Clone(tenants), func(t *Tenant) bool { return t == nil })
	slices.SortStableFunc(tenants, func(a, b *Tenant) int { return a.CreatedAt.Compare(b.CreatedAt) })

	d.tenants = tenants
	d.loaded = true
	return tenants, nil
}
