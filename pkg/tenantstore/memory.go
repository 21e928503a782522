package tenantstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

// Memory is an in-process store for tests, demos and single-node setups
// seeded at startup.
type Memory struct {
	mu      sync.RWMutex
	tenants map[string]*tenancy.Tenant
	domains map[string]string
	now     func() time.Time
}

// NewMemory returns a store holding tenants.
func NewMemory(tenants ...*tenancy.Tenant) (*Memory, error) {
	m := &Memory{
		tenants: make(map[string]*tenancy.Tenant, len(tenants)),
		domains: make(map[string]string),
		now:     time.Now,
	}
	for _, t := range tenants {
		if err := m.Save(context.Background(), t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadAll returns copies of every tenant that is not soft-deleted, oldest first.
func (m *Memory) LoadAll(context.Context) ([]*tenancy.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*tenancy.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		if t.DeletedAt == nil {
			out = append(out, copyTenant(t))
		}
	}
	slices.SortFunc(out, func(a, b *tenancy.Tenant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Get returns a copy of one tenant, soft-deleted ones included.
func (m *Memory) Get(_ context.Context, id string) (*tenancy.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return copyTenant(t), nil
}

// TenantIDByHost returns the tenant mapped to host, or "" for unmapped hosts.
func (m *Memory) TenantIDByHost(_ context.Context, host string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.domains[strings.ToLower(host)], nil
}

// RecordAccess bumps the access counter and last access time.
func (m *Memory) RecordAccess(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	t.AccessCount++
	t.LastAccessedAt = &at
	return nil
}

// Save inserts or replaces a copy of t. CreatedAt is kept from the stored
// record, or set now for new tenants without one.
func (m *Memory) Save(_ context.Context, t *tenancy.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := copyTenant(t)
	now := m.now()
	if prev, ok := m.tenants[t.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.tenants[t.ID] = cp
	return nil
}

// SoftDelete marks a tenant deleted; it is no longer listed by LoadAll.
func (m *Memory) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok || t.DeletedAt != nil {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	t.DeletedAt = &at
	return nil
}

// MapDomain points host at tenant id.
func (m *Memory) MapDomain(_ context.Context, host, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	m.domains[strings.ToLower(host)] = id
	return nil
}

// Domains returns a copy of the host to tenant mapping.
func (m *Memory) Domains() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.domains)
}

func copyTenant(t *tenancy.Tenant) *tenancy.Tenant {
	cp := *t
	cp.AllowedIPs = slices.Clone(t.AllowedIPs)
	cp.SecuritySettings = slices.Clone(t.SecuritySettings)
	return &cp
}
