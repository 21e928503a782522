package tenancy_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeStore is a tenant store counting LoadAll calls.
type fakeStore struct {
	mu      sync.Mutex
	tenants []*tenancy.Tenant
	err     error
	loads   atomic.Int32
}

func newFakeStore(tenants ...*tenancy.Tenant) *fakeStore {
	return &fakeStore{tenants: tenants}
}

func (s *fakeStore) LoadAll(context.Context) ([]*tenancy.Tenant, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*tenancy.Tenant, len(s.tenants))
	copy(out, s.tenants)
	return out, nil
}

func (s *fakeStore) add(t *tenancy.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = append(s.tenants, t)
}

func (s *fakeStore) setStatus(id string, status tenancy.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tenants {
		if t.ID == id {
			cp := *t
			cp.Status = status
			s.tenants[i] = &cp
		}
	}
}

// tenant returns an active tenant created n minutes after epoch.
func tenant(id string, n int) *tenancy.Tenant {
	return &tenancy.Tenant{
		ID:        id,
		Status:    tenancy.StatusActive,
		CreatedAt: epoch.Add(time.Duration(n) * time.Minute),
	}
}
