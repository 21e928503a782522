package tenancy

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// Admits reports whether requests may be served for a tenant in this status.
func (s Status) Admits() bool {
	return s == StatusActive || s == StatusTrial
}

// MaxDataLength is the maximum size of the serialized tenant configuration blob.
const MaxDataLength = 500

// Tenant is one tenant's configuration and lifecycle state.
type Tenant struct {
	ID               string          `json:"id"`
	Data             string          `json:"data"`
	Status           Status          `json:"status"`
	LastAccessedAt   *time.Time      `json:"last_accessed_at,omitempty"`
	AccessCount      uint64          `json:"access_count"`
	AllowedIPs       []string        `json:"allowed_ips,omitempty"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	SecuritySettings json.RawMessage `json:"security_settings,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        *time.Time      `json:"deleted_at,omitempty"`
}

// IsActive reports whether the tenant is admitted at the given instant:
// status active or trial, not expired and not soft-deleted.
func (t *Tenant) IsActive(now time.Time) bool {
	if t == nil || t.DeletedAt != nil {
		return false
	}
	if !t.Status.Admits() {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

// Store loads tenant records from the central database.
type Store interface {
	// LoadAll returns every non-deleted tenant ordered by creation time ascending.
	LoadAll(ctx context.Context) ([]*Tenant, error)
}

// DomainStore maps request hosts to tenant identifiers.
type DomainStore interface {
	// TenantIDByHost returns the tenant id mapped to host, or an empty string
	// when the host is not mapped.
	TenantIDByHost(ctx context.Context, host string) (string, error)
}

// AccessRecorder updates access bookkeeping for a tenant.
// It is optional and called on a best-effort basis.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, tenantID string, at time.Time) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context) ([]*Tenant, error)

// LoadAll calls f.
func (f StoreFunc) LoadAll(ctx context.Context) ([]*Tenant, error) {
	return f(ctx)
}

// DomainStoreFunc adapts a function to the DomainStore interface.
type DomainStoreFunc func(ctx context.Context, host string) (string, error)

// TenantIDByHost calls f.
func (f DomainStoreFunc) TenantIDByHost(ctx context.Context, host string) (string, error) {
	return f(ctx, host)
}
