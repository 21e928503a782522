package tenantstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

// DB is the subset of *pgxpool.Pool used by Postgres.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres reads tenants and domain mappings from the central database.
type Postgres struct {
	db DB
}

// NewPostgres returns a store on db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

const tenantColumns = `id, data, status, last_accessed_at, access_count, allowed_ips,
	expires_at, security_settings, created_at, updated_at, deleted_at`

// LoadAll returns every tenant that is not soft-deleted, oldest first.
func (p *Postgres) LoadAll(ctx context.Context) ([]*tenancy.Tenant, error) {
	rows, err := p.db.Query(ctx, `SELECT `+tenantColumns+`
		FROM tenants
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	tenants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*tenancy.Tenant, error) {
		return scanTenant(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan tenants: %w", err)
	}
	return tenants, nil
}

// Get returns one tenant, soft-deleted ones included.
func (p *Postgres) Get(ctx context.Context, id string) (*tenancy.Tenant, error) {
	t, err := scanTenant(p.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return t, err
}

// TenantIDByHost returns the tenant mapped to host, or "" for unmapped hosts.
func (p *Postgres) TenantIDByHost(ctx context.Context, host string) (string, error) {
	var id string
	err := p.db.QueryRow(ctx,
		`SELECT tenant_id FROM tenant_domains WHERE domain = $1`,
		strings.ToLower(host),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query tenant domain: %w", err)
	}
	return id, nil
}

// RecordAccess bumps access_count and last_accessed_at.
func (p *Postgres) RecordAccess(ctx context.Context, id string, at time.Time) error {
	_, err := p.db.Exec(ctx,
		`UPDATE tenants SET access_count = access_count + 1, last_accessed_at = $2 WHERE id = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("record tenant access: %w", err)
	}
	return nil
}

// Save inserts or updates t.
func (p *Postgres) Save(ctx context.Context, t *tenancy.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	allowed, err := json.Marshal(t.AllowedIPs)
	if err != nil {
		return fmt.Errorf("encode allowed ips: %w", err)
	}
	if t.AllowedIPs == nil {
		allowed = nil
	}
	var settings []byte
	if len(t.SecuritySettings) > 0 {
		settings = t.SecuritySettings
	}

	_, err = p.db.Exec(ctx, `INSERT INTO tenants (id, data, status, allowed_ips, expires_at, security_settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			status = EXCLUDED.status,
			allowed_ips = EXCLUDED.allowed_ips,
			expires_at = EXCLUDED.expires_at,
			security_settings = EXCLUDED.security_settings,
			updated_at = now()`,
		t.ID, t.Data, string(t.Status), allowed, t.ExpiresAt, settings)
	if err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}

// MapDomain points host at tenant id.
func (p *Postgres) MapDomain(ctx context.Context, host, id string) error {
	_, err := p.db.Exec(ctx, `INSERT INTO tenant_domains (domain, tenant_id) VALUES ($1, $2)
		ON CONFLICT (domain) DO UPDATE SET tenant_id = EXCLUDED.tenant_id, updated_at = now()`,
		strings.ToLower(host), id)
	if err != nil {
		return fmt.Errorf("map tenant domain: %w", err)
	}
	return nil
}

// SoftDelete marks a tenant deleted; it is no longer admitted.
func (p *Postgres) SoftDelete(ctx context.Context, id string, at time.Time) error {
	tag, err := p.db.Exec(ctx, `UPDATE tenants SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return nil
}

func scanTenant(row pgx.Row) (*tenancy.Tenant, error) {
	var (
		t        tenancy.Tenant
		status   string
		allowed  []byte
		settings []byte
		count    int64
	)
	err := row.Scan(&t.ID, &t.Data, &status, &t.LastAccessedAt, &count, &allowed,
		&t.ExpiresAt, &settings, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	t.Status = tenancy.Status(status)
	t.AccessCount = uint64(max(count, 0))
	if len(allowed) > 0 {
		if err := json.Unmarshal(allowed, &t.AllowedIPs); err != nil {
			return nil, fmt.Errorf("%w: %s allowed_ips: %w", ErrInvalidTenant, t.ID, err)
		}
	}
	if len(settings) > 0 {
		t.SecuritySettings = json.RawMessage(settings)
	}
	return &t, nil
}
