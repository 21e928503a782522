package tenantstore

import "embed"

// MigrationsDir is the directory of the goose migrations inside Migrations.
const MigrationsDir = "migrations"

// Migrations holds the schema of the tenants and tenant_domains tables,
// applied with pg.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
