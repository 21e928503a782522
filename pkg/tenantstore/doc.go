// Package tenantstore implements the tenant record and domain mapping stores
// consumed by pkg/tenancy.
//
// Three backends share one method set (LoadAll, TenantIDByHost,
// RecordAccess, Save, MapDomain):
//
//   - Postgres on pgx, with the goose schema embedded in Migrations
//   - Mongo on mongo-driver v2, one document per tenant keyed by id
//   - Memory for tests and seeded single-node setups
//
// Each satisfies tenancy.Store, tenancy.DomainStore and tenancy.AccessRecorder:
//
//	store := tenantstore.NewPostgres(pool)
//	mgr, err := tenancy.New(cfg, store, store, tenancy.WithAccessRecorder(store))
//
// Soft-deleted tenants are never returned by LoadAll. Save rejects records
// whose id, status or data size the tenancy package would not accept.
package tenantstore
