package tenantstore

import "errors"

var (
	ErrTenantNotFound = errors.New("tenantstore: tenant not found")
	ErrInvalidTenant  = errors.New("tenantstore: invalid tenant record")
)
