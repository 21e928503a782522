package tenantstore

import (
	"fmt"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

func validateTenant(t *tenancy.Tenant) error {
	switch {
	case t == nil:
		return fmt.Errorf("%w: nil", ErrInvalidTenant)
	case !tenancy.ValidateID(t.ID):
		return fmt.Errorf("%w: id %q", ErrInvalidTenant, t.ID)
	case !t.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidTenant, t.Status)
	case len(t.Data) > tenancy.MaxDataLength:
		return fmt.Errorf("%w: data longer than %d bytes", ErrInvalidTenant, tenancy.MaxDataLength)
	}
	return nil
}
