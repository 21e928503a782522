package tenancy

// Observer is notified about pipeline outcomes. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// TenantAdmitted is called when a request reached the downstream handler with a bound tenant.
	TenantAdmitted(tenantID string)
	// RequestRejected is called with the error kind (see ErrorKind) of a rejected request.
	RequestRejected(kind string)
	// RateLimitUnavailable is called when the counter store failed and the request was let through.
	RateLimitUnavailable()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) TenantAdmitted(string)  {}
func (NopObserver) RequestRejected(string) {}
func (NopObserver) RateLimitUnavailable()  {}
