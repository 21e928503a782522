package tenancy

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the JSON body written for rejected requests.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusCode maps an error to its HTTP status: 429 for rate limiting,
// 400 for a missing tenant id and 403 for everything else.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrMissingTenantID):
		return http.StatusBadRequest
	default:
		return http.StatusForbidden
	}
}

// ErrorKind returns a stable snake_case name of the error kind, "internal"
// for errors outside the package kinds.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrMissingTenantID):
		return "missing_tenant_id"
	case errors.Is(err, ErrInvalidTenantID):
		return "invalid_tenant_id"
	case errors.Is(err, ErrInvalidHost):
		return "invalid_host"
	case errors.Is(err, ErrTenantNotFound):
		return "tenant_not_found"
	case errors.Is(err, ErrTenantInactive):
		return "tenant_inactive"
	case errors.Is(err, ErrIPNotAllowed):
		return "ip_not_allowed"
	case errors.Is(err, ErrNoTenantBound), errors.Is(err, ErrNoScope):
		return "no_tenant_bound"
	case errors.Is(err, ErrReservedConnectionName):
		return "reserved_connection_name"
	case errors.Is(err, ErrTenantPrefixCollision):
		return "tenant_prefix_collision"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTenantLookupFailed):
		return "tenant_lookup_failed"
	default:
		return "internal"
	}
}

// NewErrorResponse builds the response body for err. The raw error text is
// only exposed in debug mode and only for known kinds.
func NewErrorResponse(err error, debug bool) ErrorResponse {
	code := StatusCode(err)
	if debug && IsKnown(err) {
		return ErrorResponse{Code: code, Message: err.Error()}
	}
	switch code {
	case http.StatusTooManyRequests:
		return ErrorResponse{Code: code, Message: "Too many requests"}
	case http.StatusBadRequest:
		return ErrorResponse{Code: code, Message: "Bad request"}
	default:
		return ErrorResponse{Code: code, Message: "Access denied"}
	}
}

// WriteError writes the JSON error response for err.
func WriteError(w http.ResponseWriter, err error, debug bool) {
	resp := NewErrorResponse(err, debug)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Code)
	_ = json.NewEncoder(w).Encode(resp)
}
