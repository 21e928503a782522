package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// Scope holds the tenant bound to one request. It is created per request,
// carried in the request context and cleared with Destroy when the request ends.
// Scopes are never shared between requests.
type Scope struct {
	directory   *Directory
	validator   *IDValidator
	connections *Connections
	cachePrefix string
	now         func() time.Time
	logger      *slog.Logger

	mu     sync.RWMutex
	tenant *Tenant
}

// NewScope creates an empty scope resolving tenants through directory.
// Most callers get scopes from Manager.NewScope.
func NewScope(directory *Directory, validator *IDValidator, connections *Connections) *Scope {
	if validator == nil {
		validator = DefaultIDValidator()
	}
	return &Scope{
		directory:   directory,
		validator:   validator,
		connections: connections,
		cachePrefix: "tenant_",
		now:         time.Now,
		logger:      slog.Default(),
	}
}

// Init binds a tenant to the scope and returns it.
//
// A non-empty explicitID is validated and used. An empty one fails with
// ErrMissingTenantID when requireTenant is set, otherwise Init returns nil
// without touching the scope. Re-binding the already bound id is a no-op.
// A tenant that is not admitted (see Tenant.IsActive) fails with ErrTenantInactive.
// On failure the scope is left empty.
func (s *Scope) Init(ctx context.Context, explicitID string, requireTenant bool) (*Tenant, error) {
	if explicitID == "" {
		if requireTenant {
			return nil, ErrMissingTenantID
		}
		return nil, nil
	}
	if err := s.validator.Validate(explicitID); err != nil {
		return nil, err
	}

	if current := s.Current(); current != nil && current.ID == explicitID {
		return current, nil
	}

	t, err := s.directory.Lookup(ctx, explicitID, false)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	if !t.IsActive(s.now()) {
		s.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrTenantInactive, explicitID)
	}

	s.mu.Lock()
	s.tenant = t
	s.mu.Unlock()
	return t, nil
}

// Current returns the bound tenant or nil.
func (s *Scope) Current() *Tenant {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenant
}

// ID returns the bound tenant id. With requireBound it fails with
// ErrNoTenantBound when nothing is bound, otherwise it returns "".
func (s *Scope) ID(requireBound bool) (string, error) {
	t := s.Current()
	if t == nil {
		if requireBound {
			return "", ErrNoTenantBound
		}
		return "", nil
	}
	return t.ID, nil
}

// Destroy clears the bound tenant.
func (s *Scope) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.tenant = nil
	s.mu.Unlock()
}

// RunForEach runs action once per tenant with that tenant bound.
//
// Empty ids means every tenant in creation order. Invalid ids are logged and
// skipped. The first error from binding a tenant or from action stops the
// batch. Whatever happens, including a panic in action, the tenant bound
// before the call is bound again afterwards; a failure to do so is returned
// together with the batch error.
func (s *Scope) RunForEach(ctx context.Context, ids []string, action func(ctx context.Context, t *Tenant) error) (err error) {
	if len(ids) == 0 {
		if ids, err = s.directory.IDs(ctx); err != nil {
			return err
		}
	}

	origin, _ := s.ID(false)
	defer func() {
		s.Destroy()
		if origin == "" {
			return
		}
		if _, restoreErr := s.Init(ctx, origin, true); restoreErr != nil {
			s.logger.ErrorContext(ctx, "failed to restore tenant after batch",
				logger.TenantID(origin), logger.Error(restoreErr))
			err = errors.Join(err, fmt.Errorf("restore tenant %s: %w", origin, restoreErr))
		}
	}()

	for _, id := range ids {
		if verr := s.validator.Validate(id); verr != nil {
			s.logger.WarnContext(ctx, "skipping invalid tenant id in batch",
				logger.TenantID(id), logger.Error(verr))
			continue
		}

		t, err := s.Init(ctx, id, true)
		if err != nil {
			return err
		}
		if err := action(ctx, t); err != nil {
			return fmt.Errorf("tenant %s: %w", id, err)
		}
		s.Destroy()
	}
	return nil
}

// Coordinates returns the storage coordinates of the bound tenant.
func (s *Scope) Coordinates() (Coordinates, error) {
	id, err := s.ID(true)
	if err != nil {
		return Coordinates{}, err
	}
	return coordinatesFor(s.connections, s.validator, s.cachePrefix, id)
}

type contextKey struct{ name string }

// WithScope stores s in ctx under the default context key.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return WithScopeKey(ctx, DefaultContextKey, s)
}

// WithScopeKey stores s in ctx under the named key.
func WithScopeKey(ctx context.Context, key string, s *Scope) context.Context {
	return context.WithValue(ctx, contextKey{name: key}, s)
}

// ScopeFromContext returns the scope stored under the default key.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	return ScopeFromContextKey(ctx, DefaultContextKey)
}

// ScopeFromContextKey returns the scope stored under the named key.
func ScopeFromContextKey(ctx context.Context, key string) (*Scope, bool) {
	s, ok := ctx.Value(contextKey{name: key}).(*Scope)
	return s, ok && s != nil
}

// FromContext returns the tenant bound to the scope stored under the default key.
func FromContext(ctx context.Context) (*Tenant, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return nil, false
	}
	t := s.Current()
	return t, t != nil
}

// MustFromContext is like FromContext but panics when no tenant is bound.
// Use it only behind RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenancy: no tenant bound to context")
	}
	return t
}

// LoggerExtractor returns a logger context extractor adding tenant_id.
func LoggerExtractor() logger.ContextExtractor {
	return LoggerExtractorKey(DefaultContextKey)
}

// LoggerExtractorKey is LoggerExtractor for a custom context key.
func LoggerExtractorKey(key string) logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		s, ok := ScopeFromContextKey(ctx, key)
		if !ok {
			return slog.Attr{}, false
		}
		if t := s.Current(); t != nil {
			return logger.TenantID(t.ID), true
		}
		return slog.Attr{}, false
	}
}
