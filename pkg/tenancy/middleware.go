package tenancy

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenancy/pkg/clientip"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
)

// Response headers set in debug mode.
const (
	HeaderTenantID       = "X-Tenant-ID"
	HeaderTenantDatabase = "X-Tenant-Database"
)

// Middleware binds a tenant to every request that is not ignored.
//
// Stages run in order and each failure ends the request with the JSON error
// response: rate limit by client IP, tenant resolution, active status, IP
// allow-list. Admitted requests reach next with the scope stored in their
// context; the scope is cleared when next returns. Panics inside the stages
// are treated as internal failures and deny the request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.ignore.Match(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		scope := m.NewScope()
		defer scope.Destroy()

		ip := clientip.FromRequest(r)
		t, err := m.admit(w, r, scope, ip)
		if err != nil {
			m.reject(w, r, ip, err)
			return
		}

		if m.cfg.Debug {
			w.Header().Set(HeaderTenantID, t.ID)
			if db, err := m.connections.ResolveTenantConnection(t.ID); err == nil {
				w.Header().Set(HeaderTenantDatabase, db)
			}
		}

		m.observer.TenantAdmitted(t.ID)
		m.recordAccess(r.Context(), t.ID)

		ctx := WithScopeKey(r.Context(), m.cfg.ContextKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTenant rejects requests whose context has no bound tenant. Mount it
// on routes that the ignore list would otherwise let through unscoped.
func (m *Manager) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.FromContext(r.Context()); !ok {
			m.reject(w, r, clientip.FromRequest(r), ErrNoTenantBound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) admit(w http.ResponseWriter, r *http.Request, scope *Scope, ip string) (t *Tenant, err error) {
	defer func() {
		if p := recover(); p != nil {
			t, err = nil, fmt.Errorf("panic in tenant pipeline: %v", p)
		}
	}()

	ctx := r.Context()
	res, err := m.gate.CheckRateLimit(ctx, ip)
	if res != nil {
		ratelimiter.SetHeaders(w, res)
	}
	if err != nil {
		return nil, err
	}

	id, err := m.resolver.Resolve(r)
	if err != nil {
		return nil, err
	}
	if t, err = scope.Init(ctx, id, true); err != nil {
		return nil, err
	}
	if err := CheckActive(t, m.now()); err != nil {
		return nil, err
	}
	if err := CheckIP(t, ip); err != nil {
		return nil, err
	}
	return t, nil
}

func (m *Manager) reject(w http.ResponseWriter, r *http.Request, ip string, err error) {
	kind := ErrorKind(err)
	level := slog.LevelWarn
	if !IsKnown(err) {
		level = slog.LevelError
	}
	m.logger.LogAttrs(r.Context(), level, "tenant request rejected",
		logger.Reason(kind),
		logger.Path(r.URL.Path),
		logger.ClientIP(ip),
		logger.UserAgent(r.UserAgent()),
		logger.Error(err),
	)
	m.observer.RequestRejected(kind)
	WriteError(w, err, m.cfg.Debug)
}
