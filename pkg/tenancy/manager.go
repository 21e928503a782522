package tenancy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
)

// accessRecordTimeout bounds one best-effort access bookkeeping write.
const accessRecordTimeout = 2 * time.Second

// Manager wires the tenancy components together. It is safe for concurrent
// use; request state lives in the Scope each request gets.
type Manager struct {
	cfg         Config
	store       Store
	domains     DomainStore
	validator   *IDValidator
	connections *Connections
	ignore      *PathMatcher
	resolver    *RequestResolver
	gate        *AccessGate

	logger     *slog.Logger
	observer   Observer
	recorder   AccessRecorder
	limiter    ratelimiter.RateLimiter
	limitStore ratelimiter.Store
	ownedStore *ratelimiter.MemoryStore
	now        func() time.Time

	wg sync.WaitGroup
}

// New validates cfg and builds a Manager reading tenants from store and
// host mappings from domains. domains may be nil when tenants are always
// addressed by header or query parameter.
func New(cfg Config, store Store, domains DomainStore, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: tenant store is nil", ErrConfiguration)
	}

	m := &Manager{
		cfg:      cfg,
		store:    store,
		domains:  domains,
		logger:   logger.Discard(),
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.validator == nil {
		v, err := NewIDValidator(cfg.TenantIDPattern)
		if err != nil {
			return nil, err
		}
		m.validator = v
	}

	var err error
	if m.connections, err = NewConnections(cfg, m.validator); err != nil {
		return nil, err
	}
	if m.ignore, err = NewPathMatcher(cfg.IgnorePaths); err != nil {
		return nil, err
	}
	if err := m.buildLimiter(); err != nil {
		return nil, err
	}

	m.resolver = NewRequestResolver(cfg, domains, m.validator)
	m.gate = NewAccessGate(m.limiter, cfg.CounterTimeout, m.logger, m.observer)
	return m, nil
}

func (m *Manager) buildLimiter() error {
	if !m.cfg.RateLimitEnabled {
		m.limiter = nil
		return nil
	}
	if m.limiter != nil {
		return nil
	}
	store := m.limitStore
	if store == nil {
		m.ownedStore = ratelimiter.NewMemoryStore()
		store = m.ownedStore
	}
	l, err := ratelimiter.NewFixedWindow(store, ratelimiter.Config{
		Limit:     m.cfg.RateLimitMaxRequests,
		Window:    m.cfg.RateLimitWindow,
		KeyPrefix: RateLimitKeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	m.limiter = l
	return nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Connections returns the connection resolver.
func (m *Manager) Connections() *Connections {
	return m.connections
}

// Validator returns the tenant id validator.
func (m *Manager) Validator() *IDValidator {
	return m.validator
}

// NewScope returns an empty scope with its own request-scoped directory.
func (m *Manager) NewScope() *Scope {
	s := NewScope(NewDirectory(m.store, m.cfg.LookupTimeout), m.validator, m.connections)
	s.cachePrefix = m.cfg.CachePrefix
	s.now = m.now
	s.logger = m.logger
	return s
}

// Coordinates returns the storage coordinates of tenant id.
func (m *Manager) Coordinates(id string) (Coordinates, error) {
	return coordinatesFor(m.connections, m.validator, m.cfg.CachePrefix, id)
}

// RunForEach runs action for every listed tenant, or all tenants when ids is
// empty, outside any request. See Scope.RunForEach.
func (m *Manager) RunForEach(ctx context.Context, ids []string, action func(ctx context.Context, t *Tenant) error) error {
	s := m.NewScope()
	defer s.Destroy()
	return s.RunForEach(WithScopeKey(ctx, m.cfg.ContextKey, s), ids, action)
}

// FromContext returns the tenant bound under the manager's context key.
func (m *Manager) FromContext(ctx context.Context) (*Tenant, bool) {
	s, ok := ScopeFromContextKey(ctx, m.cfg.ContextKey)
	if !ok {
		return nil, false
	}
	t := s.Current()
	return t, t != nil
}

// ScopeFromContext returns the scope stored under the manager's context key.
func (m *Manager) ScopeFromContext(ctx context.Context) (*Scope, bool) {
	return ScopeFromContextKey(ctx, m.cfg.ContextKey)
}

// LoggerExtractor returns a logger extractor for the manager's context key.
func (m *Manager) LoggerExtractor() logger.ContextExtractor {
	return LoggerExtractorKey(m.cfg.ContextKey)
}

// Close waits for pending access bookkeeping and stops the in-process rate
// limit store, if the manager created one.
func (m *Manager) Close() {
	m.wg.Wait()
	if m.ownedStore != nil {
		m.ownedStore.Close()
	}
}

func (m *Manager) recordAccess(ctx context.Context, id string) {
	if m.recorder == nil {
		return
	}
	at := m.now()
	ctx = context.WithoutCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, accessRecordTimeout)
		defer cancel()
		if err := m.recorder.RecordAccess(ctx, id, at); err != nil {
			m.logger.WarnContext(ctx, "failed to record tenant access",
				logger.TenantID(id), logger.Error(err))
		}
	}()
}
