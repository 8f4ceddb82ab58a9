package di

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ActivationScope is the unit of Scoped-lifetime sharing: every Scoped
// registration resolved through the same ActivationScope returns the same
// instance, and the scope's cache is discarded when the scope is closed.
// A scope also carries a stack of the types currently under activation,
// top = nearest parent, so a context-aware factory (or a factory that
// calls back into scope.Get for its own dependencies) can see which type
// it is being built on behalf of.
type ActivationScope struct {
	id       uuid.UUID
	provider *Provider
	parent   *ActivationScope

	mu         sync.Mutex
	instances  map[string]any
	closed     bool
	activating []reflect.Type
}

func newActivationScope(p *Provider, parent *ActivationScope) *ActivationScope {
	return &ActivationScope{
		id:        uuid.New(),
		provider:  p,
		parent:    parent,
		instances: make(map[string]any),
	}
}

// ID returns the scope's unique identity, stable for its lifetime.
func (s *ActivationScope) ID() uuid.UUID { return s.id }

// Provider returns the frozen Provider this scope resolves against, so a
// factory callable taking *ActivationScope can reach Get/MustGet for its
// own dependencies.
func (s *ActivationScope) Provider() *Provider { return s.provider }

// Get resolves key within this scope: Scoped registrations are cached on
// the scope, Singleton registrations on the Provider, and Transient
// registrations are built fresh every call.
func (s *ActivationScope) Get(key TypeKey) (any, error) {
	return s.provider.resolveIn(s, key)
}

// CreateScope opens a child ActivationScope. Scoped instances already
// cached on s are not visible to the child; the child builds and caches
// its own.
func (s *ActivationScope) CreateScope() *ActivationScope {
	return newActivationScope(s.provider, s)
}

// Close discards this scope's Scoped-instance cache. It does not close or
// invalidate instances themselves; callers whose Scoped types hold
// resources should implement their own cleanup (e.g. an io.Closer check
// run over the cached instances) before calling Close.
func (s *ActivationScope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.instances = nil
}

// ActivatingType returns the type of the node whose activation is currently
// pulling in a dependency through s -- the parent type a context-aware
// factory receives as its second argument -- and true, or nil and false at
// the root of a resolution with no parent.
func (s *ActivationScope) ActivatingType() (reflect.Type, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.activating) == 0 {
		return nil, false
	}
	top := s.activating[len(s.activating)-1]
	return top, top != nil
}

func (s *ActivationScope) pushActivating(t reflect.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activating = append(s.activating, t)
}

func (s *ActivationScope) popActivating() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activating = s.activating[:len(s.activating)-1]
}

func (s *ActivationScope) cached(id string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.instances[id]
	return v, ok
}

func (s *ActivationScope) store(id string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instances != nil {
		s.instances[id] = v
	}
}

type scopeContextKey struct{}

// WithScope returns a context carrying scope as its ambient ActivationScope,
// for code paths (HTTP handlers, message consumers) that thread
// context.Context rather than an explicit *ActivationScope parameter.
func WithScope(ctx context.Context, scope *ActivationScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext returns the ActivationScope stored by WithScope, if any.
func ScopeFromContext(ctx context.Context) (*ActivationScope, bool) {
	s, ok := ctx.Value(scopeContextKey{}).(*ActivationScope)
	return s, ok
}

// GetIn resolves a Concrete[T] key through scope, type-asserting the
// result.
func GetIn[T any](scope *ActivationScope) (T, error) {
	var zero T
	v, err := scope.Get(ConcreteOf[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}
