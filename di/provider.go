package di

import (
	"reflect"
	"sync"
)

// Provider is the frozen, read-only façade produced by Registry.BuildProvider.
// Resolution always goes through a Provider, never directly against a
// Registry: it owns the compiled-plan cache and the Singleton instance
// cache, both keyed by TypeKey.ID() and invalidated together whenever the
// backing Registry's generation counter advances -- except through Set,
// which only adds keys that had no Registration and so folds the
// generation bump in without clearing anything. A plan cached before Set
// that treated the added key as absent (an Optional or alias dependency on
// it) keeps treating it as absent.
type Provider struct {
	registry *Registry

	mu         sync.RWMutex
	planCache  map[string]*ActivationPlan
	singletons map[string]reflect.Value
	cachedGen  uint64
}

func newProvider(r *Registry) *Provider {
	return &Provider{
		registry:   r,
		planCache:  make(map[string]*ActivationPlan),
		singletons: make(map[string]reflect.Value),
		cachedGen:  r.Gen(),
	}
}

// Get resolves key against the Provider's own implicit root scope: a
// Transient or Singleton dependency resolves normally, but a Scoped
// dependency fails with ErrInvalidFactory since there is no
// ActivationScope to cache it on. Use CreateScope for graphs containing
// Scoped registrations.
func (p *Provider) Get(key TypeKey) (any, error) {
	return p.resolveIn(nil, key)
}

// MustGet panics if Get returns an error.
func (p *Provider) MustGet(key TypeKey) any {
	v, err := p.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// CreateScope opens a new ActivationScope bound to this Provider.
func (p *Provider) CreateScope() *ActivationScope {
	return newActivationScope(p, nil)
}

// Contains reports whether key has a Registration.
func (p *Provider) Contains(key TypeKey) bool {
	return p.registry.Contains(key)
}

// Describe compiles (or reuses the cached compilation of) key's
// activation plan and renders it as an indented diagnostic tree, without
// activating anything.
func (p *Provider) Describe(key TypeKey) (string, error) {
	p.checkInvalidate()
	plan, err := p.planFor(key)
	if err != nil {
		return "", err
	}
	return plan.Describe(), nil
}

// Set additively registers key with builder and lifetime. Unlike
// Registry.Register, Set never accepts WithOverride: it fails with
// ErrOverridingService whenever key already has a Registration, because a
// frozen Provider must never let new registrations silently change the
// meaning of an already-resolved dependency graph.
func (p *Provider) Set(key TypeKey, builder Builder, lifetime Lifetime) error {
	if p.registry.Contains(key) {
		return ErrOverridingService{Key: key}
	}
	if err := p.registry.Register(key, builder, lifetime); err != nil {
		return err
	}
	p.mu.Lock()
	p.cachedGen = p.registry.Gen()
	p.mu.Unlock()
	return nil
}

func (p *Provider) resolveIn(scope *ActivationScope, key TypeKey) (any, error) {
	p.checkInvalidate()

	plan, err := p.planFor(key)
	if err != nil {
		return nil, err
	}
	if plan.Root.none {
		return nil, nil
	}

	v, err := activateNode(p, scope, plan.Root, nil)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

func (p *Provider) planFor(key TypeKey) (*ActivationPlan, error) {
	id := key.ID()

	p.mu.RLock()
	plan, ok := p.planCache[id]
	p.mu.RUnlock()
	if ok {
		return plan, nil
	}

	plan, err := compilePlan(p.registry, key)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.planCache[id] = plan
	p.mu.Unlock()
	return plan, nil
}

func (p *Provider) checkInvalidate() {
	gen := p.registry.Gen()
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.cachedGen {
		p.planCache = make(map[string]*ActivationPlan)
		p.singletons = make(map[string]reflect.Value)
		p.cachedGen = gen
	}
}

func (p *Provider) singletonCached(id string) (reflect.Value, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.singletons[id]
	return v, ok
}

func (p *Provider) singletonStore(id string, v reflect.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.singletons[id] = v
}

// Get resolves a Concrete[T] key through p, type-asserting the result.
func Get[T any](p *Provider) (T, error) {
	var zero T
	v, err := p.Get(ConcreteOf[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// MustGet panics if Get[T] returns an error.
func MustGet[T any](p *Provider) T {
	v, err := Get[T](p)
	if err != nil {
		panic(err)
	}
	return v
}

// GetOptional resolves Optional(ConcreteOf[T]()), materializing the
// generic Optional[T] wrapper the caller's own type parameter makes
// available -- something the type-erased Provider.Get cannot do on its
// own, since Go reflection cannot instantiate a generic type at runtime
// for a T known only as a reflect.Type.
func GetOptional[T any](p *Provider) (Optional[T], error) {
	v, err := p.Get(Optional(ConcreteOf[T]()))
	if err != nil {
		return Optional[T]{}, err
	}
	if v == nil {
		return Optional[T]{}, nil
	}
	return Optional[T]{Value: v.(T), Ok: true}, nil
}

// GetByName resolves the Name(name) alias key, used for dependency sites
// that carried no usable static type.
func GetByName[T any](p *Provider, name string) (T, error) {
	var zero T
	v, err := p.Get(Name(name))
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, ErrCannotResolveType{Key: Name(name)}
	}
	return t, nil
}
