package di

import (
	"reflect"
	"runtime"
	"sync"
)

// BuilderKind discriminates how a Registration produces an instance.
type BuilderKind int

const (
	// BuilderConcreteType constructs C directly: a call to its registered
	// constructor with resolved parameters (or a zero-value allocation when
	// there is none), followed by attribute-field injection.
	BuilderConcreteType BuilderKind = iota
	// BuilderFactory invokes a registered factory callable with one of
	// the three accepted arities.
	BuilderFactory
	// BuilderInstance returns a pre-existing, already-constructed value.
	BuilderInstance
)

// Builder is a tagged variant over the three ways an instance can be
// produced, matched exhaustively by the Activator.
type Builder struct {
	kind BuilderKind

	// BuilderConcreteType
	concreteType reflect.Type
	ctor         *reflect.Value // optional constructor func(args...) (T[, error])
	ctorType     reflect.Type

	// BuilderFactory
	factory     reflect.Value
	factoryType reflect.Type

	// BuilderInstance
	instance any
}

// Kind reports the Builder's variant.
func (b Builder) Kind() BuilderKind { return b.kind }

// ConcreteTypeBuilder builds a Builder that constructs concreteType by
// calling ctor with its resolved parameters (if ctor is given) or by
// allocating its zero value (if not), then injecting tagged/descriptor
// attribute fields. ctor, if non-nil, must be a
// func(args...) T or func(args...) (T, error) whose return type is
// assignable to concreteType.
func ConcreteTypeBuilder(concreteType reflect.Type, ctor any) (Builder, error) {
	b := Builder{kind: BuilderConcreteType, concreteType: concreteType}
	if ctor == nil {
		return b, nil
	}
	ctorVal := reflect.ValueOf(ctor)
	if ctorVal.Kind() != reflect.Func {
		return Builder{}, ErrInvalidFactory{Key: Concrete(concreteType), Message: "constructor must be a function"}
	}
	ctorType := ctorVal.Type()
	if err := validateReturn(concreteType, ctorType); err != nil {
		return Builder{}, err
	}
	b.ctor = &ctorVal
	b.ctorType = ctorType
	return b, nil
}

// FactoryBuilder builds a Builder wrapping a factory callable. The factory
// must have one of the three accepted shapes:
//
//	func() T
//	func(scope *ActivationScope) T
//	func(scope *ActivationScope, activatingType reflect.Type) T
//
// each optionally returning (T, error). No child edges are planned for a
// factory: it is responsible for its own dependency access via
// scope.Provider().Get. A factory resolved through Provider.Get rather
// than through an ActivationScope receives a nil scope.
func FactoryBuilder(key TypeKey, factory any) (Builder, error) {
	factoryVal := reflect.ValueOf(factory)
	if factoryVal.Kind() != reflect.Func {
		return Builder{}, ErrInvalidFactory{Key: key, Message: "factory must be a function"}
	}
	factoryType := factoryVal.Type()

	switch factoryType.NumIn() {
	case 0, 1:
	case 2:
	default:
		return Builder{}, ErrInvalidFactory{Key: key, Message: "factory must take zero, one (*ActivationScope), or two (*ActivationScope, reflect.Type) parameters"}
	}
	if factoryType.NumIn() >= 1 && factoryType.In(0) != scopeType {
		return Builder{}, ErrInvalidFactory{Key: key, Message: "factory's first parameter must be *di.ActivationScope"}
	}
	if factoryType.NumIn() == 2 && factoryType.In(1) != reflectTypeType {
		return Builder{}, ErrInvalidFactory{Key: key, Message: "factory's second parameter must be reflect.Type"}
	}
	if key.Type() != nil {
		if err := validateReturn(key.Type(), factoryType); err != nil {
			return Builder{}, err
		}
	} else if err := validateArity(factoryType); err != nil {
		return Builder{}, err
	}

	return Builder{kind: BuilderFactory, factory: factoryVal, factoryType: factoryType}, nil
}

// InstanceBuilder builds a Builder returning a fixed, pre-existing value.
func InstanceBuilder(instance any) Builder {
	return Builder{kind: BuilderInstance, instance: instance}
}

var (
	scopeType       = reflect.TypeOf((*ActivationScope)(nil))
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

func validateReturn(target reflect.Type, fnType reflect.Type) error {
	if err := validateArity(fnType); err != nil {
		return err
	}
	ret := fnType.Out(0)
	if !ret.AssignableTo(target) && !(target.Kind() == reflect.Interface && ret.Implements(target)) {
		return ErrInvalidFactory{Key: Concrete(target), Message: "return type " + ret.String() + " is not assignable to " + target.String()}
	}
	return nil
}

func validateArity(fnType reflect.Type) error {
	if fnType.NumOut() == 0 {
		return ErrInvalidFactory{Message: "must return at least one value"}
	}
	if fnType.NumOut() > 2 {
		return ErrInvalidFactory{Message: "cannot return more than 2 values"}
	}
	if fnType.NumOut() == 2 && !fnType.Out(1).Implements(errorType) {
		return ErrInvalidFactory{Message: "second return value must be error"}
	}
	return nil
}

// Registration binds a TypeKey to a Lifetime and a Builder. At most one
// Registration may exist per TypeKey.
type Registration struct {
	Key      TypeKey
	Lifetime Lifetime
	Builder  Builder
	order    int
}

// RegisterOption configures an individual register call.
type RegisterOption func(*registerSettings)

type registerSettings struct {
	override bool
}

// WithOverride permits a register call to replace an existing Registration
// instead of failing with ErrOverridingService.
func WithOverride() RegisterOption {
	return func(s *registerSettings) { s.override = true }
}

// Registry is the mutable TypeKey -> Registration map. It tracks
// registration order, factory/instance builders, alias entries, and a
// generation counter that invalidates compiled plans and cached
// singletons on the next resolve after a mutation.
type Registry struct {
	mu         sync.RWMutex
	regs       map[string]*Registration
	keys       map[string]TypeKey
	order      []string
	aliases    *aliasTable
	strict     bool
	generation uint64
	nextOrder  int
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithStrict disables automatic alias derivation: only explicit AddAlias
// entries participate in name-based fallback.
func WithStrict() RegistryOption {
	return func(r *Registry) { r.strict = true }
}

// NewRegistry creates an empty, mutable Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		regs:    make(map[string]*Registration),
		keys:    make(map[string]TypeKey),
		aliases: newAliasTable(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds key to builder under lifetime. It fails with
// ErrOverridingService if key already has a Registration, unless
// WithOverride() is passed.
func (r *Registry) Register(key TypeKey, builder Builder, lifetime Lifetime, opts ...RegisterOption) error {
	settings := registerSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	id := key.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regs[id]; exists && !settings.override {
		return ErrOverridingService{Key: key}
	}

	if builder.kind == BuilderConcreteType && key.Kind() == KindConcrete && key.Type() != builder.concreteType {
		if err := checkSubtype(key.Type(), builder.concreteType); err != nil {
			return err
		}
	}

	if _, exists := r.regs[id]; !exists {
		r.order = append(r.order, id)
		r.nextOrder++
	}
	r.regs[id] = &Registration{Key: key, Lifetime: lifetime, Builder: builder, order: r.nextOrder}
	r.keys[id] = key

	if !r.strict && key.Kind() == KindConcrete {
		r.deriveAliases(key)
	}

	r.generation++
	logRegister(key, lifetime, builder.kind)
	return nil
}

// checkSubtype enforces the registration rule for ConcreteType(C) under
// Concrete(I) where I != C: it requires either that I is an interface
// (every Go interface is treated as structurally satisfiable: no nominal
// subclass relationship is required) or that C nominally derives from I
// via struct embedding.
func checkSubtype(target, concrete reflect.Type) error {
	if target.Kind() == reflect.Interface {
		if concrete.Implements(target) {
			return nil
		}
		if concrete.Kind() == reflect.Ptr && reflect.PointerTo(concrete.Elem()).Implements(target) {
			return nil
		}
		return ErrInvalidFactory{Key: Concrete(target), Message: concrete.String() + " does not implement " + target.String()}
	}
	if embeds(concrete, target) {
		return nil
	}
	return ErrInvalidFactory{Key: Concrete(target), Message: concrete.String() + " does not embed " + target.String()}
}

func embeds(concrete, target reflect.Type) bool {
	t := concrete
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft == target {
			return true
		}
	}
	return false
}

func (r *Registry) deriveAliases(key TypeKey) {
	name := simpleName(key.Type())
	r.aliases.add(name, key)
}

func simpleName(t reflect.Type) string {
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return name
}

// AddTransient registers key, building it via ctor (or a bare zero-value
// allocation of the key's own type when ctor is nil), Transient lifetime.
func (r *Registry) AddTransient(key TypeKey, ctor any, opts ...RegisterOption) error {
	return r.addConcrete(key, ctor, Transient, opts...)
}

// AddSingleton is AddTransient with Singleton lifetime.
func (r *Registry) AddSingleton(key TypeKey, ctor any, opts ...RegisterOption) error {
	return r.addConcrete(key, ctor, Singleton, opts...)
}

// AddScoped is AddTransient with Scoped lifetime.
func (r *Registry) AddScoped(key TypeKey, ctor any, opts ...RegisterOption) error {
	return r.addConcrete(key, ctor, Scoped, opts...)
}

func (r *Registry) addConcrete(key TypeKey, ctor any, lifetime Lifetime, opts ...RegisterOption) error {
	concreteType := key.Type()
	if ctor != nil {
		ctorType := reflect.TypeOf(ctor)
		if ctorType != nil && ctorType.Kind() == reflect.Func && ctorType.NumOut() > 0 {
			concreteType = ctorType.Out(0)
		}
	}
	if concreteType == nil {
		return ErrInvalidFactory{Key: key, Message: "no concrete type could be determined; pass a constructor or a Concrete key"}
	}
	builder, err := ConcreteTypeBuilder(concreteType, ctor)
	if err != nil {
		return err
	}
	return r.Register(key, builder, lifetime, opts...)
}

// AddTransientByFactory registers key, built by factory, Transient lifetime.
// Pass InferKey for key to derive it from factory's own return type instead
// of declaring one explicitly.
func (r *Registry) AddTransientByFactory(key TypeKey, factory any, opts ...RegisterOption) error {
	return r.addFactory(key, factory, Transient, opts...)
}

// AddSingletonByFactory is AddTransientByFactory with Singleton lifetime.
func (r *Registry) AddSingletonByFactory(key TypeKey, factory any, opts ...RegisterOption) error {
	return r.addFactory(key, factory, Singleton, opts...)
}

// AddScopedByFactory is AddTransientByFactory with Scoped lifetime.
func (r *Registry) AddScopedByFactory(key TypeKey, factory any, opts ...RegisterOption) error {
	return r.addFactory(key, factory, Scoped, opts...)
}

func (r *Registry) addFactory(key TypeKey, factory any, lifetime Lifetime, opts ...RegisterOption) error {
	resolvedKey, err := resolveFactoryKey(key, factory)
	if err != nil {
		return err
	}
	builder, err := FactoryBuilder(resolvedKey, factory)
	if err != nil {
		return err
	}
	return r.Register(resolvedKey, builder, lifetime, opts...)
}

// resolveFactoryKey returns key unchanged unless it is InferKey, in which
// case it derives a Concrete key from factory's own declared return type --
// the return-type declaration establishes the key unless one is supplied.
// It fails with ErrMissingType only for the degenerate case of a factory
// declaring no return value at all, since every other Go function value
// reflects a usable return type.
func resolveFactoryKey(key TypeKey, factory any) (TypeKey, error) {
	if key.Kind() != KindInferred {
		return key, nil
	}
	factoryVal := reflect.ValueOf(factory)
	if factoryVal.Kind() != reflect.Func {
		return TypeKey{}, ErrInvalidFactory{Message: "factory must be a function"}
	}
	if factoryVal.Type().NumOut() == 0 {
		return TypeKey{}, ErrMissingType{Factory: factoryName(factory)}
	}
	return Concrete(factoryVal.Type().Out(0)), nil
}

// factoryName renders a best-effort name for error messages, using the
// runtime symbol table since a reflect.Value over a func carries no name of
// its own.
func factoryName(factory any) string {
	return runtime.FuncForPC(reflect.ValueOf(factory).Pointer()).Name()
}

// AddInstance registers a pre-existing value as a Singleton, keyed by the
// runtime type of instance.
func (r *Registry) AddInstance(instance any, opts ...RegisterOption) error {
	key := Concrete(reflect.TypeOf(instance))
	return r.Register(key, InstanceBuilder(instance), Singleton, opts...)
}

// AddAlias registers an explicit name -> TypeKey candidate, consulted only
// when a dependency site lacks a type declaration.
func (r *Registry) AddAlias(name string, key TypeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases.addExact(name, key)
	r.generation++
	return nil
}

// RemoveAlias retracts a single name -> key candidate previously registered
// via AddAlias. It is a no-op if no such candidate exists.
func (r *Registry) RemoveAlias(name string, key TypeKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.aliases.exact[name])
	r.aliases.removeExact(name, key)
	if len(r.aliases.exact[name]) != before {
		r.generation++
	}
	return nil
}

// Contains reports whether key has a Registration.
func (r *Registry) Contains(key TypeKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.regs[key.ID()]
	return ok
}

// lookup returns the Registration for id, and ok.
func (r *Registry) lookup(id string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[id]
	return reg, ok
}

// aliasLookup consults the alias table for name, returning a single
// unambiguous candidate TypeKey.
func (r *Registry) aliasLookup(name string) (TypeKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliases.lookup(name)
}

// Gen returns the current generation counter, advanced on every successful
// mutating call.
func (r *Registry) Gen() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// BuildProvider freezes the current registry state into a read-only
// Provider. The first resolve through the returned Provider compiles and
// caches activation plans; subsequent registry mutations advance the
// generation counter and invalidate the Provider's plan and singleton
// caches on next use.
func (r *Registry) BuildProvider() *Provider {
	return newProvider(r)
}
