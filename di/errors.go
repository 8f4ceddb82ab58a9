package di

import (
	"fmt"
	"strings"
)

// ErrCannotResolveType is returned when a requested key -- root or
// transitive -- has no registration, no viable alias, and is not an
// Optional of an unregistered type.
//
// Example:
//
//	_, err := provider.Get(di.ConcreteOf[Logger]())
//	if err != nil {
//	    var notResolved di.ErrCannotResolveType
//	    if errors.As(err, &notResolved) {
//	        fmt.Printf("%s is not registered\n", notResolved.Key)
//	    }
//	}
type ErrCannotResolveType struct {
	// Key is the TypeKey that could not be resolved.
	Key TypeKey
}

func (e ErrCannotResolveType) Error() string {
	return fmt.Sprintf("di: cannot resolve type %s: no registration, alias, or satisfiable optional", e.Key)
}

// ErrCannotResolveParameter is returned when a specific constructor
// parameter of a planned type could not be satisfied: no type declaration,
// no alias candidate, and no default.
type ErrCannotResolveParameter struct {
	// Key is the concrete type whose constructor parameter failed.
	Key TypeKey
	// Parameter is the parameter or field name that could not be bound.
	Parameter string
	// Chain is the sequence of keys leading from the root request through
	// Key to the dependency key that could not be resolved.
	Chain []TypeKey
}

func (e ErrCannotResolveParameter) Error() string {
	return fmt.Sprintf("di: cannot resolve parameter %q of %s: %s", e.Parameter, e.Key, chainString(e.Chain))
}

// ErrCircularDependency is returned when the Planner's depth-first walk
// revisits a key already on the stack.
//
// Chain contains the dependency path from the root request to the repeated
// key, which appears twice: where the cycle begins and at the end.
type ErrCircularDependency struct {
	Chain []TypeKey
}

func (e ErrCircularDependency) Error() string {
	names := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		names[i] = k.String()
	}
	return fmt.Sprintf("di: circular dependency detected: %s", strings.Join(names, " -> "))
}

// ErrMissingType is returned when a factory was registered without an
// explicit key and without a return-type declaration the Introspector can
// use to infer one.
type ErrMissingType struct {
	// Factory names the registration that lacks a usable return type.
	Factory string
}

func (e ErrMissingType) Error() string {
	return fmt.Sprintf("di: factory %s has no inferrable return type; register with an explicit key", e.Factory)
}

// ErrFactoryMissingContext is returned when a deferred (string/forward)
// type reference captured by a factory's defining scope cannot be resolved
// at planning time.
type ErrFactoryMissingContext struct {
	// Factory names the registration whose captured scope is incomplete.
	Factory string
	// Reference is the unresolved forward-reference name.
	Reference string
}

func (e ErrFactoryMissingContext) Error() string {
	return fmt.Sprintf("di: factory %s cannot resolve deferred reference %q in its captured scope", e.Factory, e.Reference)
}

// ErrOverridingService is returned when register collides with an existing
// Registration and no override flag was supplied.
type ErrOverridingService struct {
	// Key is the TypeKey that already has a Registration.
	Key TypeKey
}

func (e ErrOverridingService) Error() string {
	return fmt.Sprintf("di: %s is already registered; pass WithOverride() to replace it", e.Key)
}

// ErrResolutionFailed wraps an error raised by user code -- a factory or a
// constructor function -- during Activator execution.
//
// Use [errors.Unwrap] or the Unwrap method to get the underlying error.
type ErrResolutionFailed struct {
	// Key is the key whose builder raised Cause.
	Key TypeKey
	// Cause is the underlying error returned by the factory/constructor.
	Cause error
}

func (e ErrResolutionFailed) Error() string {
	return fmt.Sprintf("di: failed to build %s: %v", e.Key, e.Cause)
}

// Unwrap returns the underlying error that caused the resolution failure.
func (e ErrResolutionFailed) Unwrap() error {
	return e.Cause
}

// ErrInvalidFactory is returned at registration time when a factory or
// constructor function has a signature the Introspector cannot accept or a
// concrete type does not satisfy the key it is registered under, and at
// resolve time when a Scoped registration is activated without an
// ActivationScope.
type ErrInvalidFactory struct {
	// Key is the target key the factory was supposed to build.
	Key TypeKey
	// Message describes why the factory is invalid.
	Message string
}

func (e ErrInvalidFactory) Error() string {
	return fmt.Sprintf("di: invalid factory for %s: %s", e.Key, e.Message)
}

func chainString(chain []TypeKey) string {
	if len(chain) == 0 {
		return "(root)"
	}
	names := make([]string, len(chain))
	for i, k := range chain {
		names[i] = k.String()
	}
	return strings.Join(names, " -> ")
}
