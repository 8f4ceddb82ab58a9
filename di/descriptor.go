package di

import (
	"reflect"
	"strconv"
	"strings"
)

// Optional renders an optional dependency site in a statically typed host:
// a struct field or constructor parameter typed Optional[T] resolves to
// Value/Ok=true when T is registered, and a zero Value/Ok=false when it is
// not, without requiring a language-level union type.
type Optional[T any] struct {
	Value T
	Ok    bool
}

func (Optional[T]) isOptionalMarker() {}

type optionalMarker interface{ isOptionalMarker() }

var optionalMarkerType = reflect.TypeOf((*optionalMarker)(nil)).Elem()

// UnionValue renders a dependency site that accepts any one of a declared
// set of member types. Because Go cannot express an arbitrary-arity sum
// type with ordinary generics, an attribute field of type UnionValue
// carries whichever concrete member instance the Planner resolved; the set
// of acceptable members is declared out of band via a DependencyDescriptor
// (see below), not via UnionValue's own Go type.
type UnionValue struct {
	Value any
}

// FieldDependency is a compile-time descriptor for one constructor
// parameter or attribute field dependency. Declaring dependencies this way
// is the "small macro/derive facility that emits a descriptor table at
// compile time" recommended over runtime attribute reflection: it is the
// only way to express Union and Collection dependency sites precisely in a
// statically-typed host language (an Optional[T] field is recognized from
// its struct tag alone).
type FieldDependency struct {
	// Name is the struct field name the resolved value is assigned to.
	Name string
	// Key is the TypeKey of the dependency.
	Key TypeKey
	// Optional marks the edge resolution mode as optional-none-on-miss.
	Optional bool
	// TargetType is the field or parameter's own Go type (Optional[T],
	// UnionValue, or a plain concrete/interface type), used by the
	// Activator to know how to box the resolved value.
	TargetType reflect.Type
}

// DependencyDescriptor lets a concrete type declare its attribute
// dependencies precisely instead of relying on struct-tag reflection. The
// Introspector prefers DIFields() over tag scanning whenever a type
// implements it.
type DependencyDescriptor interface {
	DIFields() []FieldDependency
}

var dependencyDescriptorType = reflect.TypeOf((*DependencyDescriptor)(nil)).Elem()

// attributeFields returns the ordered attribute-dependency descriptors for
// concreteType: the constructed type's own DIFields() if it implements
// DependencyDescriptor, base-class (embedded struct) declarations first and
// the outer type's own declarations last (narrower wins on name
// collision), otherwise a scan of exported struct fields tagged
// `di:"inject"`.
func attributeFields(concreteType reflect.Type) ([]FieldDependency, error) {
	t := concreteType
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if reflect.PointerTo(t).Implements(dependencyDescriptorType) {
		zero := reflect.New(t).Interface().(DependencyDescriptor)
		return zero.DIFields(), nil
	}
	if t.Implements(dependencyDescriptorType) {
		zero := reflect.New(t).Elem().Interface().(DependencyDescriptor)
		return zero.DIFields(), nil
	}

	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	return scanTaggedFields(t), nil
}

// scanTaggedFields walks t's fields in declaration order, embedded
// (anonymous) struct fields first so that a subclass-equivalent
// declaration later in the list overrides a base declaration of the same
// name.
func scanTaggedFields(t reflect.Type) []FieldDependency {
	var base, own []FieldDependency
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			base = append(base, scanTaggedFields(f.Type)...)
			continue
		}
		tag, ok := f.Tag.Lookup("di")
		if !ok || !f.IsExported() {
			continue
		}
		dep := fieldDependencyFromTag(f, tag)
		own = append(own, dep)
	}
	merged := mergeByName(base, own)
	return merged
}

func mergeByName(base, own []FieldDependency) []FieldDependency {
	ownNames := make(map[string]bool, len(own))
	for _, d := range own {
		ownNames[d.Name] = true
	}
	result := make([]FieldDependency, 0, len(base)+len(own))
	for _, d := range base {
		if !ownNames[d.Name] {
			result = append(result, d)
		}
	}
	result = append(result, own...)
	return result
}

func fieldDependencyFromTag(f reflect.StructField, tag string) FieldDependency {
	parts := strings.Split(tag, ",")
	dep := FieldDependency{Name: f.Name, TargetType: f.Type}

	aliasName := ""
	for _, p := range parts[1:] {
		if p == "optional" {
			dep.Optional = true
		}
		if strings.HasPrefix(p, "name=") {
			aliasName = strings.TrimPrefix(p, "name=")
		}
	}

	ft := f.Type
	if ft.Implements(optionalMarkerType) {
		inner := ft.Field(0).Type // Optional[T].Value
		dep.Key = Optional(Concrete(inner))
		dep.Optional = true
		return dep
	}

	if ft == reflect.TypeOf(UnionValue{}) {
		// Union members cannot be inferred from the field's own Go type;
		// callers needing a precise Union(...) key should implement
		// DependencyDescriptor instead. A bare `di:"inject"` UnionValue
		// field falls back to name-based alias resolution.
		dep.Key = Name(nameOrField(aliasName, f.Name))
		return dep
	}

	if isUntyped(ft) {
		dep.Key = Name(nameOrField(aliasName, f.Name))
		return dep
	}

	dep.Key = Concrete(ft)
	return dep
}

func nameOrField(alias, field string) string {
	if alias != "" {
		return alias
	}
	return field
}

// isUntyped reports whether ft carries no usable type information for
// resolution: a bare `any`/interface{} field with no methods cannot pick
// out a registration by type, so it falls back to the alias table by name.
func isUntyped(ft reflect.Type) bool {
	return ft.Kind() == reflect.Interface && ft.NumMethod() == 0
}

// constructorParams returns the ordered dependency keys for a constructor
// function's parameters. Every Go function parameter carries a static
// type, so -- unlike attribute fields -- there is no untyped/alias-fallback
// case here; an Optional[T] parameter still yields an Optional edge.
func constructorParams(ctorType reflect.Type) []FieldDependency {
	params := make([]FieldDependency, ctorType.NumIn())
	for i := 0; i < ctorType.NumIn(); i++ {
		t := ctorType.In(i)
		if t.Implements(optionalMarkerType) {
			inner := t.Field(0).Type
			params[i] = FieldDependency{Name: paramName(i), Key: Optional(Concrete(inner)), Optional: true, TargetType: t}
			continue
		}
		params[i] = FieldDependency{Name: paramName(i), Key: Concrete(t), TargetType: t}
	}
	return params
}

func paramName(i int) string {
	return "arg" + strconv.Itoa(i)
}
