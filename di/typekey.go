package di

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind discriminates the shape of a TypeKey.
type Kind int

const (
	// KindConcrete identifies a key by a single reflect.Type.
	KindConcrete Kind = iota
	// KindParameterized identifies a key by an erased generic base name
	// plus an ordered tuple of argument TypeKeys.
	KindParameterized
	// KindUnion identifies a key by an unordered set of member TypeKeys.
	KindUnion
	// KindName identifies a key by a string alias, consulted only when a
	// dependency site carries no usable type information.
	KindName
	// KindCollection identifies a key as a recognized container shape
	// wrapping a single element TypeKey.
	KindCollection
	// KindNone is the sentinel member of Optional(T) == Union{T, None}.
	KindNone
	// KindInferred is a request-only marker, never actually registered:
	// passed as the key argument to Add*ByFactory to ask that the key be
	// derived from the factory's own return type instead.
	KindInferred
)

func (k Kind) String() string {
	switch k {
	case KindConcrete:
		return "Concrete"
	case KindParameterized:
		return "Parameterized"
	case KindUnion:
		return "Union"
	case KindName:
		return "Name"
	case KindCollection:
		return "Collection"
	case KindNone:
		return "None"
	case KindInferred:
		return "Inferred"
	default:
		return "Unknown"
	}
}

// CollectionKind enumerates the container shapes a Collection key may wrap.
type CollectionKind int

const (
	CollectionSlice CollectionKind = iota
	CollectionSet
	CollectionMap
	CollectionIterable
	CollectionTuple
)

func (c CollectionKind) String() string {
	switch c {
	case CollectionSlice:
		return "slice"
	case CollectionSet:
		return "set"
	case CollectionMap:
		return "map"
	case CollectionIterable:
		return "iterable"
	case CollectionTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

// NoneKey is the sentinel key representing "no value", used internally to
// build Optional(T) as Union({T, NoneKey}).
var NoneKey = TypeKey{kind: KindNone}

// InferKey is passed as the key argument to Add*ByFactory to request that
// the registration key be derived from the factory's own return type
// rather than declared explicitly.
var InferKey = TypeKey{kind: KindInferred}

// TypeKey is the canonical, value-typed identity under which a service is
// registered and looked up. TypeKey is not comparable with == and is
// compared with Equal instead, and used as a map key via its ID() string
// (its slice-valued args/members fields make the struct itself unsuitable
// as a native Go map key).
type TypeKey struct {
	kind Kind

	// KindConcrete / KindParameterized (erased base type used to build)
	typ reflect.Type

	// KindParameterized
	base string
	args []TypeKey

	// KindUnion
	members []TypeKey

	// KindName
	name string

	// KindCollection
	collKind CollectionKind
	elem     *TypeKey

	// free type-variable placeholder; non-empty only inside a
	// Parameterized registration template. A placeholder equals only an
	// identical placeholder, never a concrete substitution.
	placeholder string
}

// Concrete builds a TypeKey identifying a single concrete (or interface)
// Go type.
func Concrete(t reflect.Type) TypeKey {
	return TypeKey{kind: KindConcrete, typ: t}
}

// ConcreteOf builds a Concrete TypeKey for T using a type parameter,
// avoiding a throwaway value at call sites.
func ConcreteOf[T any]() TypeKey {
	return Concrete(typeOf[T]())
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Placeholder builds a free type-variable placeholder key, used only as an
// argument inside a Parameterized registration template.
func Placeholder(id string) TypeKey {
	return TypeKey{kind: KindParameterized, placeholder: id}
}

// Parameterized builds a TypeKey for a generic instantiation, e.g.
// Repo[Product]. erased is the fully-instantiated reflect.Type (the type
// actually used to build an instance -- the engine embraces type erasure at
// construction, per design); base is the erased generic's declared name
// (e.g. "Repo"); args are the TypeKeys of the type arguments in declaration
// order.
func Parameterized(erased reflect.Type, base string, args ...TypeKey) TypeKey {
	return TypeKey{kind: KindParameterized, typ: erased, base: base, args: args}
}

// ParameterizedOf derives a Parameterized TypeKey directly from a generic
// instantiation's reflect.Type, splitting its reflect.Type.Name() of the
// form "Base[arg1,arg2]" into a base identifier and argument TypeKeys built
// from the corresponding argument types. This is the Go-native stand-in for
// reflecting over a language's native generic parameterization: Go already
// gives every instantiation a distinct runtime reflect.Type, so there is no
// separate "unparameterized base type" object to inspect.
func ParameterizedOf[T any](argTypes ...reflect.Type) TypeKey {
	erased := typeOf[T]()
	base, _ := parseGenericName(erased.Name())
	args := make([]TypeKey, len(argTypes))
	for i, at := range argTypes {
		args[i] = Concrete(at)
	}
	return TypeKey{kind: KindParameterized, typ: erased, base: base, args: args}
}

// parseGenericName splits a reflect.Type.Name() of the shape
// "Base[pkg.Arg1,pkg.Arg2]" into ("Base", ["pkg.Arg1", "pkg.Arg2"]),
// respecting nested brackets. Non-generic names are returned unchanged with
// a nil argument list.
func parseGenericName(name string) (string, []string) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, nil
	}
	base := name[:open]
	inner := name[open+1 : len(name)-1]

	var args []string
	depth := 0
	start := 0
	for i, r := range inner {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, inner[start:i])
				start = i + 1
			}
		}
	}
	if start < len(inner) {
		args = append(args, inner[start:])
	}
	return base, args
}

// Union builds a TypeKey treating the given members as a single unordered
// set key. Two Union keys are equal iff their member sets are equal;
// Union({A}) is NOT equal to A.
func Union(members ...TypeKey) TypeKey {
	return TypeKey{kind: KindUnion, members: members}
}

// Optional is syntactic sugar for Union({T, NoneKey}).
func Optional(t TypeKey) TypeKey {
	return Union(t, NoneKey)
}

// OptionalElem returns the non-None member of an Optional(T) key and true,
// or the zero TypeKey and false if k is not an Optional.
func (k TypeKey) OptionalElem() (TypeKey, bool) {
	if k.kind != KindUnion || len(k.members) != 2 {
		return TypeKey{}, false
	}
	a, b := k.members[0], k.members[1]
	switch {
	case a.kind == KindNone:
		return b, true
	case b.kind == KindNone:
		return a, true
	default:
		return TypeKey{}, false
	}
}

// Name builds a string-alias TypeKey, matched only when a dependency site
// lacks a type declaration.
func Name(s string) TypeKey {
	return TypeKey{kind: KindName, name: s}
}

// Collection builds a TypeKey for a recognized container shape. Collection
// registrations are satisfied as a whole (typically via a factory
// returning the collection); the Planner never synthesizes one by
// enumerating elements.
func Collection(kind CollectionKind, elem TypeKey) TypeKey {
	return TypeKey{kind: KindCollection, collKind: kind, elem: &elem}
}

// Kind reports the TypeKey's variant.
func (k TypeKey) Kind() Kind { return k.kind }

// Type returns the underlying reflect.Type for a Concrete or Parameterized
// key (the erased type, for Parameterized), or nil otherwise.
func (k TypeKey) Type() reflect.Type { return k.typ }

// IsPlaceholder reports whether k is a free type-variable placeholder.
func (k TypeKey) IsPlaceholder() bool { return k.placeholder != "" }

// NameValue returns the alias string for a KindName key and true, or ""
// and false otherwise.
func (k TypeKey) NameValue() (string, bool) {
	if k.kind != KindName {
		return "", false
	}
	return k.name, true
}

// ID returns the canonical structural identity of the key, suitable for use
// as a map key. Two TypeKeys with equal ID are Equal, and vice versa.
func (k TypeKey) ID() string {
	switch k.kind {
	case KindConcrete:
		return "C:" + k.typ.String()
	case KindParameterized:
		if k.placeholder != "" {
			return "T:" + k.placeholder
		}
		parts := make([]string, len(k.args))
		for i, a := range k.args {
			parts[i] = a.ID()
		}
		return fmt.Sprintf("P:%s(%s)", k.base, strings.Join(parts, ","))
	case KindUnion:
		ids := make([]string, len(k.members))
		for i, m := range k.members {
			ids[i] = m.ID()
		}
		sort.Strings(ids)
		return "U:{" + strings.Join(ids, "|") + "}"
	case KindName:
		return "N:" + k.name
	case KindCollection:
		return fmt.Sprintf("L:%s[%s]", k.collKind, k.elem.ID())
	case KindNone:
		return "None"
	default:
		return "?"
	}
}

// Equal reports whether two TypeKeys are structurally identical.
func (k TypeKey) Equal(other TypeKey) bool {
	return k.ID() == other.ID()
}

// String renders a human-readable description of the key, used in error
// messages and plan diagnostics.
func (k TypeKey) String() string {
	switch k.kind {
	case KindConcrete:
		return k.typ.String()
	case KindParameterized:
		if k.placeholder != "" {
			return "~" + k.placeholder
		}
		parts := make([]string, len(k.args))
		for i, a := range k.args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s[%s]", k.base, strings.Join(parts, ","))
	case KindUnion:
		if elem, ok := k.OptionalElem(); ok {
			return "Optional[" + elem.String() + "]"
		}
		parts := make([]string, len(k.members))
		for i, m := range k.members {
			parts[i] = m.String()
		}
		return "Union[" + strings.Join(parts, ",") + "]"
	case KindName:
		return "Name(" + k.name + ")"
	case KindCollection:
		return fmt.Sprintf("%s<%s>", k.collKind, k.elem.String())
	case KindNone:
		return "None"
	default:
		return "?"
	}
}
