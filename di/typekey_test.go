package di

import (
	"reflect"
	"testing"
)

type fakeLogger interface{ Log(string) }

type fakeRepo[T any] struct{ item T }

func TestConcreteKeyIdentity(t *testing.T) {
	a := ConcreteOf[fakeLogger]()
	b := ConcreteOf[fakeLogger]()
	if !a.Equal(b) {
		t.Fatalf("two Concrete keys for the same type should be equal")
	}
	if a.Kind() != KindConcrete {
		t.Fatalf("expected KindConcrete, got %s", a.Kind())
	}
}

func TestParameterizedKeyDoesNotEqualPlainConcrete(t *testing.T) {
	plain := ConcreteOf[fakeRepo[int]]()
	param := ParameterizedOf[fakeRepo[int]](reflect.TypeOf(0))

	if plain.Equal(param) {
		t.Fatalf("a Parameterized key must never equal a plain Concrete key of the same erased type")
	}
	if param.Kind() != KindParameterized {
		t.Fatalf("expected KindParameterized, got %s", param.Kind())
	}
}

func TestParameterizedKeyStructuralEquality(t *testing.T) {
	a := Parameterized(reflect.TypeOf(fakeRepo[int]{}), "fakeRepo", Concrete(reflect.TypeOf(0)))
	b := Parameterized(reflect.TypeOf(fakeRepo[int]{}), "fakeRepo", Concrete(reflect.TypeOf(0)))
	c := Parameterized(reflect.TypeOf(fakeRepo[int]{}), "fakeRepo", Concrete(reflect.TypeOf("")))

	if !a.Equal(b) {
		t.Fatalf("structurally identical Parameterized keys should be equal")
	}
	if a.Equal(c) {
		t.Fatalf("Parameterized keys with different args should not be equal")
	}
}

func TestParseGenericName(t *testing.T) {
	cases := []struct {
		name     string
		wantBase string
		wantArgs []string
	}{
		{"Repo[main.Product]", "Repo", []string{"main.Product"}},
		{"Pair[int,string]", "Pair", []string{"int", "string"}},
		{"Box[Repo[int]]", "Box", []string{"Repo[int]"}},
		{"PlainType", "PlainType", nil},
	}
	for _, c := range cases {
		base, args := parseGenericName(c.name)
		if base != c.wantBase {
			t.Errorf("parseGenericName(%q) base = %q, want %q", c.name, base, c.wantBase)
		}
		if len(args) != len(c.wantArgs) {
			t.Errorf("parseGenericName(%q) args = %v, want %v", c.name, args, c.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != c.wantArgs[i] {
				t.Errorf("parseGenericName(%q) args[%d] = %q, want %q", c.name, i, args[i], c.wantArgs[i])
			}
		}
	}
}

func TestUnionKeyIdentity(t *testing.T) {
	a := Union(ConcreteOf[int](), ConcreteOf[string]())
	b := Union(ConcreteOf[string](), ConcreteOf[int]())
	single := ConcreteOf[int]()

	if !a.Equal(b) {
		t.Fatalf("Union member order must not affect identity")
	}
	if Union(ConcreteOf[int]()).Equal(single) {
		t.Fatalf("Union({A}) must not equal A")
	}
}

func TestOptionalElem(t *testing.T) {
	opt := Optional(ConcreteOf[int]())
	elem, ok := opt.OptionalElem()
	if !ok || !elem.Equal(ConcreteOf[int]()) {
		t.Fatalf("OptionalElem should recover the wrapped key")
	}

	if _, ok := ConcreteOf[int]().OptionalElem(); ok {
		t.Fatalf("a plain Concrete key is not Optional")
	}
}

func TestNameKeyRoundTrip(t *testing.T) {
	n := Name("widget")
	v, ok := n.NameValue()
	if !ok || v != "widget" {
		t.Fatalf("NameValue() = (%q, %v), want (\"widget\", true)", v, ok)
	}
}

func TestCollectionKeyID(t *testing.T) {
	a := Collection(CollectionSlice, ConcreteOf[int]())
	b := Collection(CollectionSlice, ConcreteOf[int]())
	c := Collection(CollectionSet, ConcreteOf[int]())

	if !a.Equal(b) {
		t.Fatalf("identical Collection keys should be equal")
	}
	if a.Equal(c) {
		t.Fatalf("different CollectionKind should not be equal")
	}
}
