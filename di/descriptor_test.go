package di

import (
	"reflect"
	"testing"
)

type baseWithLogger struct {
	Logger fakeLogger `di:"inject"`
}

type taggedService struct {
	baseWithLogger
	Cache    any           `di:"inject,name=cache"`
	Optional Optional[int] `di:"inject"`
	Override fakeLogger    `di:"inject,name=override_logger"`
}

func TestScanTaggedFieldsOrderingAndOverride(t *testing.T) {
	deps := scanTaggedFields(reflect.TypeOf(taggedService{}))

	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	want := []string{"Logger", "Cache", "Optional", "Override"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

type overridingService struct {
	baseWithLogger
	// same field name as the base declaration: must replace it, not duplicate it
	Logger fakeLogger `di:"inject,name=special_logger"`
}

func TestScanTaggedFieldsSubclassOverridesBase(t *testing.T) {
	deps := scanTaggedFields(reflect.TypeOf(overridingService{}))
	if len(deps) != 1 {
		t.Fatalf("expected exactly one Logger dependency after override, got %d", len(deps))
	}
	if deps[0].Name != "Logger" {
		t.Fatalf("expected the merged dependency to still be named Logger, got %q", deps[0].Name)
	}
}

func TestFieldDependencyFromTagOptional(t *testing.T) {
	f, _ := reflect.TypeOf(taggedService{}).FieldByName("Optional")
	dep := fieldDependencyFromTag(f, "inject")
	if !dep.Optional {
		t.Fatalf("Optional[T] field must set Optional=true")
	}
	if dep.Key.Kind() != KindUnion {
		t.Fatalf("Optional[T] field key should be a Union(T, None)")
	}
}

func TestFieldDependencyFromTagUntypedFallsBackToName(t *testing.T) {
	f, _ := reflect.TypeOf(taggedService{}).FieldByName("Cache")
	dep := fieldDependencyFromTag(f, "inject,name=cache")
	if dep.Key.Kind() != KindName {
		t.Fatalf("an untyped any field must resolve by alias name")
	}
	if v, _ := dep.Key.NameValue(); v != "cache" {
		t.Fatalf("expected alias name 'cache', got %q", v)
	}
}

type describedService struct {
	logger fakeLogger
}

func (s *describedService) DIFields() []FieldDependency {
	return []FieldDependency{{Name: "logger", Key: ConcreteOf[fakeLogger]()}}
}

func TestAttributeFieldsPrefersDependencyDescriptor(t *testing.T) {
	deps, err := attributeFields(reflect.TypeOf(describedService{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps) != 1 || deps[0].Name != "logger" {
		t.Fatalf("expected the explicit DIFields() descriptor to be used, got %v", deps)
	}
}

func TestConstructorParamsOptionalDetection(t *testing.T) {
	ctor := func(l fakeLogger, c Optional[int]) string { return "" }
	params := constructorParams(reflect.TypeOf(ctor))
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	if params[0].Optional {
		t.Fatalf("plain parameter must not be marked optional")
	}
	if !params[1].Optional || params[1].Key.Kind() != KindUnion {
		t.Fatalf("Optional[int] parameter should be detected as an optional Union edge")
	}
}
