package di_test

import (
	"errors"
	"testing"

	"github.com/pegasusheavy/reflectdi/di"
)

type undeclared struct{}

func TestErrCannotResolveTypeCarriesConcreteKey(t *testing.T) {
	reg := di.NewRegistry()
	provider := reg.BuildProvider()

	_, err := di.Get[*undeclared](provider)
	if err == nil {
		t.Fatal("expected an error")
	}
	var notResolved di.ErrCannotResolveType
	if !errors.As(err, &notResolved) {
		t.Fatalf("expected ErrCannotResolveType, got %T: %v", err, err)
	}
	if notResolved.Key.Kind() != di.KindConcrete {
		t.Fatalf("expected the unresolved key to be Concrete, got %s", notResolved.Key.Kind())
	}
}

type failingFactoryTarget struct{}

func TestErrResolutionFailedUnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	reg := di.NewRegistry()
	if err := reg.AddTransientByFactory(di.ConcreteOf[*failingFactoryTarget](), func() (*failingFactoryTarget, error) {
		return nil, cause
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	_, err := di.Get[*failingFactoryTarget](provider)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause, got %v", err)
	}
}

func TestErrOverridingServiceWithoutWithOverride(t *testing.T) {
	reg := di.NewRegistry()
	key := di.ConcreteOf[*undeclared]()
	if err := reg.AddSingleton(key, func() *undeclared { return &undeclared{} }); err != nil {
		t.Fatal(err)
	}
	err := reg.AddSingleton(key, func() *undeclared { return &undeclared{} })
	var overriding di.ErrOverridingService
	if !errors.As(err, &overriding) {
		t.Fatalf("expected ErrOverridingService, got %T: %v", err, err)
	}
}

func TestWithOverrideReplacesAnExistingRegistration(t *testing.T) {
	reg := di.NewRegistry()
	key := di.ConcreteOf[*undeclared]()
	if err := reg.AddSingleton(key, func() *undeclared { return &undeclared{} }); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddSingleton(key, func() *undeclared { return &undeclared{} }, di.WithOverride()); err != nil {
		t.Fatalf("WithOverride should permit replacing an existing registration: %v", err)
	}
}
