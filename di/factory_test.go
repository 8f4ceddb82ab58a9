package di_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pegasusheavy/reflectdi/di"
)

type factoryWidget struct{ n int }

type factoryGadget struct {
	widget *factoryWidget
}

func TestFactoryArityZeroReceivesNoArguments(t *testing.T) {
	reg := di.NewRegistry()
	if err := reg.AddTransientByFactory(di.ConcreteOf[*factoryWidget](), func() *factoryWidget {
		return &factoryWidget{n: 7}
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	w, err := di.Get[*factoryWidget](provider)
	if err != nil {
		t.Fatal(err)
	}
	if w.n != 7 {
		t.Fatalf("got n=%d, want 7", w.n)
	}
}

func TestFactoryArityOneReceivesScope(t *testing.T) {
	reg := di.NewRegistry()
	var gotScope *di.ActivationScope
	if err := reg.AddScopedByFactory(di.ConcreteOf[*factoryWidget](), func(scope *di.ActivationScope) *factoryWidget {
		gotScope = scope
		return &factoryWidget{n: 1}
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()
	scope := provider.CreateScope()
	defer scope.Close()

	if _, err := di.GetIn[*factoryWidget](scope); err != nil {
		t.Fatal(err)
	}
	if gotScope != scope {
		t.Fatalf("factory did not receive the activating scope")
	}
}

// TestFactoryArityTwoReceivesParentTypeNotOwnKey is the regression test for
// the activating-type bug: a factory registered under Concrete(factoryWidget)
// but injected as factoryGadget's constructor parameter must see
// factoryGadget as its activating type, never its own registered type.
func TestFactoryArityTwoReceivesParentTypeNotOwnKey(t *testing.T) {
	reg := di.NewRegistry()
	var gotActivatingType reflect.Type
	if err := reg.AddTransientByFactory(di.ConcreteOf[*factoryWidget](), func(scope *di.ActivationScope, activatingType reflect.Type) *factoryWidget {
		gotActivatingType = activatingType
		return &factoryWidget{n: 2}
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddTransient(di.ConcreteOf[*factoryGadget](), func(w *factoryWidget) *factoryGadget {
		return &factoryGadget{widget: w}
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	if _, err := di.Get[*factoryGadget](provider); err != nil {
		t.Fatal(err)
	}
	want := reflect.TypeOf(&factoryGadget{})
	if gotActivatingType != want {
		t.Fatalf("activating type = %v, want %v", gotActivatingType, want)
	}
}

// TestFactoryArityTwoAtRootReceivesNilActivatingType confirms a factory
// resolved directly (not as someone else's dependency) sees a nil
// activating type, since it has no parent.
func TestFactoryArityTwoAtRootReceivesNilActivatingType(t *testing.T) {
	reg := di.NewRegistry()
	gotActivatingType := reflect.TypeOf(0) // sentinel, overwritten if factory runs
	if err := reg.AddTransientByFactory(di.ConcreteOf[*factoryWidget](), func(scope *di.ActivationScope, activatingType reflect.Type) *factoryWidget {
		gotActivatingType = activatingType
		return &factoryWidget{n: 3}
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	if _, err := di.Get[*factoryWidget](provider); err != nil {
		t.Fatal(err)
	}
	if gotActivatingType != nil {
		t.Fatalf("root-level activating type = %v, want nil", gotActivatingType)
	}
}

type inferredTarget struct{ n int }

func TestAddTransientByFactoryInfersKeyFromReturnType(t *testing.T) {
	reg := di.NewRegistry()
	if err := reg.AddTransientByFactory(di.InferKey, func() *inferredTarget {
		return &inferredTarget{n: 9}
	}); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	v, err := di.Get[*inferredTarget](provider)
	if err != nil {
		t.Fatal(err)
	}
	if v.n != 9 {
		t.Fatalf("got n=%d, want 9", v.n)
	}
}

func TestAddTransientByFactoryInferredWithNoReturnFails(t *testing.T) {
	reg := di.NewRegistry()
	err := reg.AddTransientByFactory(di.InferKey, func() {})
	if err == nil {
		t.Fatal("expected an error")
	}
	var missing di.ErrMissingType
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingType, got %T: %v", err, err)
	}
}

func TestRemoveAliasRetractsCandidate(t *testing.T) {
	reg := di.NewRegistry()
	key := di.ConcreteOf[*factoryWidget]()
	if err := reg.AddAlias("widget", key); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddTransient(key, func() *factoryWidget { return &factoryWidget{} }); err != nil {
		t.Fatal(err)
	}
	provider := reg.BuildProvider()

	if _, err := provider.Get(di.Name("widget")); err != nil {
		t.Fatalf("expected alias lookup to succeed before removal: %v", err)
	}

	if err := reg.RemoveAlias("widget", key); err != nil {
		t.Fatal(err)
	}
	if _, err := provider.Get(di.Name("widget")); err == nil {
		t.Fatalf("expected alias lookup to fail after removal")
	}
}
