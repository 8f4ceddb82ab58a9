package di_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasusheavy/reflectdi/di"
)

type clock struct{ tick int }

func TestSingletonIsSharedAcrossResolves(t *testing.T) {
	reg := di.NewRegistry()
	n := 0
	require.NoError(t, reg.AddSingleton(di.ConcreteOf[*clock](), func() *clock {
		n++
		return &clock{tick: n}
	}))
	provider := reg.BuildProvider()

	a, err := di.Get[*clock](provider)
	require.NoError(t, err)
	b, err := di.Get[*clock](provider)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, n)
}

type widget struct{}

func TestSetRejectsAnExistingRegistration(t *testing.T) {
	reg := di.NewRegistry()
	require.NoError(t, reg.AddSingleton(di.ConcreteOf[*widget](), func() *widget { return &widget{} }))
	provider := reg.BuildProvider()

	builder := di.InstanceBuilder(&widget{})
	err := provider.Set(di.ConcreteOf[*widget](), builder, di.Singleton)

	var overriding di.ErrOverridingService
	require.ErrorAs(t, err, &overriding)
}

type gadget struct{}

func TestSetAddsANewKeyWithoutInvalidatingExistingSingletons(t *testing.T) {
	reg := di.NewRegistry()
	n := 0
	require.NoError(t, reg.AddSingleton(di.ConcreteOf[*clock](), func() *clock {
		n++
		return &clock{tick: n}
	}))
	provider := reg.BuildProvider()

	first, err := di.Get[*clock](provider)
	require.NoError(t, err)

	require.NoError(t, provider.Set(di.ConcreteOf[*gadget](), di.InstanceBuilder(&gadget{}), di.Singleton))

	second, err := di.Get[*clock](provider)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, n)

	g, err := di.Get[*gadget](provider)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestContainsReflectsRegistrations(t *testing.T) {
	reg := di.NewRegistry()
	key := di.ConcreteOf[*widget]()
	assert.False(t, reg.Contains(key))
	require.NoError(t, reg.AddSingleton(key, func() *widget { return &widget{} }))
	assert.True(t, reg.Contains(key))
}

func TestDescribeRendersEveryEdge(t *testing.T) {
	reg := di.NewRegistry()
	require.NoError(t, reg.AddSingleton(di.ConcreteOf[*widget](), func() *widget { return &widget{} }))

	type assembly struct {
		W *widget
	}
	require.NoError(t, reg.AddTransient(di.ConcreteOf[*assembly](), func(w *widget) *assembly { return &assembly{W: w} }))
	provider := reg.BuildProvider()

	tree, err := provider.Describe(di.ConcreteOf[*assembly]())
	require.NoError(t, err)
	assert.Contains(t, tree, "widget")
}
