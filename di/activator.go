package di

import "reflect"

// activateNode executes a single PlanNode: applying lifetime caching, then
// dispatching to the Builder that actually produces the value. A none node
// (an Optional(T) whose T is unregistered) is intercepted before
// activateNode is called -- by activateEdge for a dependency and by
// Provider.resolveIn for a root -- so activateNode itself never sees a
// none node in practice.
//
// parentType is the concrete type of whichever node is pulling node in as a
// dependency -- nil at the root of a resolution -- forwarded to a
// context-aware factory as its activating-type argument and pushed onto
// scope's activating-type stack for the duration of the build, so a
// factory that calls back into scope.Get sees the same parent.
func activateNode(p *Provider, scope *ActivationScope, node *PlanNode, parentType reflect.Type) (reflect.Value, error) {
	id := node.Key.ID()

	switch node.Lifetime {
	case Singleton:
		if v, ok := p.singletonCached(id); ok {
			return v, nil
		}
	case Scoped:
		if scope == nil {
			return reflect.Value{}, ErrInvalidFactory{Key: node.Key, Message: "scoped type resolved without an ActivationScope"}
		}
		if cached, ok := scope.cached(id); ok {
			return cached.(reflect.Value), nil
		}
	}

	if scope != nil {
		scope.pushActivating(parentType)
		defer scope.popActivating()
	}

	v, err := buildNode(p, scope, node, parentType)
	if err != nil {
		return reflect.Value{}, err
	}

	switch node.Lifetime {
	case Singleton:
		p.singletonStore(id, v)
	case Scoped:
		scope.store(id, v)
	}
	return v, nil
}

func buildNode(p *Provider, scope *ActivationScope, node *PlanNode, activatingType reflect.Type) (reflect.Value, error) {
	switch node.Builder.kind {
	case BuilderInstance:
		return reflect.ValueOf(node.Builder.instance), nil
	case BuilderFactory:
		return callFactory(node.Builder, scope, node.Key, activatingType)
	case BuilderConcreteType:
		return buildConcrete(p, scope, node)
	default:
		return reflect.Value{}, ErrInvalidFactory{Key: node.Key, Message: "unknown builder kind"}
	}
}

// callFactory invokes a registered factory callable. activatingType is the
// parent's concrete type -- not the factory's own registered key -- since
// the arity-2 shape exists precisely so a factory can tell which dependency
// site it is filling.
func callFactory(b Builder, scope *ActivationScope, key TypeKey, activatingType reflect.Type) (reflect.Value, error) {
	var args []reflect.Value
	switch b.factoryType.NumIn() {
	case 1:
		args = []reflect.Value{reflect.ValueOf(scope)}
	case 2:
		args = []reflect.Value{reflect.ValueOf(scope), reflectTypeValue(activatingType)}
	}
	out := b.factory.Call(args)
	return splitResult(out, key)
}

// reflectTypeValue wraps t as a reflect.Value of static type reflect.Type,
// including the nil case -- reflect.ValueOf(t) alone produces an invalid
// Value when t is a nil reflect.Type, since a nil interface carries no
// concrete type to reflect on.
func reflectTypeValue(t reflect.Type) reflect.Value {
	if t == nil {
		return reflect.Zero(reflectTypeType)
	}
	return reflect.ValueOf(t)
}

// splitResult normalizes a builder's (T) or (T, error) return into a
// single reflect.Value, surfacing a non-nil error as ErrResolutionFailed.
func splitResult(out []reflect.Value, key TypeKey) (reflect.Value, error) {
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, ErrResolutionFailed{Key: key, Cause: out[1].Interface().(error)}
	}
	return out[0], nil
}

// buildConcrete allocates node's concrete type -- via its constructor if
// one was registered, or a bare zero-value allocation otherwise -- then
// injects attribute-field edges left over after constructor binding.
func buildConcrete(p *Provider, scope *ActivationScope, node *PlanNode) (reflect.Value, error) {
	b := node.Builder
	var result reflect.Value

	subject := nodeSubjectType(node)

	if b.ctor != nil {
		args := make([]reflect.Value, len(node.ConstructorEdges))
		for i, edge := range node.ConstructorEdges {
			v, err := activateEdge(p, scope, edge, subject)
			if err != nil {
				return reflect.Value{}, err
			}
			args[i] = v
		}
		out := b.ctor.Call(args)
		built, err := splitResult(out, node.Key)
		if err != nil {
			return reflect.Value{}, err
		}
		result = built
	} else if b.concreteType.Kind() == reflect.Ptr {
		result = reflect.New(b.concreteType.Elem())
	} else {
		result = reflect.New(b.concreteType).Elem()
	}

	if len(node.AttributeEdges) == 0 {
		return result, nil
	}

	isPtrResult := result.Kind() == reflect.Ptr
	var ptr reflect.Value
	switch {
	case isPtrResult:
		ptr = result
	case result.CanAddr():
		ptr = result.Addr()
	default:
		ptr = reflect.New(result.Type())
		ptr.Elem().Set(result)
	}

	elem := ptr.Elem()
	for _, edge := range node.AttributeEdges {
		v, err := activateEdge(p, scope, edge, subject)
		if err != nil {
			return reflect.Value{}, err
		}
		elem.FieldByName(edge.Name).Set(v)
	}

	if isPtrResult {
		return ptr, nil
	}
	return elem, nil
}

// nodeSubjectType is the concrete type node's own edges should report as
// their activating type: the constructed type for a ConcreteType builder,
// or the registered key's type for a factory/instance builder.
func nodeSubjectType(node *PlanNode) reflect.Type {
	if node.Builder.kind == BuilderConcreteType {
		return node.Builder.concreteType
	}
	return node.Key.Type()
}

var unionValueType = reflect.TypeOf(UnionValue{})

// activateEdge resolves one Edge to the reflect.Value its TargetType
// expects, materializing Optional[T]/UnionValue boxing where the edge's
// declared field or parameter type calls for it. parentType is forwarded
// to the child's own activation as its activating type.
func activateEdge(p *Provider, scope *ActivationScope, edge Edge, parentType reflect.Type) (reflect.Value, error) {
	if edge.Child.none {
		return reflect.New(edge.TargetType).Elem(), nil
	}

	raw, err := activateNode(p, scope, edge.Child, parentType)
	if err != nil {
		return reflect.Value{}, err
	}

	if edge.Mode == EdgeOptionalNoneOnMiss {
		return wrapOptional(edge.TargetType, raw), nil
	}
	if edge.TargetType == unionValueType {
		return reflect.ValueOf(UnionValue{Value: raw.Interface()}), nil
	}
	return convertTo(raw, edge.TargetType), nil
}

func wrapOptional(t reflect.Type, raw reflect.Value) reflect.Value {
	v := reflect.New(t).Elem()
	v.Field(0).Set(convertTo(raw, v.Field(0).Type()))
	v.Field(1).SetBool(true)
	return v
}

func convertTo(raw reflect.Value, target reflect.Type) reflect.Value {
	if raw.Type().AssignableTo(target) {
		return raw
	}
	if target.Kind() == reflect.Interface && raw.Type().Implements(target) {
		return raw
	}
	return raw.Convert(target)
}
