package di

import (
	"reflect"
	"strings"
)

// EdgeMode describes how an Edge's child failed or succeeded to resolve
// when its declared type is Optional.
type EdgeMode int

const (
	// EdgeRequired fails planning if the child key cannot be resolved.
	EdgeRequired EdgeMode = iota
	// EdgeOptionalNoneOnMiss binds to a None sentinel instead of failing
	// when the declared Optional(T)'s T has no registration.
	EdgeOptionalNoneOnMiss
)

// Edge connects a parent PlanNode to one constructor parameter or
// attribute-field dependency.
type Edge struct {
	Name       string
	Child      *PlanNode
	Mode       EdgeMode
	Attribute  bool
	TargetType reflect.Type
}

// PlanNode is one node of a compiled ActivationPlan: a TypeKey, its
// Lifetime, its Builder, and its child edges. Shared subnodes (e.g. two
// constructor parameters of the same Scoped type) appear once in the plan
// and are referenced by multiple edges, so the Activator naturally
// materializes a single instance within one activation.
type PlanNode struct {
	Key            TypeKey
	Lifetime       Lifetime
	Builder        Builder
	ConstructorEdges []Edge
	AttributeEdges   []Edge

	// none is true for the synthetic node bound when an Optional(T)'s T
	// has no registration; Builder/edges are unused in that case.
	none bool
}

// ActivationPlan is the compiled, cached DAG the Activator executes for a
// given root TypeKey.
type ActivationPlan struct {
	Root *PlanNode
}

// Describe renders the plan as an indented tree: node key, lifetime,
// builder kind, and edges. Useful for debugging registration graphs.
func (p *ActivationPlan) Describe() string {
	var b strings.Builder
	describeNode(&b, p.Root, 0, map[*PlanNode]bool{})
	return b.String()
}

func describeNode(b *strings.Builder, n *PlanNode, depth int, seen map[*PlanNode]bool) {
	indent := strings.Repeat("  ", depth)
	if n.none {
		b.WriteString(indent + "None\n")
		return
	}
	b.WriteString(indent + n.Key.String() + " [" + n.Lifetime.String() + ", " + builderKindString(n.Builder.kind) + "]")
	if seen[n] {
		b.WriteString(" (shared)\n")
		return
	}
	seen[n] = true
	b.WriteString("\n")
	for _, e := range n.ConstructorEdges {
		b.WriteString(indent + "  ctor:" + e.Name + " ->\n")
		describeNode(b, e.Child, depth+2, seen)
	}
	for _, e := range n.AttributeEdges {
		b.WriteString(indent + "  attr:" + e.Name + " ->\n")
		describeNode(b, e.Child, depth+2, seen)
	}
}

func builderKindString(k BuilderKind) string {
	switch k {
	case BuilderConcreteType:
		return "ConcreteType"
	case BuilderFactory:
		return "Factory"
	case BuilderInstance:
		return "Instance"
	default:
		return "?"
	}
}

// planner compiles a single root TypeKey into an ActivationPlan via a
// depth-first walk of the Registry, detecting cycles and caching nodes
// already compiled within this invocation so a key reachable through two
// distinct edges is installed once and referenced twice.
type planner struct {
	registry *Registry
	visiting map[string]bool
	compiled map[string]*PlanNode
	chain    []TypeKey
}

func compilePlan(r *Registry, root TypeKey) (*ActivationPlan, error) {
	p := &planner{
		registry: r,
		visiting: make(map[string]bool),
		compiled: make(map[string]*PlanNode),
	}
	node, err := p.plan(root)
	if err != nil {
		return nil, err
	}
	logPlanCompiled(root)
	return &ActivationPlan{Root: node}, nil
}

func (p *planner) plan(key TypeKey) (*PlanNode, error) {
	id := key.ID()
	if node, ok := p.compiled[id]; ok {
		return node, nil
	}
	if p.visiting[id] {
		chain := append(append([]TypeKey{}, p.chain...), key)
		return nil, ErrCircularDependency{Chain: chain}
	}

	reg, ok := p.registry.lookup(id)
	if !ok {
		node, err := p.planUnregistered(key)
		if err != nil {
			return nil, err
		}
		p.compiled[id] = node
		return node, nil
	}

	p.visiting[id] = true
	p.chain = append(p.chain, key)

	node := &PlanNode{Key: key, Lifetime: reg.Lifetime, Builder: reg.Builder}

	var err error
	switch reg.Builder.kind {
	case BuilderConcreteType:
		err = p.planConcrete(node, reg.Builder)
	case BuilderFactory, BuilderInstance:
		// No child edges: factories resolve their own dependencies via
		// the ActivationScope they are handed, and instances are leaves.
	}

	p.chain = p.chain[:len(p.chain)-1]
	p.visiting[id] = false

	if err != nil {
		return nil, err
	}

	p.compiled[id] = node
	return node, nil
}

func (p *planner) planUnregistered(key TypeKey) (*PlanNode, error) {
	if elem, isOpt := key.OptionalElem(); isOpt {
		if p.registry.Contains(elem) {
			child, err := p.plan(elem)
			if err != nil {
				return nil, err
			}
			return child, nil
		}
		return &PlanNode{Key: key, none: true}, nil
	}

	if name, isName := key.NameValue(); isName {
		if cand, ok := p.registry.aliasLookup(name); ok {
			return p.plan(cand)
		}
	}

	return nil, ErrCannotResolveType{Key: key}
}

// planConcrete populates node's constructor and attribute edges for a
// BuilderConcreteType registration: constructor parameters first in
// declaration order, then attribute fields in descriptor order (base
// declarations first, subclass overrides last).
func (p *planner) planConcrete(node *PlanNode, b Builder) error {
	concreteType := b.concreteType

	var ctorNames map[string]bool
	if b.ctor != nil {
		params := constructorParams(b.ctorType)
		ctorNames = make(map[string]bool, len(params))
		for _, dep := range params {
			edge, err := p.buildEdge(node.Key, dep, false)
			if err != nil {
				return err
			}
			node.ConstructorEdges = append(node.ConstructorEdges, edge)
			ctorNames[dep.Name] = true
		}
	}

	attrs, err := attributeFields(concreteType)
	if err != nil {
		return err
	}
	for _, dep := range attrs {
		if ctorNames[dep.Name] {
			// Constructor wins on name collision; attribute edge dropped.
			continue
		}
		edge, err := p.buildEdge(node.Key, dep, true)
		if err != nil {
			return err
		}
		node.AttributeEdges = append(node.AttributeEdges, edge)
	}
	return nil
}

func (p *planner) buildEdge(parent TypeKey, dep FieldDependency, attribute bool) (Edge, error) {
	child, err := p.plan(dep.Key)
	if err != nil {
		if _, isUnresolved := err.(ErrCannotResolveType); isUnresolved {
			return Edge{}, ErrCannotResolveParameter{
				Key:       parent,
				Parameter: dep.Name,
				Chain:     append(append([]TypeKey{}, p.chain...), dep.Key),
			}
		}
		return Edge{}, err
	}
	mode := EdgeRequired
	if dep.Optional {
		mode = EdgeOptionalNoneOnMiss
	}
	return Edge{Name: dep.Name, Child: child, Mode: mode, Attribute: attribute, TargetType: dep.TargetType}, nil
}
