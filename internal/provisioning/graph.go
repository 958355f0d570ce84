package provisioning

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Graph orders steps by the bindings they exchange.
type Graph struct {
	steps     []*Step
	order     []*Step
	index     map[string]int
	producers map[string]string
	deps      map[string]sets.Set[string]
}

// BuildGraph links every step input to the step that produces it and sorts
// the steps topologically. Names in provided (definition variables and
// credentials) satisfy inputs without a producing step.
//
// The order is deterministic: among the steps whose dependencies are done,
// the one declared first runs first.
func BuildGraph(steps []*Step, provided ...string) (*Graph, error) {
	g := &Graph{
		steps:     steps,
		index:     make(map[string]int, len(steps)),
		producers: make(map[string]string),
		deps:      make(map[string]sets.Set[string], len(steps)),
	}
	seeds := sets.New(provided...)

	for i, s := range steps {
		if _, dup := g.index[s.Name]; dup {
			return nil, &DuplicateStepError{Name: s.Name}
		}
		g.index[s.Name] = i
	}

	for _, s := range steps {
		for _, o := range s.outputs {
			if seeds.Has(o.Name) {
				return nil, &DuplicateOutputError{Output: o.Name, First: "variables", Second: s.Name}
			}
			if first, dup := g.producers[o.Name]; dup {
				return nil, &DuplicateOutputError{Output: o.Name, First: "step " + first, Second: s.Name}
			}
			g.producers[o.Name] = s.Name
		}
	}

	for _, s := range steps {
		deps := sets.New[string]()
		for _, in := range s.inputs {
			if seeds.Has(in) {
				continue
			}
			producer, ok := g.producers[in]
			if !ok {
				return nil, &UnsatisfiedDependencyError{Step: s.Name, Input: in}
			}
			deps.Insert(producer)
		}
		g.deps[s.Name] = deps
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// sort is Kahn's algorithm picking the earliest-declared ready step.
func (g *Graph) sort() ([]*Step, error) {
	remaining := make(map[string]int, len(g.steps))
	for name, deps := range g.deps {
		remaining[name] = deps.Len()
	}
	done := sets.New[string]()
	order := make([]*Step, 0, len(g.steps))

	for len(order) < len(g.steps) {
		var next *Step
		for _, s := range g.steps {
			if !done.Has(s.Name) && remaining[s.Name] == 0 {
				next = s
				break
			}
		}
		if next == nil {
			return nil, &CyclicDependencyError{Cycle: g.findCycle(done)}
		}

		done.Insert(next.Name)
		order = append(order, next)
		for _, s := range g.steps {
			if g.deps[s.Name].Has(next.Name) {
				remaining[s.Name]--
			}
		}
	}
	return order, nil
}

// findCycle walks the unsorted steps depth-first and returns the first loop
// it meets, starting and ending with the same step.
func (g *Graph) findCycle(sorted sets.Set[string]) []string {
	const (
		unvisited = iota
		onPath
		finished
	)
	state := make(map[string]int)
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = onPath
		path = append(path, name)
		for _, dep := range sets.List(g.deps[name]) {
			if sorted.Has(dep) {
				continue
			}
			switch state[dep] {
			case onPath:
				for i, p := range path {
					if p == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = finished
		return false
	}

	for _, s := range g.steps {
		if !sorted.Has(s.Name) && state[s.Name] == unvisited && visit(s.Name) {
			return cycle
		}
	}
	return nil
}

// Order returns the steps in execution order.
func (g *Graph) Order() []*Step {
	return append([]*Step(nil), g.order...)
}

// Names returns the step names in execution order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.order))
	for i, s := range g.order {
		names[i] = s.Name
	}
	return names
}

// Step returns the named step.
func (g *Graph) Step(name string) (*Step, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.steps[i], true
}

// Dependencies returns the names of the steps that must succeed before
// name, sorted.
func (g *Graph) Dependencies(name string) []string {
	return sets.List(g.deps[name])
}

// Producer returns the step that produces a binding.
func (g *Graph) Producer(binding string) (string, bool) {
	p, ok := g.producers[binding]
	return p, ok
}
