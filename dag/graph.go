package dag

import "slices"

// Node is anything that can be placed in the graph.
type Node interface {
	NodeID() string
	Dependencies() []string
}

// Graph is an immutable, validated dependency graph.
type Graph struct {
	nodes      map[string]Node
	declared   []string            // ids in declaration order
	index      map[string]int      // id -> declaration index
	deps       map[string][]string // id -> direct dependencies, deduplicated
	dependents map[string][]string // id -> direct dependents, declaration order
	topo       []string
}

// colour marks DFS progress.
type colour uint8

const (
	unvisited colour = iota
	inProgress
	done
)

// Build validates nodes and returns the graph. Checks run in this order:
// duplicate ids, unknown dependencies, cycles. The first defect found is
// returned and no graph is produced.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]Node, len(nodes)),
		declared:   make([]string, 0, len(nodes)),
		index:      make(map[string]int, len(nodes)),
		deps:       make(map[string][]string, len(nodes)),
		dependents: make(map[string][]string, len(nodes)),
	}

	for _, n := range nodes {
		id := n.NodeID()
		if _, exists := g.nodes[id]; exists {
			return nil, &DuplicateNodeError{ID: id}
		}
		g.index[id] = len(g.declared)
		g.nodes[id] = n
		g.declared = append(g.declared, id)
	}

	for _, id := range g.declared {
		var deps []string
		for _, dep := range g.nodes[id].Dependencies() {
			if _, ok := g.nodes[dep]; !ok {
				return nil, &UnknownDependencyError{From: id, Missing: dep}
			}
			if slices.Contains(deps, dep) {
				continue
			}
			deps = append(deps, dep)
			g.dependents[dep] = append(g.dependents[dep], id)
		}
		g.deps[id] = deps
	}

	topo, cycle := g.sort()
	if cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}
	g.topo = topo
	return g, nil
}

// sort runs a three-colour DFS over nodes in declaration order, visiting
// dependencies in their declared order. The post-order is a topological
// order. On meeting an in-progress node it returns the cycle taken from the
// DFS stack instead.
func (g *Graph) sort() ([]string, []string) {
	colours := make(map[string]colour, len(g.declared))
	order := make([]string, 0, len(g.declared))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		colours[id] = inProgress
		stack = append(stack, id)

		for _, dep := range g.deps[id] {
			switch colours[dep] {
			case inProgress:
				start := slices.Index(stack, dep)
				cycle := slices.Clone(stack[start:])
				return append(cycle, dep)
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		colours[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range g.declared {
		if colours[id] != unvisited {
			continue
		}
		if cycle := visit(id); cycle != nil {
			return nil, cycle
		}
	}
	return order, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.declared) }

// IDs returns node ids in declaration order.
func (g *Graph) IDs() []string { return slices.Clone(g.declared) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Dependencies returns the direct dependencies of id.
func (g *Graph) Dependencies(id string) []string { return slices.Clone(g.deps[id]) }

// TopoOrder returns every id after all of its dependencies. The order is
// the DFS post-order walked in declaration order: a node's dependencies are
// emitted right before it, even ahead of independent nodes declared
// earlier. The result is the same on every call and every run.
func (g *Graph) TopoOrder() []string { return slices.Clone(g.topo) }

// Dependents returns the transitive dependents of id in topological order.
func (g *Graph) Dependents(id string) []string {
	seen := make(map[string]bool)
	queue := slices.Clone(g.dependents[id])
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, g.dependents[next]...)
	}

	out := make([]string, 0, len(seen))
	for _, n := range g.topo {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// Levels groups nodes by dependency depth using Kahn's algorithm. Nodes in
// the same level have no path between them and may run in parallel. Within
// a level ids keep declaration order.
func (g *Graph) Levels() [][]string {
	inDegree := make(map[string]int, len(g.declared))
	for _, id := range g.declared {
		inDegree[id] = len(g.deps[id])
	}

	var queue []string
	for _, id := range g.declared {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var levels [][]string
	for len(queue) > 0 {
		levels = append(levels, queue)

		var next []string
		for _, id := range queue {
			for _, dependent := range g.dependents[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.SortFunc(next, func(a, b string) int { return g.index[a] - g.index[b] })
		queue = next
	}
	return levels
}

// Width returns the size of the largest level, the most nodes that can ever
// be runnable at the same time.
func (g *Graph) Width() int {
	width := 0
	for _, level := range g.Levels() {
		width = max(width, len(level))
	}
	return width
}
