package dag

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	apperrors "github.com/kbukum/stackup/errors"
)

// --- test helpers ---

type testNode struct {
	id   string
	deps []string
}

func (n testNode) NodeID() string         { return n.id }
func (n testNode) Dependencies() []string { return n.deps }

func node(id string, deps ...string) Node { return testNode{id: id, deps: deps} }

func mustBuild(t *testing.T, nodes ...Node) *Graph {
	t.Helper()
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return g
}

func stackNodes() []Node {
	return []Node{
		node("db"),
		node("storage"),
		node("bootstrap-bucket", "storage"),
		node("app", "db", "bootstrap-bucket"),
	}
}

// assertTopological fails if any node appears before one of its dependencies.
func assertTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()
	if len(order) != g.Len() {
		t.Fatalf("order has %d ids, graph has %d", len(order), g.Len())
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		for _, dep := range g.Dependencies(id) {
			if pos[dep] >= pos[id] {
				t.Errorf("%s (index %d) must come after its dependency %s (index %d)", id, pos[id], dep, pos[dep])
			}
		}
	}
}

// --- Build ---

func TestBuild_StackGraph(t *testing.T) {
	g := mustBuild(t, stackNodes()...)

	if g.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Len())
	}
	want := []string{"db", "storage", "bootstrap-bucket", "app"}
	if got := g.TopoOrder(); !slices.Equal(got, want) {
		t.Errorf("TopoOrder() = %v, want %v", got, want)
	}
	if _, ok := g.Node("app"); !ok {
		t.Error("expected node app to be present")
	}
	if deps := g.Dependencies("app"); !slices.Equal(deps, []string{"db", "bootstrap-bucket"}) {
		t.Errorf("Dependencies(app) = %v", deps)
	}
}

func TestTopoOrder_DependenciesBeforeLaterDeclarations(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  []string
	}{
		{"independent", []Node{node("a"), node("b"), node("c")}, []string{"a", "b", "c"}},
		{"dependency declared last", []Node{node("app", "c"), node("b"), node("c")}, []string{"c", "app", "b"}},
		{"chain", []Node{node("c", "b"), node("b", "a"), node("a")}, []string{"a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := mustBuild(t, tc.nodes...)
			if got := g.TopoOrder(); !slices.Equal(got, tc.want) {
				t.Fatalf("TopoOrder() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuild_Empty(t *testing.T) {
	g := mustBuild(t)
	if g.Len() != 0 || len(g.TopoOrder()) != 0 || len(g.Levels()) != 0 || g.Width() != 0 {
		t.Error("empty graph should have no nodes, order or levels")
	}
}

func TestBuild_DuplicateNode(t *testing.T) {
	_, err := Build([]Node{node("db"), node("app", "db"), node("db")})

	var dup *DuplicateNodeError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateNodeError, got %v", err)
	}
	if dup.ID != "db" {
		t.Errorf("expected duplicate id db, got %q", dup.ID)
	}
	if apperrors.CodeOf(err) != apperrors.ErrCodeDuplicateNode {
		t.Errorf("unexpected code %s", apperrors.CodeOf(err))
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	_, err := Build([]Node{node("app", "db", "cache"), node("db")})

	var unknown *UnknownDependencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownDependencyError, got %v", err)
	}
	if unknown.From != "app" || unknown.Missing != "cache" {
		t.Errorf("expected app -> cache, got %s -> %s", unknown.From, unknown.Missing)
	}
	if !apperrors.IsStatic(err) {
		t.Error("unknown dependency must be a static error")
	}
}

func TestBuild_DuplicateDependencyIsCollapsed(t *testing.T) {
	g := mustBuild(t, node("db"), node("app", "db", "db"))
	if deps := g.Dependencies("app"); len(deps) != 1 {
		t.Errorf("expected one dependency, got %v", deps)
	}
	if deps := g.Dependents("db"); !slices.Equal(deps, []string{"app"}) {
		t.Errorf("expected single dependent, got %v", deps)
	}
}

func TestBuild_Cycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  []string
	}{
		{
			name:  "self loop",
			nodes: []Node{node("a", "a")},
			want:  []string{"a", "a"},
		},
		{
			name:  "two nodes",
			nodes: []Node{node("a", "b"), node("b", "a")},
			want:  []string{"a", "b", "a"},
		},
		{
			name: "cycle behind acyclic prefix",
			nodes: []Node{
				node("app", "bucket"),
				node("bucket", "storage"),
				node("storage", "policy"),
				node("policy", "bucket"),
			},
			want: []string{"bucket", "storage", "policy", "bucket"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.nodes)

			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %v", err)
			}
			if !slices.Equal(cycleErr.Cycle, tc.want) {
				t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, tc.want)
			}
			if apperrors.CodeOf(err) != apperrors.ErrCodeCycleDetected {
				t.Errorf("unexpected code %s", apperrors.CodeOf(err))
			}
		})
	}
}

// --- ordering ---

func TestTopoOrder_DeclarationOrderTies(t *testing.T) {
	g := mustBuild(t, node("c"), node("a"), node("b"))
	if got := g.TopoOrder(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("independent nodes should keep declaration order, got %v", got)
	}
}

func TestTopoOrder_Deterministic(t *testing.T) {
	nodes := stackNodes()
	first := mustBuild(t, nodes...).TopoOrder()
	for i := 0; i < 20; i++ {
		if got := mustBuild(t, nodes...).TopoOrder(); !slices.Equal(got, first) {
			t.Fatalf("run %d: order %v differs from %v", i, got, first)
		}
	}
}

// randomGraph declares n nodes in shuffled order. When acyclic is true,
// edges only point from higher to lower rank so no cycle can exist.
func randomGraph(r *rand.Rand, n int, acyclic bool) []Node {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%02d", i)
	}
	nodes := make([]Node, n)
	for i := range ids {
		var deps []string
		for j := range ids {
			if i == j {
				continue
			}
			if acyclic && j >= i {
				continue
			}
			if r.Intn(4) == 0 {
				deps = append(deps, ids[j])
			}
		}
		nodes[i] = node(ids[i], deps...)
	}
	r.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	return nodes
}

func TestTopoOrder_RespectsEdgesOnRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		g := mustBuild(t, randomGraph(r, 1+r.Intn(12), true)...)
		assertTopological(t, g, g.TopoOrder())
	}
}

func TestBuild_CycleIsRealPathOnRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	found := 0
	for i := 0; i < 300; i++ {
		nodes := randomGraph(r, 2+r.Intn(8), false)
		_, err := Build(nodes)

		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			continue
		}
		found++

		edges := make(map[string][]string)
		for _, n := range nodes {
			edges[n.NodeID()] = n.Dependencies()
		}
		c := cycleErr.Cycle
		if len(c) < 2 || c[0] != c[len(c)-1] {
			t.Fatalf("cycle %v is not closed", c)
		}
		for k := 0; k+1 < len(c); k++ {
			if !slices.Contains(edges[c[k]], c[k+1]) {
				t.Fatalf("cycle %v uses %s -> %s which is not an edge", c, c[k], c[k+1])
			}
		}
	}
	if found == 0 {
		t.Fatal("expected the generator to produce at least one cyclic graph")
	}
}

// --- levels and dependents ---

func TestLevels(t *testing.T) {
	g := mustBuild(t, stackNodes()...)

	want := [][]string{{"db", "storage"}, {"bootstrap-bucket"}, {"app"}}
	got := g.Levels()
	if len(got) != len(want) {
		t.Fatalf("Levels() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("level %d = %v, want %v", i, got[i], want[i])
		}
	}
	if g.Width() != 2 {
		t.Errorf("Width() = %d, want 2", g.Width())
	}
}

func TestLevels_FlattenIsTopological(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		g := mustBuild(t, randomGraph(r, 1+r.Intn(10), true)...)
		var flat []string
		for _, level := range g.Levels() {
			flat = append(flat, level...)
		}
		assertTopological(t, g, flat)
	}
}

func TestDependents(t *testing.T) {
	g := mustBuild(t, stackNodes()...)

	tests := []struct {
		id   string
		want []string
	}{
		{"storage", []string{"bootstrap-bucket", "app"}},
		{"db", []string{"app"}},
		{"bootstrap-bucket", []string{"app"}},
		{"app", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			if got := g.Dependents(tc.id); !slices.Equal(got, tc.want) {
				t.Errorf("Dependents(%s) = %v, want %v", tc.id, got, tc.want)
			}
		})
	}
}

func TestGraph_ReturnsCopies(t *testing.T) {
	g := mustBuild(t, stackNodes()...)
	order := g.TopoOrder()
	order[0] = "mutated"
	if g.TopoOrder()[0] == "mutated" {
		t.Error("TopoOrder must return a copy")
	}
	ids := g.IDs()
	ids[0] = "mutated"
	if g.IDs()[0] != "db" {
		t.Error("IDs must return a copy")
	}
}
