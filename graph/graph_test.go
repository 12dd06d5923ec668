package graph

import (
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"testing"
)

// Helper to create a test graph (arrows point at dependencies):
//
//	zeta ──┐
//	       ├──> core
//	alpha ─┘      ^
//	  ^           │
//	  └── top ────┘
//
// Registration order is core, zeta, alpha, top, so zeta must be ordered
// before alpha even though it sorts after it by name.
func createTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Build([]Spec{
		{ID: "core"},
		{ID: "zeta", Dependencies: []string{"core"}},
		{ID: "alpha", Dependencies: []string{"core"}},
		{ID: "top", Dependencies: []string{"alpha", "core"}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func TestBuild(t *testing.T) {
	g := createTestGraph(t)

	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}
	if got := strings.Join(g.IDs(), ","); got != "core,zeta,alpha,top" {
		t.Errorf("IDs() = %q, want registration order", got)
	}
	if seq, ok := g.Seq("alpha"); !ok || seq != 2 {
		t.Errorf("Seq(alpha) = %d, %v; want 2", seq, ok)
	}

	node := g.Node("core")
	if node == nil {
		t.Fatal("Node(core) returned nil")
	}
	if got := strings.Join(node.Dependents, ","); got != "zeta,alpha,top" {
		t.Errorf("core dependents = %q, want zeta,alpha,top", got)
	}
	if g.Node("missing") != nil {
		t.Error("Node(missing) should be nil")
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr error
	}{
		{
			name:    "duplicate",
			specs:   []Spec{{ID: "a"}, {ID: "a"}},
			wantErr: ErrDuplicateNode,
		},
		{
			name:    "unknown dependency",
			specs:   []Spec{{ID: "a", Dependencies: []string{"b"}}},
			wantErr: ErrUnknownNode,
		},
		{
			name:    "self cycle",
			specs:   []Spec{{ID: "a", Dependencies: []string{"a"}}},
			wantErr: ErrCyclicDependency,
		},
		{
			name: "two node cycle",
			specs: []Spec{
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"a"}},
			},
			wantErr: ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.specs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_CyclePath(t *testing.T) {
	_, err := Build([]Spec{
		{ID: "root", Dependencies: []string{"a"}},
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"c"}},
		{ID: "c", Dependencies: []string{"a"}},
	})

	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Build() error = %v, want *CycleError", err)
	}
	if got := strings.Join(cerr.Path, " -> "); got != "a -> b -> c -> a" {
		t.Errorf("cycle path = %q, want a -> b -> c -> a", got)
	}
	if !strings.Contains(err.Error(), "a -> b -> c -> a") {
		t.Errorf("error message %q should carry the path", err.Error())
	}
}

func TestBuild_CollapsesRepeatedDependency(t *testing.T) {
	g, err := Build([]Spec{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a", "a"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.DirectDeps("b"); len(got) != 1 {
		t.Errorf("DirectDeps(b) = %v, want [a]", got)
	}
}

func TestCloseUnder(t *testing.T) {
	g := createTestGraph(t)

	tests := []struct {
		name string
		seed []string
		want string
	}{
		{"empty", nil, ""},
		{"leaf", []string{"core"}, "core"},
		{"diamond", []string{"top"}, "core,alpha,top"},
		{"repeated seed", []string{"top", "top", "zeta"}, "core,zeta,alpha,top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.CloseUnder(tt.seed)
			if err != nil {
				t.Fatalf("CloseUnder() error = %v", err)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("CloseUnder(%v) = %v, want %s", tt.seed, got, tt.want)
			}
		})
	}

	if _, err := g.CloseUnder([]string{"nope"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("CloseUnder(unknown) error = %v, want ErrUnknownNode", err)
	}
}

func TestOrder_TieBreakIsRegistrationOrder(t *testing.T) {
	g := createTestGraph(t)

	got, err := g.Order([]string{"top", "alpha", "zeta", "core"})
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if strings.Join(got, ",") != "core,zeta,alpha,top" {
		t.Errorf("Order() = %v, want core,zeta,alpha,top", got)
	}
}

func TestOrder_IgnoresDependenciesOutsideSet(t *testing.T) {
	g := createTestGraph(t)

	got, err := g.Order([]string{"top", "zeta"})
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if strings.Join(got, ",") != "zeta,top" {
		t.Errorf("Order() = %v, want zeta,top", got)
	}
}

func TestOrder_DeterministicUnderShuffle(t *testing.T) {
	specs := []Spec{
		{ID: "m0"},
		{ID: "m1"},
		{ID: "m2", Dependencies: []string{"m0"}},
		{ID: "m3", Dependencies: []string{"m1", "m2"}},
		{ID: "m4", Dependencies: []string{"m0"}},
		{ID: "m5", Dependencies: []string{"m4", "m3"}},
		{ID: "m6"},
	}
	g, err := Build(specs)
	if err != nil {
		t.Fatal(err)
	}

	ids := g.IDs()
	want, err := g.Order(ids)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := slices.Clone(ids)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := g.Order(shuffled)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("Order(%v) = %v, want %v", shuffled, got, want)
		}
	}
	assertTopological(t, g, want)
}

func TestOrder_DetectsCycle(t *testing.T) {
	// build skips the acyclicity check so Order's own detection can be exercised.
	g, err := build([]Spec{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c"},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.Order([]string{"a", "b", "c"})
	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Order() error = %v, want *CycleError", err)
	}
	if strings.Join(cerr.Path, ",") != "a,b,a" {
		t.Errorf("cycle path = %v, want a,b,a", cerr.Path)
	}

	// Outside the cycle ordering still works.
	if got, err := g.Order([]string{"c", "a"}); err != nil || strings.Join(got, ",") != "a,c" {
		t.Errorf("Order(c, a) = %v, %v; want a,c", got, err)
	}
}

func TestQueries(t *testing.T) {
	g := createTestGraph(t)

	if got := strings.Join(g.TransitiveDeps("top"), ","); got != "alpha,core" {
		t.Errorf("TransitiveDeps(top) = %q", got)
	}
	if got := strings.Join(g.TransitiveDependents("core"), ","); got != "zeta,alpha,top" {
		t.Errorf("TransitiveDependents(core) = %q", got)
	}
	if got := strings.Join(g.DirectDependents("alpha"), ","); got != "top" {
		t.Errorf("DirectDependents(alpha) = %q", got)
	}
	if got := strings.Join(g.Path("top", "core"), ","); got != "top,core" {
		t.Errorf("Path(top, core) = %q, want shortest", got)
	}
	if got := g.Path("core", "top"); got != nil {
		t.Errorf("Path(core, top) = %v, want nil", got)
	}
	if got := g.AllPaths("top", "core"); len(got) != 2 {
		t.Errorf("AllPaths(top, core) = %v, want 2 paths", got)
	}
	if got := strings.Join(g.Roots(), ","); got != "zeta,top" {
		t.Errorf("Roots() = %q", got)
	}
	if got := strings.Join(g.Leaves(), ","); got != "core" {
		t.Errorf("Leaves() = %q", got)
	}

	stats := g.Stats()
	if stats.Nodes != 4 || stats.Edges != 4 || stats.MaxDepth != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestToJSON(t *testing.T) {
	g := createTestGraph(t)
	data, err := g.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var doc JSONGraph
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 4 || doc.Nodes[3].ID != "top" || doc.Nodes[3].Seq != 3 {
		t.Errorf("unexpected JSON graph: %+v", doc)
	}
}

func TestToDOT(t *testing.T) {
	g := createTestGraph(t)

	dot := g.ToDOT()
	for _, want := range []string{"digraph dependencies {", `"top" -> "alpha";`, `"zeta" -> "core";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}

	sub := g.ToDOT("top", "alpha")
	if strings.Contains(sub, `"core"`) {
		t.Error("ToDOT(subset) should not draw nodes outside the subset")
	}
	if !strings.Contains(sub, `"top" -> "alpha";`) {
		t.Error("ToDOT(subset) should keep edges inside the subset")
	}
}

func TestToText(t *testing.T) {
	g := createTestGraph(t)
	text := g.ToText()
	for _, want := range []string{"Modules: 4", "Max depth: 2", "top\n", "└── core"} {
		if !strings.Contains(text, want) {
			t.Errorf("ToText() missing %q:\n%s", want, text)
		}
	}
}

func assertTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		for _, dep := range g.DirectDeps(id) {
			if p, ok := pos[dep]; ok && p >= pos[id] {
				t.Errorf("%s ordered before its dependency %s", id, dep)
			}
		}
	}
}
