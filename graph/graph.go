package graph

import (
	"container/heap"
	"fmt"
	"slices"
)

// Build constructs a Graph. Specs are numbered in slice order; that number
// is the ordering tie-break. Repeated dependencies within one spec are
// collapsed to their first occurrence.
func Build(specs []Spec) (*Graph, error) {
	g, err := build(specs)
	if err != nil {
		return nil, err
	}
	if cycle := g.findCycle(nil); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}
	return g, nil
}

// build wires nodes and edges without the acyclicity check.
func build(specs []Spec) (*Graph, error) {
	g := &Graph{
		ids:   make([]string, len(specs)),
		index: make(map[string]int, len(specs)),
		deps:  make([][]int, len(specs)),
		rdeps: make([][]int, len(specs)),
	}

	for i, s := range specs {
		if _, dup := g.index[s.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, s.ID)
		}
		g.ids[i] = s.ID
		g.index[s.ID] = i
	}

	for i, s := range specs {
		edges := make([]int, 0, len(s.Dependencies))
		for _, dep := range s.Dependencies {
			j, ok := g.index[dep]
			if !ok {
				return nil, &UnknownNodeError{ID: dep, From: s.ID}
			}
			if slices.Contains(edges, j) {
				continue
			}
			edges = append(edges, j)
		}
		g.deps[i] = edges
	}

	// Filled in node order, so each dependents list is already in
	// registration order.
	for i, edges := range g.deps {
		for _, j := range edges {
			g.rdeps[j] = append(g.rdeps[j], i)
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.ids)
}

// IDs returns every identifier in registration order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.ids)
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Seq returns the registration index of id.
func (g *Graph) Seq(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Node returns a view of id, or nil if absent.
func (g *Graph) Node(id string) *Node {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return &Node{
		ID:           id,
		Seq:          i,
		Dependencies: g.names(g.deps[i]),
		Dependents:   g.names(g.rdeps[i]),
	}
}

// CloseUnder returns the smallest superset of seed closed under "depends
// on", in registration order. Each node is expanded at most once, so
// diamonds cost nothing extra.
func (g *Graph) CloseUnder(seed []string) ([]string, error) {
	in, err := g.membership(seed)
	if err != nil {
		return nil, err
	}

	stack := make([]int, 0, len(seed))
	for i, member := range in {
		if member {
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range g.deps[n] {
			if !in[d] {
				in[d] = true
				stack = append(stack, d)
			}
		}
	}
	return g.collect(in), nil
}

// Order returns ids sorted so every dependency that is also in ids comes
// first. Among ready nodes the lowest registration index wins, which makes
// the result independent of the order of ids. Duplicates in ids collapse.
func (g *Graph) Order(ids []string) ([]string, error) {
	in, err := g.membership(ids)
	if err != nil {
		return nil, err
	}

	pending := make([]int, len(g.ids))
	ready := &seqHeap{}
	total := 0
	for n, member := range in {
		if !member {
			continue
		}
		total++
		for _, d := range g.deps[n] {
			if in[d] {
				pending[n]++
			}
		}
		if pending[n] == 0 {
			*ready = append(*ready, n)
		}
	}
	heap.Init(ready)

	out := make([]string, 0, total)
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, g.ids[n])
		for _, r := range g.rdeps[n] {
			if !in[r] {
				continue
			}
			pending[r]--
			if pending[r] == 0 {
				heap.Push(ready, r)
			}
		}
	}

	if len(out) != total {
		if cycle := g.findCycle(in); cycle != nil {
			return nil, &CycleError{Path: cycle}
		}
		return nil, fmt.Errorf("graph: ordered %d of %d nodes", len(out), total)
	}
	return out, nil
}

// FindCycle returns one cycle path, or nil if the graph is acyclic.
// Graphs from Build are always acyclic.
func (g *Graph) FindCycle() []string {
	return g.findCycle(nil)
}

// findCycle runs a depth-first search over nodes in within (all nodes when
// within is nil), visiting roots and edges in registration and declared
// order so the reported cycle is stable.
func (g *Graph) findCycle(within []bool) []string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(g.ids))
	var path []int

	var visit func(n int) []string
	visit = func(n int) []string {
		color[n] = grey
		path = append(path, n)
		for _, d := range g.deps[n] {
			if within != nil && !within[d] {
				continue
			}
			switch color[d] {
			case grey:
				start := slices.Index(path, d)
				cycle := g.names(path[start:])
				return append(cycle, g.ids[d])
			case white:
				if c := visit(d); c != nil {
					return c
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return nil
	}

	for n := range g.ids {
		if within != nil && !within[n] {
			continue
		}
		if color[n] == white {
			if c := visit(n); c != nil {
				return c
			}
		}
	}
	return nil
}

func (g *Graph) membership(ids []string) ([]bool, error) {
	in := make([]bool, len(g.ids))
	for _, id := range ids {
		i, ok := g.index[id]
		if !ok {
			return nil, &UnknownNodeError{ID: id}
		}
		in[i] = true
	}
	return in, nil
}

func (g *Graph) collect(in []bool) []string {
	out := make([]string, 0)
	for i, member := range in {
		if member {
			out = append(out, g.ids[i])
		}
	}
	return out
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.ids[n]
	}
	return out
}

// seqHeap is a min-heap of registration indices.
type seqHeap []int

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *seqHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
