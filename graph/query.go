package graph

// DirectDeps returns the direct dependencies of id as declared.
func (g *Graph) DirectDeps(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.deps[i])
}

// DirectDependents returns nodes that directly depend on id.
func (g *Graph) DirectDependents(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.rdeps[i])
}

// TransitiveDeps returns all transitive dependencies of id in breadth-first
// order, id itself excluded.
func (g *Graph) TransitiveDeps(id string) []string {
	return g.bfs(id, g.deps)
}

// TransitiveDependents returns every node that transitively depends on id,
// closest first.
func (g *Graph) TransitiveDependents(id string) []string {
	return g.bfs(id, g.rdeps)
}

func (g *Graph) bfs(id string, edges [][]int) []string {
	start, ok := g.index[id]
	if !ok {
		return nil
	}

	result := make([]string, 0)
	visited := make([]bool, len(g.ids))
	visited[start] = true
	queue := []int{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range edges[current] {
			if !visited[next] {
				visited[next] = true
				result = append(result, g.ids[next])
				queue = append(queue, next)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one node to another,
// following "depends on" edges. Returns nil if no path exists.
func (g *Graph) Path(from, to string) []string {
	src, ok := g.index[from]
	if !ok {
		return nil
	}
	dst, ok := g.index[to]
	if !ok {
		return nil
	}
	if src == dst {
		return []string{from}
	}

	parent := make([]int, len(g.ids))
	for i := range parent {
		parent[i] = -1
	}
	parent[src] = src
	queue := []int{src}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[current] {
			if parent[dep] != -1 {
				continue
			}
			parent[dep] = current
			if dep == dst {
				return g.unwind(parent, src, dst)
			}
			queue = append(queue, dep)
		}
	}
	return nil
}

func (g *Graph) unwind(parent []int, src, dst int) []string {
	var rev []int
	for n := dst; n != src; n = parent[n] {
		rev = append(rev, n)
	}
	rev = append(rev, src)
	out := make([]string, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = g.ids[n]
	}
	return out
}

// AllPaths finds every dependency path from one node to another.
// This can be expensive for graphs with many diamonds.
func (g *Graph) AllPaths(from, to string) [][]string {
	src, ok := g.index[from]
	if !ok {
		return nil
	}
	dst, ok := g.index[to]
	if !ok {
		return nil
	}

	var result [][]string
	var walk func(n int, path []int)
	walk = func(n int, path []int) {
		if n == dst {
			result = append(result, g.names(path))
			return
		}
		for _, dep := range g.deps[n] {
			walk(dep, append(path, dep))
		}
	}
	walk(src, []int{src})
	return result
}

// Roots returns nodes nothing depends on, in registration order.
func (g *Graph) Roots() []string {
	var roots []string
	for i, r := range g.rdeps {
		if len(r) == 0 {
			roots = append(roots, g.ids[i])
		}
	}
	return roots
}

// Leaves returns nodes with no dependencies, in registration order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for i, d := range g.deps {
		if len(d) == 0 {
			leaves = append(leaves, g.ids[i])
		}
	}
	return leaves
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{Nodes: len(g.ids)}
	for i := range g.ids {
		stats.Edges += len(g.deps[i])
		if len(g.rdeps[i]) == 0 {
			stats.Roots++
		}
		if len(g.deps[i]) == 0 {
			stats.Leaves++
		}
	}
	stats.MaxDepth = g.maxDepth()
	return stats
}

// maxDepth memoizes the longest chain below each node. The graph is acyclic
// so plain recursion terminates.
func (g *Graph) maxDepth() int {
	depth := make([]int, len(g.ids))
	done := make([]bool, len(g.ids))

	var height func(n int) int
	height = func(n int) int {
		if done[n] {
			return depth[n]
		}
		best := 0
		for _, d := range g.deps[n] {
			best = max(best, height(d)+1)
		}
		depth[n] = best
		done[n] = true
		return best
	}

	longest := 0
	for n := range g.ids {
		longest = max(longest, height(n))
	}
	return longest
}
