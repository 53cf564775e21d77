package lattice

import "github.com/samber/lo"

// DuplicateValidity reports whether all vertices are distinct and no two
// edges join the same pair of vertices in either direction.
func (l *Lattice) DuplicateValidity() bool {
	if len(lo.Uniq(l.Verts)) != len(l.Verts) {
		return false
	}
	keys := lo.Map(l.Edges, func(e [2]int, _ int) [2]int { return edgeKey(e[0], e[1]) })
	return len(lo.Uniq(keys)) == len(keys)
}

// DanglingVertValidity reports whether every vertex is an endpoint of some
// edge.
func (l *Lattice) DanglingVertValidity() bool {
	used := make([]bool, len(l.Verts))
	for _, e := range l.Edges {
		for _, v := range e {
			if v >= 0 && v < len(used) {
				used[v] = true
			}
		}
	}
	return lo.EveryBy(used, func(u bool) bool { return u })
}

// EdgeBoundValidity reports whether every edge endpoint indexes a vertex.
func (l *Lattice) EdgeBoundValidity() bool {
	n := len(l.Verts)
	return lo.EveryBy(l.Edges, func(e [2]int) bool {
		return e[0] >= 0 && e[0] < n && e[1] >= 0 && e[1] < n
	})
}

// ConnectionValidity reports whether a traversal along edges starting at
// the first edge reaches every vertex. An empty lattice is connected.
func (l *Lattice) ConnectionValidity() bool {
	if len(l.Verts) == 0 {
		return true
	}
	if len(l.Edges) == 0 || !l.EdgeBoundValidity() {
		return false
	}
	adj := make([][]int, len(l.Verts))
	for _, e := range l.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	visited := make([]bool, len(l.Verts))
	start := l.Edges[0][0]
	visited[start] = true
	stack := []int{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range adj[v] {
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return lo.EveryBy(visited, func(v bool) bool { return v })
}
