package mesh

import "fmt"

// Validity summarises the topological checks on a mesh.
type Validity struct {
	Basic     bool
	Manifold  bool
	Connected bool
}

// OK reports whether every check passed.
func (v Validity) OK() bool {
	return v.Basic && v.Manifold && v.Connected
}

func (v Validity) String() string {
	return fmt.Sprintf("basic=%t manifold=%t connected=%t", v.Basic, v.Manifold, v.Connected)
}

// Report runs all validators.
func (m *Mesh) Report() Validity {
	return Validity{
		Basic:     m.BasicValidity(),
		Manifold:  m.ManifoldValidity(),
		Connected: m.ConnectionValidity(),
	}
}

// BasicValidity checks that triangle indices are in range, that no two
// vertices are equal and that every vertex is used by some triangle.
func (m *Mesh) BasicValidity() bool {
	used := make([]bool, len(m.Verts))
	for _, t := range m.Tris {
		if !m.validTri(t) {
			return false
		}
		for _, vi := range t.V {
			used[vi] = true
		}
	}
	for i := 0; i < len(m.Verts); i++ {
		for j := i + 1; j < len(m.Verts); j++ {
			if m.Verts[i] == m.Verts[j] {
				return false
			}
		}
	}
	for _, u := range used {
		if !u {
			return false
		}
	}
	return true
}

type edgeKey struct{ a, b int }

func makeEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// ManifoldValidity checks that every undirected edge is shared by exactly
// two triangles.
func (m *Mesh) ManifoldValidity() bool {
	counts := make(map[edgeKey]int, len(m.Tris)*3/2)
	for _, t := range m.Tris {
		for i := 0; i < 3; i++ {
			counts[makeEdge(t.V[i], t.V[(i+1)%3])]++
		}
	}
	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}

// ConnectionValidity checks that every vertex is reachable from vertex 0
// across triangle edges.
func (m *Mesh) ConnectionValidity() bool {
	if len(m.Verts) == 0 {
		return true
	}
	adj := make([][]int, len(m.Verts))
	for _, t := range m.Tris {
		if !m.validTri(t) {
			continue
		}
		for i := 0; i < 3; i++ {
			a, b := t.V[i], t.V[(i+1)%3]
			adj[a] = append(adj[a], b)
			adj[b] = append(adj[b], a)
		}
	}

	visited := make([]bool, len(m.Verts))
	stack := []int{0}
	visited[0] = true
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
	for _, v := range visited {
		if !v {
			return false
		}
	}
	return true
}
