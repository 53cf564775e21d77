package mesh

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// FromSDF tessellates an sdfx solid with uniform marching cubes at the given
// resolution along the longest side. Triangles that collapse after vertex
// merging are dropped.
func FromSDF(s sdf.SDF3, cells int) *Mesh {
	m := New()
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	for _, tri := range triangles {
		a := m.InsertVertex(tri[0])
		b := m.InsertVertex(tri[1])
		c := m.InsertVertex(tri[2])
		if a == b || b == c || a == c {
			continue
		}
		n := tri.Normal()
		m.Tris = append(m.Tris, Triangle{V: [3]int{a, b, c}, N: n})
	}
	m.Invalidate()
	return m
}
