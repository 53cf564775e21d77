// Package mesh provides an indexed triangle mesh with exact vertex
// deduplication, per-vertex normals, a binary STL codec, a bounding-sphere
// accelerator for ray-cast point containment and topological validators.
package mesh

import (
	"log"
	"math"
	"math/rand"
	"sync"

	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ shape.Shape = (*Mesh)(nil)

// Triangle references three vertices and carries its unit face normal.
// N is zero for a degenerate triangle.
type Triangle struct {
	V [3]int
	N v3.Vec
}

// Mesh is a triangle soup over a deduplicated vertex list.
//
// Verts and Tris may be read freely. Code that edits them in place must
// call Invalidate so the vertex index and accelerator are rebuilt.
type Mesh struct {
	Verts []v3.Vec
	Norms []v3.Vec // per-vertex, filled by DeriveNormals
	Tris  []Triangle

	index   map[v3.Vec]int
	indexed int

	mu      sync.Mutex
	spheres []boundSphere
	accel   bool
	rng     *rand.Rand
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// Clear removes all geometry.
func (m *Mesh) Clear() {
	m.Verts = nil
	m.Norms = nil
	m.Tris = nil
	m.Invalidate()
}

// Invalidate drops the vertex index and the accelerator. They are rebuilt
// on next use.
func (m *Mesh) Invalidate() {
	m.index = nil
	m.indexed = 0
	m.mu.Lock()
	m.spheres = nil
	m.accel = false
	m.mu.Unlock()
}

// NumVerts returns the number of vertices.
func (m *Mesh) NumVerts() int { return len(m.Verts) }

// NumTris returns the number of triangles.
func (m *Mesh) NumTris() int { return len(m.Tris) }

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool { return len(m.Tris) == 0 }

func (m *Mesh) syncIndex() {
	if m.index != nil && m.indexed == len(m.Verts) {
		return
	}
	if m.index == nil || m.indexed > len(m.Verts) {
		m.index = make(map[v3.Vec]int, len(m.Verts))
		m.indexed = 0
	}
	for i := m.indexed; i < len(m.Verts); i++ {
		if _, ok := m.index[m.Verts[i]]; !ok {
			m.index[m.Verts[i]] = i
		}
	}
	m.indexed = len(m.Verts)
}

// FindVertex returns the index of a vertex exactly equal to p.
func (m *Mesh) FindVertex(p v3.Vec) (int, bool) {
	m.syncIndex()
	i, ok := m.index[p]
	return i, ok
}

// InsertVertex returns the index of the vertex exactly equal to p,
// appending p first if no such vertex exists.
func (m *Mesh) InsertVertex(p v3.Vec) int {
	if i, ok := m.FindVertex(p); ok {
		return i
	}
	m.Verts = append(m.Verts, p)
	i := len(m.Verts) - 1
	m.index[p] = i
	m.indexed = len(m.Verts)
	m.dropAccel()
	return i
}

// AddTriangle appends a triangle over existing vertex indices and derives
// its face normal from the winding.
func (m *Mesh) AddTriangle(a, b, c int) {
	t := Triangle{V: [3]int{a, b, c}}
	if inRange(a, len(m.Verts)) && inRange(b, len(m.Verts)) && inRange(c, len(m.Verts)) {
		t.N = faceNormal(m.Verts[a], m.Verts[b], m.Verts[c])
	}
	m.Tris = append(m.Tris, t)
	m.dropAccel()
}

func (m *Mesh) dropAccel() {
	m.mu.Lock()
	m.spheres = nil
	m.accel = false
	m.mu.Unlock()
}

func inRange(i, n int) bool { return i >= 0 && i < n }

// faceNormal returns the unit normal of triangle (a,b,c), or zero when the
// triangle has no area.
func faceNormal(a, b, c v3.Vec) v3.Vec {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l == 0 || math.IsNaN(l) {
		return v3.Vec{}
	}
	return n.DivScalar(l)
}

// DeriveNormals averages the face normals incident on each vertex.
// Vertices touched only by degenerate triangles keep a zero normal.
func (m *Mesh) DeriveNormals() {
	m.Norms = make([]v3.Vec, len(m.Verts))
	for _, t := range m.Tris {
		if !inRange(t.V[0], len(m.Verts)) || !inRange(t.V[1], len(m.Verts)) || !inRange(t.V[2], len(m.Verts)) {
			continue
		}
		n := faceNormal(m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]])
		for _, vi := range t.V {
			m.Norms[vi] = m.Norms[vi].Add(n)
		}
	}
	for i, n := range m.Norms {
		if l := n.Length(); l > 1e-12 {
			m.Norms[i] = n.DivScalar(l)
		} else {
			m.Norms[i] = v3.Vec{}
		}
	}
}

// Reshape recomputes face normals after vertices were moved in place,
// re-derives vertex normals if present, and invalidates the accelerator.
func (m *Mesh) Reshape() {
	for i, t := range m.Tris {
		if m.validTri(t) {
			m.Tris[i].N = faceNormal(m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]])
		}
	}
	if m.Norms != nil {
		m.DeriveNormals()
	}
	m.Invalidate()
}

// BBox returns the axis-aligned bounding box of the vertices.
func (m *Mesh) BBox() sdf.Box3 {
	if len(m.Verts) == 0 {
		return sdf.Box3{}
	}
	lo, hi := m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Translate moves every vertex by d.
func (m *Mesh) Translate(d v3.Vec) {
	for i := range m.Verts {
		m.Verts[i] = m.Verts[i].Add(d)
	}
	m.Invalidate()
}

// BoxFit centres the mesh on the origin and scales it uniformly so its
// longest bounding-box side equals sidelen.
func (m *Mesh) BoxFit(sidelen float64) {
	box := m.BBox()
	size := box.Max.Sub(box.Min)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	if longest <= 0 || sidelen <= 0 {
		log.Printf("mesh: box fit skipped, extent %v target %g", size, sidelen)
		return
	}
	centre := box.Min.Add(size.MulScalar(0.5))
	scale := sidelen / longest
	for i := range m.Verts {
		m.Verts[i] = m.Verts[i].Sub(centre).MulScalar(scale)
	}
	m.Invalidate()
}

// Contains reports whether p lies inside the closed mesh.
func (m *Mesh) Contains(p v3.Vec) bool {
	return m.ContainsPoint(p)
}

// Bounds returns the bounding box but reports it as unusable: ray-cast
// containment is sampled across the whole grid.
func (m *Mesh) Bounds() (sdf.Box3, bool) {
	return m.BBox(), false
}
