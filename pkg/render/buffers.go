// Package render flattens meshes and voxel volumes into draw buffers for a
// viewer or an exporter.
package render

import (
	"github.com/chazu/voxcsg/pkg/lattice"
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/voxel"
)

// Buffers is a triangle mesh ready for upload.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Buffers struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffers hold no geometry.
func (b *Buffers) IsEmpty() bool {
	return len(b.Vertices) == 0
}

// Smooth shares vertices between triangles and shades with averaged
// vertex normals.
func Smooth(m *mesh.Mesh, name string) *Buffers {
	m.DeriveNormals()
	b := &Buffers{
		Vertices: make([]float32, 0, len(m.Verts)*3),
		Normals:  make([]float32, 0, len(m.Verts)*3),
		Indices:  make([]uint32, 0, len(m.Tris)*3),
		Name:     name,
	}
	for i, v := range m.Verts {
		n := m.Norms[i]
		b.Vertices = append(b.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		b.Normals = append(b.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, t := range m.Tris {
		b.Indices = append(b.Indices, uint32(t.V[0]), uint32(t.V[1]), uint32(t.V[2]))
	}
	return b
}

// Faceted gives every triangle its own three vertices carrying the face
// normal, so edges render sharp.
func Faceted(m *mesh.Mesh, name string) *Buffers {
	n := len(m.Tris) * 3
	b := &Buffers{
		Vertices: make([]float32, 0, n*3),
		Normals:  make([]float32, 0, n*3),
		Indices:  make([]uint32, 0, n),
		Name:     name,
	}
	for i, t := range m.Tris {
		nx, ny, nz := float32(t.N.X), float32(t.N.Y), float32(t.N.Z)
		for j := 0; j < 3; j++ {
			v := m.Verts[t.V[j]]
			b.Vertices = append(b.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			b.Normals = append(b.Normals, nx, ny, nz)
			b.Indices = append(b.Indices, uint32(i*3+j))
		}
	}
	return b
}

// Voxels renders the exposed faces of every occupied voxel.
func Voxels(v *voxel.Volume, name string) *Buffers {
	return Faceted(lattice.CubeMesh(v), name)
}
