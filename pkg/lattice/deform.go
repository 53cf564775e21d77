package lattice

import (
	"math"

	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Deformer maps a point to its deformed position.
type Deformer func(p v3.Vec) v3.Vec

// Twist rotates each point about the y axis by rate*y radians.
func Twist(rate float64) Deformer {
	return func(p v3.Vec) v3.Vec {
		s, c := math.Sincos(rate * p.Y)
		return v3.Vec{
			X: p.X*c + p.Z*s,
			Y: p.Y,
			Z: -p.X*s + p.Z*c,
		}
	}
}

// Deform moves every vertex, live or dead, through d. Edges keep their
// endpoints.
func (l *Lattice) Deform(d Deformer) {
	for i, p := range l.Verts {
		l.Verts[i] = d(p)
	}
	l.vindex = nil
	l.deformed = true
}

// Deformed reports whether Deform has moved the lattice off its packing
// volume.
func (l *Lattice) Deformed() bool { return l.deformed }

// Extent returns the bounds of the live joints grown by the larger strut
// radius, so every rendered sphere and cylinder lies inside. It reports
// false when nothing is live.
func (l *Lattice) Extent() (sdf.Box3, bool) {
	var box sdf.Box3
	found := false
	for i, p := range l.Verts {
		if l.DeadVerts[i] {
			continue
		}
		if !found {
			box = sdf.Box3{Min: p, Max: p}
			found = true
			continue
		}
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	if !found {
		return sdf.Box3{}, false
	}
	r := math.Max(l.SphereRadius, l.CylinderRadius)
	grow := v3.Vec{X: r, Y: r, Z: r}
	return sdf.Box3{Min: box.Min.Sub(grow), Max: box.Max.Add(grow)}, true
}

// Apply deforms the vertices of m, so a Deformer can also bend an
// extracted surface.
func (d Deformer) Apply(m *mesh.Mesh) {
	for i, p := range m.Verts {
		m.Verts[i] = d(p)
	}
	m.Reshape()
}
