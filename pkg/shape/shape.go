// Package shape provides point-containment predicates for the primitives
// that a CSG tree or lattice rasterizes into a voxel volume.
package shape

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape is an implicit solid. Bounds returns false when the shape has no
// useful bound and must be sampled over the whole grid.
type Shape interface {
	Contains(p v3.Vec) bool
	Bounds() (sdf.Box3, bool)
}

// Compile-time interface checks.
var (
	_ Shape = Sphere{}
	_ Shape = Cylinder{}
	_ Shape = SDF{}
)

// Sphere is a solid ball.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

func (s Sphere) Contains(p v3.Vec) bool {
	d := p.Sub(s.Center)
	return d.Dot(d) <= s.Radius*s.Radius
}

func (s Sphere) Bounds() (sdf.Box3, bool) {
	r := v3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return sdf.Box3{Min: s.Center.Sub(r), Max: s.Center.Add(r)}, true
}

func (s Sphere) String() string {
	return fmt.Sprintf("sphere(%v, r=%g)", s.Center, s.Radius)
}

// Cylinder is a capped cylinder running from Start to End.
type Cylinder struct {
	Start, End v3.Vec
	Radius     float64
}

// Contains projects p onto the axis; it must land between the caps and
// within Radius of the axis. A zero-length axis contains nothing.
func (c Cylinder) Contains(p v3.Vec) bool {
	axis := c.End.Sub(c.Start)
	l2 := axis.Dot(axis)
	if l2 == 0 {
		return false
	}
	d := p.Sub(c.Start)
	t := d.Dot(axis) / l2
	if t < 0 || t > 1 {
		return false
	}
	radial := d.Sub(axis.MulScalar(t))
	return radial.Dot(radial) <= c.Radius*c.Radius
}

func (c Cylinder) Bounds() (sdf.Box3, bool) {
	r := v3.Vec{X: c.Radius, Y: c.Radius, Z: c.Radius}
	lo := c.Start.Min(c.End).Sub(r)
	hi := c.Start.Max(c.End).Add(r)
	return sdf.Box3{Min: lo, Max: hi}, true
}

func (c Cylinder) String() string {
	return fmt.Sprintf("cylinder(%v -> %v, r=%g)", c.Start, c.End, c.Radius)
}
