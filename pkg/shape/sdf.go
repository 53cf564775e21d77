package shape

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SDF adapts an sdfx signed distance field. Points with a non-positive
// distance are inside.
type SDF struct {
	S sdf.SDF3
}

func (s SDF) Contains(p v3.Vec) bool {
	return s.S.Evaluate(p) <= 0
}

func (s SDF) Bounds() (sdf.Box3, bool) {
	return s.S.BoundingBox(), true
}

// NewBox returns an axis-aligned box of the given size centred at the origin.
func NewBox(size v3.Vec) (SDF, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return SDF{}, fmt.Errorf("box %v: %w", size, err)
	}
	return SDF{S: s}, nil
}

// NewSDFSphere returns an sdfx sphere centred at the origin.
func NewSDFSphere(radius float64) (SDF, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return SDF{}, fmt.Errorf("sphere r=%g: %w", radius, err)
	}
	return SDF{S: s}, nil
}

// NewSDFCylinder returns an sdfx cylinder along z centred at the origin.
func NewSDFCylinder(height, radius float64) (SDF, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return SDF{}, fmt.Errorf("cylinder h=%g r=%g: %w", height, radius, err)
	}
	return SDF{S: s}, nil
}

// Translate moves the field by d.
func (s SDF) Translate(d v3.Vec) SDF {
	return SDF{S: sdf.Transform3D(s.S, sdf.Translate3d(d))}
}
