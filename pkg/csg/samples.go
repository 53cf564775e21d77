package csg

import (
	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SampleTree is a sphere unioned with a diagonal cylinder, with a second
// cylinder along y bored out of the result.
func SampleTree() *Tree {
	b := NewBuilder()
	sph := b.LabeledLeaf(shape.Sphere{Radius: 4}, "sphere")
	cyl1 := b.LabeledLeaf(shape.Cylinder{
		Start:  v3.Vec{X: -7, Y: -7},
		End:    v3.Vec{X: 7, Y: 7},
		Radius: 2,
	}, "diagonal")
	cyl2 := b.LabeledLeaf(shape.Cylinder{
		Start:  v3.Vec{Y: -7},
		End:    v3.Vec{Y: 7},
		Radius: 2.5,
	}, "bore")
	combine := b.Op(voxel.Union, sph, cyl1)
	root := b.Op(voxel.Difference, combine, cyl2)
	t, err := b.Build(root)
	if err != nil {
		panic(err)
	}
	return t
}

// IntersectTree is a sphere clipped to a cylinder along z.
func IntersectTree() *Tree {
	b := NewBuilder()
	sph := b.LabeledLeaf(shape.Sphere{Radius: 5}, "sphere")
	cyl := b.LabeledLeaf(shape.Cylinder{
		Start:  v3.Vec{Z: -1},
		End:    v3.Vec{Z: 7},
		Radius: 1,
	}, "rod")
	t, err := b.Build(b.Op(voxel.Intersection, sph, cyl))
	if err != nil {
		panic(err)
	}
	return t
}

// ShapeTree is a single-leaf tree.
func ShapeTree(s shape.Shape, label string) *Tree {
	b := NewBuilder()
	t, err := b.Build(b.LabeledLeaf(s, label))
	if err != nil {
		panic(err)
	}
	return t
}
