// Package scene drives the pipeline from a solid description to a surface
// mesh: a CSG tree or strut lattice is voxelized, then a mesh is extracted
// from the voxels and optionally post-processed.
//
// A scene only moves forward through its representations. Clear returns it
// to an empty tree.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/chazu/voxcsg/pkg/config"
	"github.com/chazu/voxcsg/pkg/csg"
	"github.com/chazu/voxcsg/pkg/lattice"
	"github.com/chazu/voxcsg/pkg/march"
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrWrongState is returned when an operation is not valid for the scene's
// current representation.
var ErrWrongState = errors.New("scene: operation not valid in current state")

// Rep is the most refined representation a scene holds.
type Rep int

const (
	RepTree Rep = iota
	RepVoxels
	RepIsosurface
)

func (r Rep) String() string {
	switch r {
	case RepTree:
		return "tree"
	case RepVoxels:
		return "voxels"
	case RepIsosurface:
		return "isosurface"
	default:
		return fmt.Sprintf("Rep(%d)", int(r))
	}
}

// Smoother relaxes a mesh in place.
type Smoother interface {
	Smooth(m *mesh.Mesh, iterations int, factor float64)
}

// Deformer moves the vertices of a mesh in place.
type Deformer interface {
	Apply(m *mesh.Mesh)
}

// Smoothing parameters handed to a Smoother.
const (
	SmoothIterations = 6
	SmoothFactor     = 1.0
)

// sphereFit is the box size the sphere scene fits its mesh to.
const sphereFit = 10

// Scene holds one solid through the pipeline.
type Scene struct {
	cfg config.Config

	rep  Rep
	tree *csg.Tree
	lat  *lattice.Lattice
	vol  *voxel.Volume
	mesh *mesh.Mesh
}

// New returns an empty scene.
func New(cfg config.Config) *Scene {
	s := &Scene{cfg: cfg}
	s.Clear()
	return s
}

// Clear drops every representation and returns to an empty tree.
func (s *Scene) Clear() {
	s.rep = RepTree
	s.tree = &csg.Tree{Root: csg.NoNode}
	s.lat = nil
	s.vol = nil
	s.mesh = nil
}

// Rep returns the current representation.
func (s *Scene) Rep() Rep { return s.rep }

// Tree returns the installed CSG tree, empty in lattice mode.
func (s *Scene) Tree() *csg.Tree { return s.tree }

// Lattice returns the installed lattice, or nil.
func (s *Scene) Lattice() *lattice.Lattice { return s.lat }

// Volume returns the voxels, or nil before voxelization.
func (s *Scene) Volume() *voxel.Volume { return s.vol }

// Mesh returns the extracted surface, or nil before extraction.
func (s *Scene) Mesh() *mesh.Mesh { return s.mesh }

func (s *Scene) require(r Rep, op string) error {
	if s.rep != r {
		return fmt.Errorf("%w: %s needs %s, scene holds %s", ErrWrongState, op, r, s.rep)
	}
	return nil
}

// SetTree installs a CSG tree, replacing any lattice.
func (s *Scene) SetTree(t *csg.Tree) error {
	if err := s.require(RepTree, "set tree"); err != nil {
		return err
	}
	if t == nil {
		t = &csg.Tree{Root: csg.NoNode}
	}
	if err := csg.Check(t); err != nil {
		return err
	}
	s.tree = t
	s.lat = nil
	return nil
}

// SampleScene installs a sphere and diagonal strut with a bore along y.
func (s *Scene) SampleScene() error {
	return s.SetTree(csg.SampleTree())
}

// IntersectScene installs a sphere clipped to a rod along z.
func (s *Scene) IntersectScene() error {
	return s.SetTree(csg.IntersectTree())
}

// LoadSTLScene installs a mesh read from path, centred and scaled so its
// longest side equals fit. A non-positive fit uses the configured size.
func (s *Scene) LoadSTLScene(path string, fit float64) error {
	if err := s.require(RepTree, "load stl"); err != nil {
		return err
	}
	if fit <= 0 {
		fit = s.cfg.FitSize
	}
	m, err := s.loadMesh(path, fit)
	if err != nil {
		return err
	}
	return s.SetTree(csg.ShapeTree(m, path))
}

// SphereScene installs the mesh at meshPath fitted to a 10-unit box.
func (s *Scene) SphereScene(meshPath string) error {
	return s.LoadSTLScene(meshPath, sphereFit)
}

func (s *Scene) loadMesh(path string, fit float64) (*mesh.Mesh, error) {
	m := mesh.New()
	if !m.ReadSTLFile(path) {
		return nil, fmt.Errorf("scene: could not load mesh %s", path)
	}
	m.BoxFit(fit)
	m.SetSeed(s.cfg.Seed)
	m.BuildAccelerator(s.cfg.AccelSpheres)
	log.Printf("scene: loaded %s: %d vertices, %d triangles, %d bounding spheres", path, m.NumVerts(), m.NumTris(), m.NumSpheres())
	return m, nil
}

// LatticeScene packs the configured lattice volume with cubes and applies
// the configured twist.
func (s *Scene) LatticeScene() error {
	if err := s.require(RepTree, "lattice scene"); err != nil {
		return err
	}
	l := lattice.New(s.cfg.LatticeParams())
	if s.cfg.Lattice.Twist != 0 {
		l.Deform(lattice.Twist(s.cfg.Lattice.Twist))
	}
	s.useLattice(l)
	return nil
}

// LatticeMeshScene fills the mesh at path with lattice cubes. The mesh is
// fitted to the lattice volume, cubes whose centres fall outside it are
// skipped and joints left outside are culled.
func (s *Scene) LatticeMeshScene(path string) error {
	if err := s.require(RepTree, "lattice mesh scene"); err != nil {
		return err
	}
	p := s.cfg.LatticeParams()
	m, err := s.loadMesh(path, math.Min(p.VolumeDiag.X, math.Min(p.VolumeDiag.Y, p.VolumeDiag.Z)))
	if err != nil {
		return err
	}
	l := &lattice.Lattice{Params: p}
	l.PackInMesh(m)
	l.IntersectMesh(m)
	if s.cfg.Lattice.Twist != 0 {
		l.Deform(lattice.Twist(s.cfg.Lattice.Twist))
	}
	s.useLattice(l)
	return nil
}

func (s *Scene) useLattice(l *lattice.Lattice) {
	verts, edges := l.NumLive()
	log.Printf("scene: lattice with %d live joints and %d live struts", verts, edges)
	s.lat = l
	s.tree = &csg.Tree{Root: csg.NoNode}
}

// GridScene loads an n×n×n occupancy grid as the voxel representation,
// skipping evaluation. Voxels take the configured edge length and the grid
// is centred on the origin.
func (s *Scene) GridScene(path string, n int) error {
	if err := s.require(RepTree, "grid scene"); err != nil {
		return err
	}
	vol, err := voxel.ReadGridFile(path, n)
	if err != nil {
		return err
	}
	frameVolume(vol, s.cfg.VoxelLength, v3.Vec{})
	s.vol = vol
	s.rep = RepVoxels
	return nil
}

// frameVolume centres vol on centre with cubic voxels of side voxlen.
func frameVolume(vol *voxel.Volume, voxlen float64, centre v3.Vec) {
	x, y, z := vol.Dim()
	diag := v3.Vec{X: float64(x) * voxlen, Y: float64(y) * voxlen, Z: float64(z) * voxlen}
	vol.SetFrame(centre.Sub(diag.MulScalar(0.5)), diag)
}

// extent returns the size and centre of the region to voxelise. A deformed
// lattice may have left its packing volume, so it is framed by its joints.
func (s *Scene) extent() (diag, centre v3.Vec) {
	if s.lat == nil {
		return s.cfg.Diagonal(), v3.Vec{}
	}
	if s.lat.Deformed() {
		if box, ok := s.lat.Extent(); ok {
			diag = box.Max.Sub(box.Min)
			return diag, box.Min.Add(diag.MulScalar(0.5))
		}
	}
	return s.lat.VolumeDiag, v3.Vec{}
}

// Voxelise samples the tree, or the lattice if one is installed, into a
// grid of cubic voxels of side voxlen. The grid covers the scene diagonal
// (the lattice volume in lattice mode, or the bounds of its struts once
// deformed) plus a one-voxel border so the extracted surface closes.
// progress may be nil.
func (s *Scene) Voxelise(ctx context.Context, voxlen float64, progress func(done, total int)) error {
	if err := s.require(RepTree, "voxelise"); err != nil {
		return err
	}
	if voxlen <= 0 {
		return fmt.Errorf("scene: voxel length %g must be positive", voxlen)
	}
	diag, centre := s.extent()
	vol := voxel.NewVolume(
		int(math.Ceil(diag.X/voxlen))+2,
		int(math.Ceil(diag.Y/voxlen))+2,
		int(math.Ceil(diag.Z/voxlen))+2,
	)
	frameVolume(vol, voxlen, centre)
	x, y, z := vol.Dim()
	log.Printf("scene: voxel volume %d x %d x %d", x, y, z)

	if s.lat != nil {
		if err := s.lat.Voxelise(ctx, vol, progress); err != nil {
			return err
		}
	} else {
		opts := []csg.Option{csg.WithWorkers(s.cfg.Workers)}
		if progress != nil {
			opts = append(opts, csg.WithProgress(progress))
		}
		if err := csg.Evaluate(ctx, s.tree, vol, opts...); err != nil {
			return err
		}
	}
	s.vol = vol
	s.rep = RepVoxels
	return nil
}

// Extract runs marching cubes over the voxels.
func (s *Scene) Extract() error {
	if err := s.require(RepVoxels, "extract"); err != nil {
		return err
	}
	m, err := march.ExtractContext(context.Background(), s.vol, s.cfg.Workers)
	if err != nil {
		return err
	}
	s.setSurface(m)
	return nil
}

// CubeSurface builds the blocky voxel-face surface instead of marching
// cubes.
func (s *Scene) CubeSurface() error {
	if err := s.require(RepVoxels, "cube surface"); err != nil {
		return err
	}
	s.setSurface(lattice.CubeMesh(s.vol))
	return nil
}

func (s *Scene) setSurface(m *mesh.Mesh) {
	m.SetSeed(s.cfg.Seed)
	log.Printf("scene: surface with %d vertices, %d triangles", m.NumVerts(), m.NumTris())
	s.mesh = m
	s.rep = RepIsosurface
}

// Smooth hands the surface to sm.
func (s *Scene) Smooth(sm Smoother) error {
	if err := s.require(RepIsosurface, "smooth"); err != nil {
		return err
	}
	sm.Smooth(s.mesh, SmoothIterations, SmoothFactor)
	return nil
}

// Deform hands the surface to d.
func (s *Scene) Deform(d Deformer) error {
	if err := s.require(RepIsosurface, "deform"); err != nil {
		return err
	}
	d.Apply(s.mesh)
	return nil
}
