package lattice

import (
	"context"
	"math"
	"testing"

	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type containerFunc func(p v3.Vec) bool

func (f containerFunc) Contains(p v3.Vec) bool { return f(p) }

var positiveX = containerFunc(func(p v3.Vec) bool { return p.X >= 0 })

func TestNewPacksDefaultVolume(t *testing.T) {
	l := New(DefaultParams())
	if len(l.Verts) != 11*11*11 {
		t.Errorf("got %d vertices, want %d", len(l.Verts), 11*11*11)
	}
	if len(l.Edges) != 3*10*11*11 {
		t.Errorf("got %d edges, want %d", len(l.Edges), 3*10*11*11)
	}
	if !l.DuplicateValidity() || !l.DanglingVertValidity() || !l.EdgeBoundValidity() || !l.ConnectionValidity() {
		t.Error("default lattice should pass every validator")
	}
}

func TestAddCubeSnap(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	if l.AddCube(v3.Vec{}, 1) {
		t.Error("first cube cannot snap onto an empty lattice")
	}
	if !l.AddCube(v3.Vec{X: 1}, 1) {
		t.Error("adjacent cube should snap")
	}
	if l.AddCube(v3.Vec{X: 5, Y: 5, Z: 5}, 1) {
		t.Error("distant cube should not snap")
	}
	if len(l.Verts) != 12+8 {
		t.Errorf("got %d vertices, want 20", len(l.Verts))
	}
	if len(l.Edges) != 20+12 {
		t.Errorf("got %d edges, want 32", len(l.Edges))
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		name   string
		extent v3.Vec
		length float64
		ok     bool
		verts  int
		edges  int
	}{
		{"two per axis", v3.Vec{X: 2, Y: 2, Z: 2}, 1, true, 27, 54},
		{"partial cubes dropped", v3.Vec{X: 2.5, Y: 1.5, Z: 1}, 1, true, 3 * 2 * 2, 2*2*2 + 3*1*2 + 3*2*1},
		{"non-positive extent", v3.Vec{X: 2, Y: -1, Z: 2}, 1, false, 0, 0},
		{"non-positive length", v3.Vec{X: 2, Y: 2, Z: 2}, 0, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(DefaultParams())
			if got := l.Pack(v3.Vec{X: -1, Y: -1, Z: -1}, tt.extent, tt.length); got != tt.ok {
				t.Errorf("Pack = %v, want %v", got, tt.ok)
			}
			if len(l.Verts) != tt.verts || len(l.Edges) != tt.edges {
				t.Errorf("got %d vertices and %d edges, want %d and %d", len(l.Verts), len(l.Edges), tt.verts, tt.edges)
			}
		})
	}
}

func TestPackSnapsWithFractionalLength(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	if !l.Pack(v3.Vec{X: -0.35, Y: -0.35, Z: -0.35}, v3.Vec{X: 0.75, Y: 0.75, Z: 0.75}, 0.1) {
		t.Fatal("every cube should snap")
	}
	if len(l.Verts) != 8*8*8 {
		t.Errorf("got %d vertices, want %d", len(l.Verts), 8*8*8)
	}
}

func TestPackInMesh(t *testing.T) {
	l := New(DefaultParams())
	l.PackInMesh(positiveX)
	if len(l.Verts) != 6*11*11 {
		t.Errorf("got %d vertices, want %d", len(l.Verts), 6*11*11)
	}
	for _, p := range l.Verts {
		if p.X < 0 {
			t.Fatalf("vertex %v belongs to a cube outside the container", p)
		}
	}
	if !l.ConnectionValidity() {
		t.Error("half lattice should be connected")
	}
}

func TestIntersectMesh(t *testing.T) {
	l := New(DefaultParams())
	l.IntersectMesh(containerFunc(func(v3.Vec) bool { return false }))
	l.IntersectMesh(positiveX)

	verts, edges := l.NumLive()
	if verts != 6*11*11 {
		t.Errorf("got %d live vertices, want %d", verts, 6*11*11)
	}
	if edges != 5*11*11+2*6*10*11 {
		t.Errorf("got %d live edges, want %d", edges, 5*11*11+2*6*10*11)
	}
	for i, e := range l.Edges {
		if !l.DeadEdges[i] && (l.DeadVerts[e[0]] || l.DeadVerts[e[1]]) {
			t.Fatalf("edge %d is live with a dead endpoint", i)
		}
	}
}

func TestValidators(t *testing.T) {
	cube := func() *Lattice {
		l := &Lattice{Params: DefaultParams()}
		l.AddCube(v3.Vec{}, 1)
		return l
	}

	tests := []struct {
		name     string
		mutate   func(l *Lattice)
		validity func(l *Lattice) bool
		want     bool
	}{
		{"clean duplicates", func(*Lattice) {}, (*Lattice).DuplicateValidity, true},
		{"duplicate vertex", func(l *Lattice) {
			l.Verts = append(l.Verts, l.Verts[3])
			l.DeadVerts = append(l.DeadVerts, false)
		}, (*Lattice).DuplicateValidity, false},
		{"reversed duplicate edge", func(l *Lattice) {
			l.Edges = append(l.Edges, [2]int{l.Edges[0][1], l.Edges[0][0]})
			l.DeadEdges = append(l.DeadEdges, false)
		}, (*Lattice).DuplicateValidity, false},
		{"dangling vertex", func(l *Lattice) {
			l.Verts = append(l.Verts, v3.Vec{X: 9})
			l.DeadVerts = append(l.DeadVerts, false)
		}, (*Lattice).DanglingVertValidity, false},
		{"edge out of bounds", func(l *Lattice) {
			l.Edges = append(l.Edges, [2]int{0, 99})
			l.DeadEdges = append(l.DeadEdges, false)
		}, (*Lattice).EdgeBoundValidity, false},
		{"disconnected", func(l *Lattice) { l.AddCube(v3.Vec{X: 5}, 1) }, (*Lattice).ConnectionValidity, false},
		{"empty is connected", func(l *Lattice) { l.Clear() }, (*Lattice).ConnectionValidity, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := cube()
			tt.mutate(l)
			if got := tt.validity(l); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTwist(t *testing.T) {
	tw := Twist(1)
	got := tw(v3.Vec{X: 1, Y: math.Pi / 2})
	want := v3.Vec{X: 0, Y: math.Pi / 2, Z: -1}
	if got.Sub(want).Length() > 1e-12 {
		t.Errorf("Twist = %v, want %v", got, want)
	}
	if p := tw(v3.Vec{X: 2, Z: 3}); p != (v3.Vec{X: 2, Z: 3}) {
		t.Errorf("points on y=0 should not move, got %v", p)
	}
}

func TestDeformKeepsIndex(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	l.AddCube(v3.Vec{}, 1)
	l.Deform(func(p v3.Vec) v3.Vec { return p.Add(v3.Vec{Z: 10}) })
	if _, ok := l.FindVert(v3.Vec{Z: 10}); !ok {
		t.Error("moved vertex should be found at its new position")
	}
	if _, ok := l.FindVert(v3.Vec{}); ok {
		t.Error("old position should be gone")
	}
	if !l.DuplicateValidity() {
		t.Error("deform should keep vertices distinct")
	}
}

func TestExtent(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	if _, ok := l.Extent(); ok {
		t.Fatal("empty lattice should have no extent")
	}
	l.SphereRadius, l.CylinderRadius = 0.1, 0.25
	l.AddCube(v3.Vec{}, 1)
	if l.Deformed() {
		t.Error("packing alone should not mark the lattice deformed")
	}
	box, ok := l.Extent()
	if !ok {
		t.Fatal("expected an extent")
	}
	if box.Min != (v3.Vec{X: -0.25, Y: -0.25, Z: -0.25}) || box.Max != (v3.Vec{X: 1.25, Y: 1.25, Z: 1.25}) {
		t.Errorf("extent %v", box)
	}

	l.Deform(func(p v3.Vec) v3.Vec { return p.MulScalar(2) })
	if !l.Deformed() {
		t.Error("Deform should mark the lattice deformed")
	}
	if box, _ := l.Extent(); box.Max != (v3.Vec{X: 2.25, Y: 2.25, Z: 2.25}) {
		t.Errorf("deformed extent max %v", box.Max)
	}

	l.Clear()
	if l.Deformed() {
		t.Error("Clear should reset the deformed flag")
	}
}

func cubeVolume() *voxel.Volume {
	v := voxel.NewVolume(40, 40, 40)
	v.SetFrame(v3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, v3.Vec{X: 64 * 0.05, Y: 2, Z: 2})
	return v
}

func TestVoxelise(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	l.AddCube(v3.Vec{}, 1)
	vol := cubeVolume()

	var last, total int
	err := l.Voxelise(context.Background(), vol, func(done, n int) { last, total = done, n })
	if err != nil {
		t.Fatalf("Voxelise: %v", err)
	}
	if total != 20 || last != 20 {
		t.Errorf("progress %d of %d, want 20 of 20", last, total)
	}

	probe := func(p v3.Vec) bool {
		x, y, z := vol.Index(p)
		return vol.Get(x, y, z)
	}
	if !probe(v3.Vec{}) {
		t.Error("corner joint should be occupied")
	}
	if !probe(v3.Vec{X: 0.5}) {
		t.Error("strut midpoint should be occupied")
	}
	if probe(v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Error("cube centre should be empty")
	}
}

func TestVoxeliseSkipsDeadJoint(t *testing.T) {
	l := &Lattice{Params: DefaultParams()}
	l.AddCube(v3.Vec{}, 1)
	l.DeadVerts[0] = true
	vol := cubeVolume()
	if err := l.Voxelise(context.Background(), vol, nil); err != nil {
		t.Fatalf("Voxelise: %v", err)
	}
	x, y, z := vol.Index(v3.Vec{})
	if vol.Get(x, y, z) {
		t.Error("dead joint and its struts should not be rasterized")
	}
}

func TestVoxeliseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(DefaultParams()).Voxelise(ctx, cubeVolume(), nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCubeMesh(t *testing.T) {
	tests := []struct {
		name  string
		on    [][3]int
		tris  int
		verts int
	}{
		{"single voxel", [][3]int{{1, 1, 1}}, 12, 8},
		{"adjacent pair", [][3]int{{1, 1, 1}, {2, 1, 1}}, 20, 12},
		{"empty", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := voxel.NewVolume(4, 4, 4)
			for _, p := range tt.on {
				vol.Set(p[0], p[1], p[2], true)
			}
			m := CubeMesh(vol)
			if m.NumTris() != tt.tris || m.NumVerts() != tt.verts {
				t.Fatalf("got %d triangles over %d vertices, want %d over %d", m.NumTris(), m.NumVerts(), tt.tris, tt.verts)
			}
			if tt.tris > 0 {
				if r := m.Report(); !r.OK() {
					t.Errorf("validity %v", r)
				}
			}
		})
	}
}

func TestCubeMeshOutward(t *testing.T) {
	vol := voxel.NewVolume(4, 4, 4)
	vol.Set(1, 1, 1, true)
	centre := vol.VoxelPos(1, 1, 1)
	m := CubeMesh(vol)
	for i, tri := range m.Tris {
		c := m.Verts[tri.V[0]].Add(m.Verts[tri.V[1]]).Add(m.Verts[tri.V[2]]).DivScalar(3)
		if tri.N.Dot(c.Sub(centre)) <= 0 {
			t.Errorf("triangle %d faces inward", i)
		}
	}
}

func TestFaceMask(t *testing.T) {
	vol := voxel.NewVolume(4, 4, 4)
	vol.Set(0, 0, 0, true)
	vol.Set(1, 0, 0, true)
	if got := FaceMask(vol, 0, 0, 0); got != 0x3f&^facePosX {
		t.Errorf("mask = %06b, want %06b", got, 0x3f&^facePosX)
	}
	if got := FaceMask(vol, 1, 0, 0); got != 0x3f&^faceNegX {
		t.Errorf("mask = %06b, want %06b", got, 0x3f&^faceNegX)
	}
}

func TestDeformerAppliesToMesh(t *testing.T) {
	vol := voxel.NewVolume(4, 4, 4)
	vol.Set(1, 1, 1, true)
	m := CubeMesh(vol)
	before := m.BBox()
	shift := Deformer(func(p v3.Vec) v3.Vec { return p.Add(v3.Vec{Y: 2}) })
	shift.Apply(m)
	after := m.BBox()
	if after.Min.Y != before.Min.Y+2 || after.Max.Y != before.Max.Y+2 {
		t.Errorf("bbox %v, want %v shifted by 2 in y", after, before)
	}
	if r := m.Report(); !r.OK() {
		t.Errorf("validity %v", r)
	}
}
