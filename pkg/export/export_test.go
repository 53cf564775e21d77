package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/voxcsg/pkg/lattice"
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/render"
	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/hpinc/go3mf"
	"github.com/qmuntal/gltf"
)

func tetra() *mesh.Mesh {
	m := mesh.New()
	a := m.InsertVertex(v3.Vec{})
	b := m.InsertVertex(v3.Vec{X: 1})
	c := m.InsertVertex(v3.Vec{Y: 1})
	d := m.InsertVertex(v3.Vec{Z: 1})
	m.AddTriangle(a, c, b)
	m.AddTriangle(a, b, d)
	m.AddTriangle(a, d, c)
	m.AddTriangle(b, c, d)
	return m
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"out.stl", STL, true},
		{"dir/out.GLB", GLB, true},
		{"out.3mf", ThreeMF, true},
		{"out.dxf", DXF, true},
		{"out.obj", "", false},
		{"out", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok %v", err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.glb")
	if err := WriteGLB(path, render.Smooth(tetra(), "tetra")); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatalf("gltf.Open: %v", err)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Fatalf("expected one mesh with one primitive")
	}
	prim := doc.Meshes[0].Primitives[0]
	if n := doc.Accessors[prim.Attributes[gltf.POSITION]].Count; n != 4 {
		t.Errorf("position count = %d, want 4", n)
	}
	if n := doc.Accessors[*prim.Indices].Count; n != 12 {
		t.Errorf("index count = %d, want 12", n)
	}
}

func TestWriteGLBEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.glb")
	if err := WriteGLB(path, render.Smooth(mesh.New(), "empty")); err == nil {
		t.Fatal("expected error for empty buffers")
	}
}

func TestWrite3MF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.3mf")
	if err := Write3MF(path, tetra()); err != nil {
		t.Fatalf("Write3MF: %v", err)
	}
	r, err := go3mf.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(model.Resources.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(model.Resources.Objects))
	}
	obj := model.Resources.Objects[0].Mesh
	if len(obj.Vertices.Vertex) != 4 || len(obj.Triangles.Triangle) != 4 {
		t.Errorf("decoded %d vertices, %d triangles", len(obj.Vertices.Vertex), len(obj.Triangles.Triangle))
	}
}

func TestWriteDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tetra.dxf")
	if err := WriteDXF(path, tetra()); err != nil {
		t.Fatalf("WriteDXF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "3DFACE"); got != 4 {
		t.Errorf("3DFACE count = %d, want 4", got)
	}
}

func TestWriteLatticeDXF(t *testing.T) {
	l := lattice.New(lattice.Params{SphereRadius: 0.1, CylinderRadius: 0.1, VolumeDiag: v3.Vec{X: 1, Y: 1, Z: 1}, CubeLength: 1})
	path := filepath.Join(t.TempDir(), "lattice.dxf")
	if err := WriteLatticeDXF(path, l); err != nil {
		t.Fatalf("WriteLatticeDXF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "LINE") || !strings.Contains(string(data), LatticeLayer) {
		t.Error("expected lattice lines on the lattice layer")
	}
}

func TestWriteMeshDispatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.stl", "a.glb", "a.3mf", "a.dxf"} {
		path := filepath.Join(dir, name)
		if err := WriteMesh(path, tetra()); err != nil {
			t.Fatalf("WriteMesh(%s): %v", name, err)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written", name)
		}
	}
	if err := WriteMesh(filepath.Join(dir, "a.obj"), tetra()); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestWriteMeshFaceted(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"smooth", nil, 4},
		{"faceted", []Option{WithFaceted()}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tetra.glb")
			if err := WriteMesh(path, tetra(), tt.opts...); err != nil {
				t.Fatalf("WriteMesh: %v", err)
			}
			doc, err := gltf.Open(path)
			if err != nil {
				t.Fatalf("gltf.Open: %v", err)
			}
			prim := doc.Meshes[0].Primitives[0]
			if n := doc.Accessors[prim.Attributes[gltf.POSITION]].Count; n != tt.want {
				t.Errorf("position count = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestWriteVoxelsGLB(t *testing.T) {
	v := voxel.NewVolume(2, 1, 1)
	v.SetFrame(v3.Vec{}, v3.Vec{X: 2, Y: 1, Z: 1})
	v.Set(0, 0, 0, true)
	v.Set(1, 0, 0, true)

	path := filepath.Join(t.TempDir(), "voxels.glb")
	if err := WriteVoxelsGLB(path, v); err != nil {
		t.Fatalf("WriteVoxelsGLB: %v", err)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatalf("gltf.Open: %v", err)
	}
	// two cubes sharing one hidden face: 10 exposed quads
	prim := doc.Meshes[0].Primitives[0]
	if n := doc.Accessors[*prim.Indices].Count; n != 60 {
		t.Errorf("index count = %d, want 60", n)
	}

	empty := voxel.NewVolume(2, 2, 2)
	if err := WriteVoxelsGLB(filepath.Join(t.TempDir(), "e.glb"), empty); err == nil {
		t.Error("expected error for empty volume")
	}
}
