package export

import (
	"fmt"

	"github.com/chazu/voxcsg/pkg/lattice"
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// Layer names used in DXF output.
const (
	MeshLayer    = "mesh"
	LatticeLayer = "lattice"
)

// WriteDXF writes one 3DFACE per triangle on the mesh layer.
func WriteDXF(path string, m *mesh.Mesh) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(MeshLayer, color.Red, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("export: dxf %s: %w", path, err)
	}
	d.ChangeLayer(MeshLayer)
	for i, t := range m.Tris {
		a, b, c := m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]]
		// A triangular 3DFACE repeats its last corner.
		if _, err := d.ThreeDFace([][]float64{
			{a.X, a.Y, a.Z},
			{b.X, b.Y, b.Z},
			{c.X, c.Y, c.Z},
			{c.X, c.Y, c.Z},
		}); err != nil {
			return fmt.Errorf("export: dxf %s: triangle %d: %w", path, i, err)
		}
	}
	return save(d, path)
}

// WriteLatticeDXF writes one LINE per live strut on the lattice layer.
func WriteLatticeDXF(path string, l *lattice.Lattice) error {
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LatticeLayer, color.Cyan, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("export: dxf %s: %w", path, err)
	}
	d.ChangeLayer(LatticeLayer)
	for i, e := range l.Edges {
		if l.DeadEdges[i] {
			continue
		}
		a, b := l.Verts[e[0]], l.Verts[e[1]]
		if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
			return fmt.Errorf("export: dxf %s: edge %d: %w", path, i, err)
		}
	}
	return save(d, path)
}

func save(d *dxf.Drawing, path string) error {
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: dxf %s: %w", path, err)
	}
	return nil
}
