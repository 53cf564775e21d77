package export

import (
	"fmt"

	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/hpinc/go3mf"
)

// Write3MF writes m as a single 3MF object placed once on the build plate.
// Units are millimetres.
func Write3MF(path string, m *mesh.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("export: 3mf %s: no geometry", path)
	}
	obj := &go3mf.Mesh{}
	for _, v := range m.Verts {
		obj.Vertices.Vertex = append(obj.Vertices.Vertex, go3mf.Point3D{float32(v.X), float32(v.Y), float32(v.Z)})
	}
	for _, t := range m.Tris {
		obj.Triangles.Triangle = append(obj.Triangles.Triangle, go3mf.Triangle{
			V1: uint32(t.V[0]),
			V2: uint32(t.V[1]),
			V3: uint32(t.V[2]),
		})
	}

	model := &go3mf.Model{Units: go3mf.UnitMillimeter}
	model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{
		ID:   1,
		Type: go3mf.ObjectTypeModel,
		Mesh: obj,
	})
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: 1})

	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("export: 3mf %s: %w", path, err)
	}
	if err := w.Encode(model); err != nil {
		w.Close()
		return fmt.Errorf("export: 3mf %s: %w", path, err)
	}
	return w.Close()
}
