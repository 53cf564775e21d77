package export

import (
	"fmt"
	"path/filepath"

	"github.com/chazu/voxcsg/pkg/render"
	"github.com/chazu/voxcsg/pkg/voxel"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// WriteGLB writes b as a single-mesh binary glTF scene.
func WriteGLB(path string, b *render.Buffers) error {
	if b.IsEmpty() {
		return fmt.Errorf("export: glb %s: no geometry", path)
	}
	positions := make([][3]float32, b.VertexCount())
	normals := make([][3]float32, b.VertexCount())
	for i := range positions {
		positions[i] = [3]float32{b.Vertices[3*i], b.Vertices[3*i+1], b.Vertices[3*i+2]}
		if 3*i+2 < len(b.Normals) {
			normals[i] = [3]float32{b.Normals[3*i], b.Normals[3*i+1], b.Normals[3*i+2]}
		}
	}

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, positions)
	nrm := modeler.WriteNormal(doc, normals)
	idx := modeler.WriteIndices(doc, b.Indices)
	doc.Meshes = []*gltf.Mesh{{
		Name: b.Name,
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(idx),
			Attributes: map[string]int{
				gltf.POSITION: pos,
				gltf.NORMAL:   nrm,
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: b.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("export: glb %s: %w", path, err)
	}
	return nil
}

// WriteVoxelsGLB writes the exposed faces of the occupied voxels of v.
func WriteVoxelsGLB(path string, v *voxel.Volume) error {
	return WriteGLB(path, render.Voxels(v, filepath.Base(path)))
}
