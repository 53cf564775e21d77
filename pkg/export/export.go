// Package export writes meshes and lattices to interchange formats: binary
// glTF, 3MF and DXF. Binary STL lives with the mesh itself.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/render"
)

// Format is an output file format.
type Format string

const (
	STL     Format = "stl"
	GLB     Format = "glb"
	ThreeMF Format = "3mf"
	DXF     Format = "dxf"
)

// FormatFor picks the format from the extension of path.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch f := Format(ext); f {
	case STL, GLB, ThreeMF, DXF:
		return f, nil
	}
	return "", fmt.Errorf("export: unsupported extension %q", filepath.Ext(path))
}

// Option tunes WriteMesh.
type Option func(*options)

type options struct {
	faceted bool
}

// WithFaceted shades glTF output per face instead of per vertex. Other
// formats carry no normals and ignore it.
func WithFaceted() Option {
	return func(o *options) {
		o.faceted = true
	}
}

// WriteMesh writes m to path in the format its extension names.
func WriteMesh(path string, m *mesh.Mesh, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	switch f {
	case STL:
		return m.WriteSTLFile(path)
	case GLB:
		if o.faceted {
			return WriteGLB(path, render.Faceted(m, filepath.Base(path)))
		}
		return WriteGLB(path, render.Smooth(m, filepath.Base(path)))
	case ThreeMF:
		return Write3MF(path, m)
	default:
		return WriteDXF(path, m)
	}
}
