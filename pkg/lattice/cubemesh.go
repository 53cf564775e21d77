package lattice

import (
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/voxel"
)

// Face mask bits, one per voxel side.
const (
	faceNegX = 1 << iota
	facePosX
	faceNegY
	facePosY
	faceNegZ
	facePosZ
)

type cubeFace struct {
	bit     int
	step    [3]int    // neighbour offset
	corners [4][3]int // counter-clockwise seen from outside
}

var cubeFaces = [6]cubeFace{
	{faceNegX, [3]int{-1, 0, 0}, [4][3]int{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	{facePosX, [3]int{1, 0, 0}, [4][3]int{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{faceNegY, [3]int{0, -1, 0}, [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{facePosY, [3]int{0, 1, 0}, [4][3]int{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}},
	{faceNegZ, [3]int{0, 0, -1}, [4][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
	{facePosZ, [3]int{0, 0, 1}, [4][3]int{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
}

// FaceMask returns the exposed sides of voxel (x,y,z): a bit is set when
// the neighbour on that side is empty or outside the grid.
func FaceMask(vol *voxel.Volume, x, y, z int) int {
	mask := 0
	for _, f := range cubeFaces {
		nx, ny, nz := x+f.step[0], y+f.step[1], z+f.step[2]
		if !vol.InBounds(nx, ny, nz) || !vol.Get(nx, ny, nz) {
			mask |= f.bit
		}
	}
	return mask
}

// CubeMesh builds the blocky surface of vol: two outward-wound triangles
// per exposed voxel face. Faces shared by two occupied voxels are never
// emitted, and coincident corners are merged.
func CubeMesh(vol *voxel.Volume) *mesh.Mesh {
	m := mesh.New()
	dx, dy, dz := vol.Dim()
	for z := 0; z < dz; z++ {
		for y := 0; y < dy; y++ {
			for x := 0; x < dx; x++ {
				if !vol.Get(x, y, z) {
					continue
				}
				mask := FaceMask(vol, x, y, z)
				for _, f := range cubeFaces {
					if mask&f.bit == 0 {
						continue
					}
					var q [4]int
					for i, c := range f.corners {
						q[i] = m.InsertVertex(vol.Pos(
							float64(x)-0.5+float64(c[0]),
							float64(y)-0.5+float64(c[1]),
							float64(z)-0.5+float64(c[2]),
						))
					}
					m.AddTriangle(q[0], q[1], q[2])
					m.AddTriangle(q[0], q[2], q[3])
				}
			}
		}
	}
	return m
}
