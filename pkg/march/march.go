// Package march extracts a triangle isosurface from a binary voxel volume
// using marching cubes.
//
// Occupancy is binary, so every surface vertex sits at the midpoint of the
// cell edge it cuts.
package march

import (
	"context"
	"runtime"

	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// corners are the cell corner offsets; bit i of a cell code is corner i.
var corners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// edges joins corner pairs; triTable entries index this list.
var edges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

type triangle [3]v3.Vec

// Extract returns the isosurface of v. Surfaces touching the grid boundary
// are left open.
func Extract(v *voxel.Volume) *mesh.Mesh {
	m, _ := ExtractContext(context.Background(), v, 0)
	return m
}

// ExtractContext is Extract with cancellation. Cell layers along z are
// triangulated concurrently on up to workers goroutines (GOMAXPROCS when
// zero) and merged in order, so the output does not depend on scheduling.
func ExtractContext(ctx context.Context, v *voxel.Volume, workers int) (*mesh.Mesh, error) {
	dx, dy, dz := v.Dim()
	m := mesh.New()
	if dx < 2 || dy < 2 || dz < 2 {
		return m, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	layers := make([][]triangle, dz-1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for z := 0; z < dz-1; z++ {
		z := z
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			layers[z] = layer(v, z, dx, dy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, tris := range layers {
		for _, t := range tris {
			a := m.InsertVertex(t[0])
			b := m.InsertVertex(t[1])
			c := m.InsertVertex(t[2])
			m.AddTriangle(a, b, c)
		}
	}
	return m, nil
}

// layer triangulates the cells whose lower corner lies on slice z.
func layer(v *voxel.Volume, z, dx, dy int) []triangle {
	var out []triangle
	for y := 0; y < dy-1; y++ {
		for x := 0; x < dx-1; x++ {
			code := 0
			for i, c := range corners {
				if v.Get(x+c[0], y+c[1], z+c[2]) {
					code |= 1 << i
				}
			}
			if code == 0 || code == 0xff {
				continue
			}
			row := &triTable[code]
			for k := 0; k < len(row) && row[k] >= 0; k += 3 {
				out = append(out, cellTriangle(v, x, y, z, code, row[k:k+3]))
			}
		}
	}
	return out
}

// cellTriangle places one table triangle in world space, wound so that its
// normal points from occupied towards empty corners.
func cellTriangle(v *voxel.Volume, x, y, z, code int, cut []int8) triangle {
	var t triangle
	var pts [3][3]int // doubled cell-local coordinates
	var outward [3]int
	for j, e := range cut {
		a, b := edges[e][0], edges[e][1]
		ca, cb := corners[a], corners[b]
		for i := 0; i < 3; i++ {
			pts[j][i] = ca[i] + cb[i]
		}
		empty, full := cb, ca
		if code&(1<<a) == 0 {
			empty, full = ca, cb
		}
		for i := 0; i < 3; i++ {
			outward[i] += empty[i] - full[i]
		}
		t[j] = v.Pos(
			float64(x)+float64(pts[j][0])/2,
			float64(y)+float64(pts[j][1])/2,
			float64(z)+float64(pts[j][2])/2,
		)
	}

	u := [3]int{pts[1][0] - pts[0][0], pts[1][1] - pts[0][1], pts[1][2] - pts[0][2]}
	w := [3]int{pts[2][0] - pts[0][0], pts[2][1] - pts[0][1], pts[2][2] - pts[0][2]}
	n := [3]int{
		u[1]*w[2] - u[2]*w[1],
		u[2]*w[0] - u[0]*w[2],
		u[0]*w[1] - u[1]*w[0],
	}
	if n[0]*outward[0]+n[1]*outward[1]+n[2]*outward[2] < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return t
}
