package lattice

import (
	"context"
	"log"

	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/chazu/voxcsg/pkg/voxel"
)

// Voxelise ORs a sphere at every live vertex and a cylinder along every
// live edge into vol. Each primitive is sampled over its own bounds only.
// progress, if non-nil, is called once per primitive.
func (l *Lattice) Voxelise(ctx context.Context, vol *voxel.Volume, progress func(done, total int)) error {
	liveVerts, liveEdges := l.NumLive()
	total := liveVerts + liveEdges
	done := 0
	step := func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	for i, p := range l.Verts {
		if l.DeadVerts[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		orShape(vol, shape.Sphere{Center: p, Radius: l.SphereRadius})
		step()
	}

	for i, e := range l.Edges {
		if l.DeadEdges[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.liveVert(e[0]) || !l.liveVert(e[1]) {
			log.Printf("lattice: voxelise: edge %d is live but endpoint %v is dead or missing, failed to snap", i, e)
			step()
			continue
		}
		orShape(vol, shape.Cylinder{Start: l.Verts[e[0]], End: l.Verts[e[1]], Radius: l.CylinderRadius})
		step()
	}
	return nil
}

func orShape(vol *voxel.Volume, s shape.Shape) {
	box, _ := s.Bounds()
	lo, hi := vol.Bounds(box)
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				if s.Contains(vol.VoxelPos(x, y, z)) {
					vol.Set(x, y, z, true)
				}
			}
		}
	}
}
