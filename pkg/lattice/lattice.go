// Package lattice builds a strut lattice of packed cubes, trims it against a
// solid, and voxelizes it as spheres at the joints and cylinders along the
// struts.
package lattice

import (
	"log"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Params sizes the lattice and its rendered struts.
type Params struct {
	SphereRadius   float64
	CylinderRadius float64
	VolumeDiag     v3.Vec
	CubeLength     float64
}

// DefaultParams returns a 10-unit volume of unit cubes with thin struts.
func DefaultParams() Params {
	return Params{
		SphereRadius:   0.1,
		CylinderRadius: 0.1,
		VolumeDiag:     v3.Vec{X: 10, Y: 10, Z: 10},
		CubeLength:     1,
	}
}

// Container is anything that can answer point containment, such as a
// closed mesh.
type Container interface {
	Contains(p v3.Vec) bool
}

// Lattice is a vertex and edge list with soft-delete flags. Dead entries
// keep their indices so edges never need renumbering.
type Lattice struct {
	Verts     []v3.Vec
	DeadVerts []bool
	Edges     [][2]int
	DeadEdges []bool

	Params

	vindex   map[v3.Vec]int
	eindex   map[[2]int]int
	deformed bool
}

// New returns a lattice packed over the default volume described by p.
func New(p Params) *Lattice {
	l := &Lattice{Params: p}
	l.Pack(l.volumeOrigin(), p.VolumeDiag, p.CubeLength)
	return l
}

// Clear removes all vertices and edges.
func (l *Lattice) Clear() {
	l.Verts = nil
	l.DeadVerts = nil
	l.Edges = nil
	l.DeadEdges = nil
	l.vindex = nil
	l.eindex = nil
	l.deformed = false
}

// NumLive returns the number of live vertices and edges.
func (l *Lattice) NumLive() (verts, edges int) {
	for _, d := range l.DeadVerts {
		if !d {
			verts++
		}
	}
	for _, d := range l.DeadEdges {
		if !d {
			edges++
		}
	}
	return verts, edges
}

func (l *Lattice) liveVert(i int) bool {
	return i >= 0 && i < len(l.Verts) && !l.DeadVerts[i]
}

func (l *Lattice) volumeOrigin() v3.Vec {
	return l.VolumeDiag.MulScalar(-0.5)
}

func (l *Lattice) reindex() {
	l.vindex = make(map[v3.Vec]int, len(l.Verts))
	for i, p := range l.Verts {
		if _, ok := l.vindex[p]; !ok {
			l.vindex[p] = i
		}
	}
	l.eindex = make(map[[2]int]int, len(l.Edges))
	for i, e := range l.Edges {
		k := edgeKey(e[0], e[1])
		if _, ok := l.eindex[k]; !ok {
			l.eindex[k] = i
		}
	}
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// FindVert returns the index of the vertex exactly equal to p.
func (l *Lattice) FindVert(p v3.Vec) (int, bool) {
	if l.vindex == nil {
		l.reindex()
	}
	i, ok := l.vindex[p]
	return i, ok
}

// FindEdge returns the index of the edge joining a and b in either
// direction.
func (l *Lattice) FindEdge(a, b int) (int, bool) {
	if l.eindex == nil {
		l.reindex()
	}
	i, ok := l.eindex[edgeKey(a, b)]
	return i, ok
}

func (l *Lattice) insertVert(p v3.Vec) (int, bool) {
	if i, ok := l.FindVert(p); ok {
		return i, true
	}
	l.Verts = append(l.Verts, p)
	l.DeadVerts = append(l.DeadVerts, false)
	i := len(l.Verts) - 1
	l.vindex[p] = i
	return i, false
}

func (l *Lattice) insertEdge(a, b int) {
	if _, ok := l.FindEdge(a, b); ok {
		return
	}
	l.Edges = append(l.Edges, [2]int{a, b})
	l.DeadEdges = append(l.DeadEdges, false)
	l.eindex[edgeKey(a, b)] = len(l.Edges) - 1
}

// cubeEdges joins corners numbered i = 4x+2y+z.
var cubeEdges = [12][2]int{
	{0, 1}, {0, 2}, {1, 3}, {2, 3}, // x = 0 face
	{4, 5}, {4, 6}, {5, 7}, {6, 7}, // x = 1 face
	{0, 4}, {2, 6}, // z = 0 connectors
	{1, 5}, {3, 7}, // z = 1 connectors
}

// AddCube adds the corners and edges of an axis-aligned cube with minimum
// corner origin, merging with existing ones. It reports whether any corner
// was already present, that is, whether the cube snapped on.
func (l *Lattice) AddCube(origin v3.Vec, length float64) bool {
	return l.addCube(origin, [3]int{}, length)
}

// addCube places the cube whose minimum corner is origin + cell*length.
// Corners are computed from integer offsets so neighbouring cubes produce
// bit-identical shared corners.
func (l *Lattice) addCube(origin v3.Vec, cell [3]int, length float64) bool {
	if length <= 0 {
		log.Printf("lattice: add cube: length %g must be positive", length)
	}
	var idx [8]int
	snap := false
	i := 0
	for dx := 0; dx <= 1; dx++ {
		for dy := 0; dy <= 1; dy++ {
			for dz := 0; dz <= 1; dz++ {
				p := v3.Vec{
					X: origin.X + float64(cell[0]+dx)*length,
					Y: origin.Y + float64(cell[1]+dy)*length,
					Z: origin.Z + float64(cell[2]+dz)*length,
				}
				var found bool
				idx[i], found = l.insertVert(p)
				snap = snap || found
				i++
			}
		}
	}
	for _, e := range cubeEdges {
		l.insertEdge(idx[e[0]], idx[e[1]])
	}
	return snap
}

// Pack clears the lattice and fills extent, starting at origin, with
// int(extent/cubelen) cubes per axis. Every cube after the first must snap
// onto the structure; it reports whether they all did.
func (l *Lattice) Pack(origin, extent v3.Vec, cubelen float64) bool {
	l.Clear()
	l.reindex()
	if !(extent.X > 0 && extent.Y > 0 && extent.Z > 0) {
		log.Printf("lattice: pack: expected a positive extent, got %v", extent)
		return false
	}
	if cubelen <= 0 {
		log.Printf("lattice: pack: cube length %g must be positive", cubelen)
		return false
	}
	nx, ny, nz := int(extent.X/cubelen), int(extent.Y/cubelen), int(extent.Z/cubelen)
	ok := true
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				snap := l.addCube(origin, [3]int{x, y, z}, cubelen)
				if (x != 0 || y != 0 || z != 0) && !snap {
					log.Printf("lattice: pack: cube (%d, %d, %d) did not snap to the structure", x, y, z)
					ok = false
				}
			}
		}
	}
	return ok
}

// PackInMesh clears the lattice and packs the default volume, keeping only
// cubes whose centre lies inside c.
func (l *Lattice) PackInMesh(c Container) {
	l.Clear()
	l.reindex()
	origin, extent, cubelen := l.volumeOrigin(), l.VolumeDiag, l.CubeLength
	if !(extent.X > 0 && extent.Y > 0 && extent.Z > 0) || cubelen <= 0 {
		log.Printf("lattice: pack in mesh: expected a positive extent and cube length, got %v and %g", extent, cubelen)
		return
	}
	half := 0.5 * cubelen
	nx, ny, nz := int(extent.X/cubelen), int(extent.Y/cubelen), int(extent.Z/cubelen)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				centre := v3.Vec{
					X: origin.X + float64(x)*cubelen + half,
					Y: origin.Y + float64(y)*cubelen + half,
					Z: origin.Z + float64(z)*cubelen + half,
				}
				if c.Contains(centre) {
					l.addCube(origin, [3]int{x, y, z}, cubelen)
				}
			}
		}
	}
}

// IntersectMesh marks dead every vertex outside c and every edge touching
// a dead vertex. Earlier intersections are discarded first.
func (l *Lattice) IntersectMesh(c Container) {
	for i := range l.DeadVerts {
		l.DeadVerts[i] = false
	}
	for i := range l.DeadEdges {
		l.DeadEdges[i] = false
	}
	dead := 0
	for i, p := range l.Verts {
		if !c.Contains(p) {
			l.DeadVerts[i] = true
			dead++
		}
	}
	for i, e := range l.Edges {
		if !l.liveVert(e[0]) || !l.liveVert(e[1]) {
			l.DeadEdges[i] = true
		}
	}
	log.Printf("lattice: culled %d of %d vertices", dead, len(l.Verts))
}
