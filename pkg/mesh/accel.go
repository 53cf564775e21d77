package mesh

import (
	"log"
	"math"
	"math/rand"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// DefaultSpheres is the accelerator resolution used when a containment
// query finds no accelerator.
const DefaultSpheres = 20

// containmentRays is the number of rays voted on by ContainsPoint.
const containmentRays = 3

// boundSphere bounds the triangles assigned to it.
type boundSphere struct {
	Center v3.Vec
	Radius float64
	Tris   []int
}

// SetSeed makes containment queries reproducible.
func (m *Mesh) SetSeed(seed int64) {
	m.mu.Lock()
	m.rng = rand.New(rand.NewSource(seed))
	m.mu.Unlock()
}

// NumSpheres returns the size of the current accelerator, zero when none
// has been built.
func (m *Mesh) NumSpheres() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spheres)
}

// BuildAccelerator packs bounding spheres over the mesh so that ray queries
// only visit nearby triangles. maxSpheres bounds the number of spheres
// along the longest side of the bounding box.
func (m *Mesh) BuildAccelerator(maxSpheres int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildAccel(maxSpheres)
}

func (m *Mesh) buildAccel(maxSpheres int) {
	m.spheres = nil
	m.accel = true
	if len(m.Tris) == 0 || maxSpheres <= 0 {
		return
	}

	box := m.BBox()
	diag := box.Max.Sub(box.Min)
	longest := math.Max(diag.X, math.Max(diag.Y, diag.Z))

	// A sphere must be able to hold at least one short edge of the
	// largest triangle, else triangles fall between spheres.
	maxedge := 0.0
	for _, t := range m.Tris {
		if !m.validTri(t) {
			continue
		}
		a, b, c := m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]]
		shortest := math.Min(b.Sub(a).Length(), math.Min(c.Sub(b).Length(), a.Sub(c).Length()))
		maxedge = math.Max(maxedge, shortest)
	}

	packrad := longest / float64(maxSpheres)
	if packrad < maxedge {
		log.Printf("mesh: accelerator sphere radius raised from %g to %g", packrad, maxedge)
		packrad = maxedge
	}
	if packrad <= 0 {
		// every vertex coincides
		packrad = 1
	}
	packspace := 2 * packrad

	nx := int(math.Ceil(diag.X/packspace)) + 1
	ny := int(math.Ceil(diag.Y/packrad)) + 1
	nz := int(math.Ceil(diag.Z/packrad)) + 1

	packed := make([]boundSphere, 0, nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				c := v3.Vec{
					X: float64(x)*packspace + box.Min.X,
					Y: float64(y)*packrad + box.Min.Y,
					Z: float64(z)*packrad + box.Min.Z,
				}
				// brick-lay alternate rows
				if (z%2 == 1 && y%2 == 1) || (z%2 == 0 && y%2 == 0) {
					c.X += packrad
				}
				packed = append(packed, boundSphere{Center: c, Radius: packrad})
			}
		}
	}

	// Assign every triangle to each sphere holding one of its vertices.
	r2 := packrad * packrad
	for ti, t := range m.Tris {
		if !m.validTri(t) {
			continue
		}
		assigned := false
		for si := range packed {
			for _, vi := range t.V {
				d := m.Verts[vi].Sub(packed[si].Center)
				if d.Dot(d) <= r2 {
					packed[si].Tris = append(packed[si].Tris, ti)
					assigned = true
					break
				}
			}
		}
		if !assigned {
			si := nearestSphere(packed, m.Verts[t.V[0]])
			packed[si].Tris = append(packed[si].Tris, ti)
		}
	}

	// Drop empty spheres and tighten the rest around their own vertices.
	for _, s := range packed {
		if len(s.Tris) == 0 {
			continue
		}
		var verts []int
		for _, ti := range s.Tris {
			verts = append(verts, m.Tris[ti].V[:]...)
		}
		verts = lo.Uniq(verts)

		var centre v3.Vec
		for _, vi := range verts {
			centre = centre.Add(m.Verts[vi])
		}
		centre = centre.DivScalar(float64(len(verts)))
		radius := 0.0
		for _, vi := range verts {
			radius = math.Max(radius, m.Verts[vi].Sub(centre).Length())
		}
		s.Center = centre
		s.Radius = radius
		m.spheres = append(m.spheres, s)
	}
}

func nearestSphere(spheres []boundSphere, p v3.Vec) int {
	best, bestD := 0, math.Inf(1)
	for i, s := range spheres {
		d := p.Sub(s.Center)
		if dd := d.Dot(d); dd < bestD {
			best, bestD = i, dd
		}
	}
	return best
}

func (m *Mesh) validTri(t Triangle) bool {
	n := len(m.Verts)
	return inRange(t.V[0], n) && inRange(t.V[1], n) && inRange(t.V[2], n)
}

// ContainsPoint reports whether p is inside the mesh. Several randomly
// directed rays are cast from p; a ray votes inside when it crosses the
// surface an odd number of times, and the majority decides.
func (m *Mesh) ContainsPoint(p v3.Vec) bool {
	m.mu.Lock()
	if !m.accel {
		m.buildAccel(DefaultSpheres)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(1))
	}
	spheres := m.spheres
	var dirs [containmentRays]v3.Vec
	for i := range dirs {
		dirs[i] = randomDirection(m.rng)
	}
	m.mu.Unlock()

	inside := 0
	for _, dir := range dirs {
		if m.rayCrossings(p, dir, spheres)%2 == 1 {
			inside++
		}
	}
	return inside > containmentRays-inside
}

// randomDirection draws a unit vector, redrawing the zero vector.
func randomDirection(rng *rand.Rand) v3.Vec {
	for {
		d := v3.Vec{
			X: rng.Float64()*1000 - 500,
			Y: rng.Float64()*1000 - 500,
			Z: rng.Float64()*1000 - 500,
		}
		if l := d.Length(); l > 1e-9 {
			return d.DivScalar(l)
		}
	}
}

// rayCrossings counts the candidate triangles crossed by the ray.
func (m *Mesh) rayCrossings(orig, dir v3.Vec, spheres []boundSphere) int {
	var cand []int
	for _, s := range spheres {
		if rayPointDist(orig, dir, s.Center) <= s.Radius {
			cand = append(cand, s.Tris...)
		}
	}
	cand = lo.Uniq(cand)

	hits := 0
	for _, ti := range cand {
		t := m.Tris[ti]
		a, b, c := m.Verts[t.V[0]], m.Verts[t.V[1]], m.Verts[t.V[2]]
		if _, ok := intersectRayTriangle(orig, dir, a, b, c); ok {
			hits++
		} else if _, ok := intersectRayTriangle(orig, dir, a, c, b); ok {
			hits++
		}
	}
	return hits
}

// rayPointDist returns the distance from p to the line through orig along
// the unit vector dir.
func rayPointDist(orig, dir, p v3.Vec) float64 {
	d := p.Sub(orig)
	return d.Sub(dir.MulScalar(d.Dot(dir))).Length()
}

const rayEpsilon = 1e-9

// intersectRayTriangle is the Möller–Trumbore test against the front face
// of (a,b,c). It returns the ray parameter of the hit.
func intersectRayTriangle(orig, dir, a, b, c v3.Vec) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if det < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := orig.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := inv * e2.Dot(q)
	if t <= rayEpsilon {
		return 0, false
	}
	return t, true
}
