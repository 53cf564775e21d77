// Package voxel provides a dense, bit-packed boolean voxel volume together
// with the affine frame that maps grid indices to world space.
//
// Voxels along x are packed 32 to a word, most significant bit first, so the
// x dimension is always padded up to a multiple of 32.
package voxel

import (
	"fmt"
	"log"
	"math"
	"math/bits"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PackWidth is the number of x-voxels stored in one word.
const PackWidth = 32

// Frame places a volume in world space. Origin is the corner of voxel
// (0,0,0) and Diag spans the whole padded grid.
type Frame struct {
	Origin v3.Vec
	Diag   v3.Vec
}

// Volume is a bit-packed 3D occupancy grid.
type Volume struct {
	xdim, ydim, zdim int
	xspan            int
	grid             []uint32
	frame            Frame
}

// NewVolume allocates an empty volume. The x extent is rounded up to a
// multiple of PackWidth. Non-positive extents panic.
func NewVolume(x, y, z int) *Volume {
	v := &Volume{}
	v.SetDim(x, y, z)
	return v
}

// SetDim reallocates storage for the given extents and clears every voxel.
// The frame is reset to a unit-edge grid anchored at the world origin.
func (v *Volume) SetDim(x, y, z int) {
	if x <= 0 || y <= 0 || z <= 0 {
		panic(fmt.Sprintf("voxel.SetDim: non-positive extent %dx%dx%d", x, y, z))
	}
	v.xspan = (x + PackWidth - 1) / PackWidth
	v.xdim = v.xspan * PackWidth
	v.ydim = y
	v.zdim = z
	v.grid = make([]uint32, v.xspan*v.ydim*v.zdim)
	v.frame = Frame{Diag: v3.Vec{X: float64(v.xdim), Y: float64(v.ydim), Z: float64(v.zdim)}}
}

// Dim returns the padded extents.
func (v *Volume) Dim() (x, y, z int) {
	return v.xdim, v.ydim, v.zdim
}

// XSpan returns the number of words per x row.
func (v *Volume) XSpan() int {
	return v.xspan
}

// Clear releases storage. The volume must be re-dimensioned before reuse.
func (v *Volume) Clear() {
	v.xdim, v.ydim, v.zdim, v.xspan = 0, 0, 0, 0
	v.grid = nil
}

// Fill sets every voxel to on. Both states are uniform bit patterns, so a
// whole-word fill is exact.
func (v *Volume) Fill(on bool) {
	var w uint32
	if on {
		w = math.MaxUint32
	}
	for i := range v.grid {
		v.grid[i] = w
	}
}

func (v *Volume) flatten(x, y, z int) (word int, bit uint, ok bool) {
	if x < 0 || x >= v.xdim || y < 0 || y >= v.ydim || z < 0 || z >= v.zdim {
		return 0, 0, false
	}
	word = z*(v.xspan*v.ydim) + y*v.xspan + x/PackWidth
	bit = uint(PackWidth - 1 - x%PackWidth)
	return word, bit, true
}

// InBounds reports whether (x,y,z) addresses a voxel of the volume.
func (v *Volume) InBounds(x, y, z int) bool {
	_, _, ok := v.flatten(x, y, z)
	return ok
}

// Get returns the occupancy of voxel (x,y,z). Out-of-range requests are
// logged and read as empty.
func (v *Volume) Get(x, y, z int) bool {
	word, bit, ok := v.flatten(x, y, z)
	if !ok {
		log.Printf("voxel: get (%d, %d, %d) out of bounds", x, y, z)
		return false
	}
	return (v.grid[word]>>bit)&1 == 1
}

// Set writes the occupancy of voxel (x,y,z) and reports whether the write
// was applied. Out-of-range requests are logged and ignored.
func (v *Volume) Set(x, y, z int, on bool) bool {
	word, bit, ok := v.flatten(x, y, z)
	if !ok {
		log.Printf("voxel: set (%d, %d, %d) out of bounds", x, y, z)
		return false
	}
	if on {
		v.grid[word] |= 1 << bit
	} else {
		v.grid[word] &^= 1 << bit
	}
	return true
}

// SetFrame places the volume in world space.
func (v *Volume) SetFrame(origin, diag v3.Vec) {
	v.frame = Frame{Origin: origin, Diag: diag}
}

// Frame returns the world-space placement of the volume.
func (v *Volume) Frame() Frame {
	return v.frame
}

// Edge returns the per-axis voxel edge length.
func (v *Volume) Edge() v3.Vec {
	if v.xdim == 0 {
		return v3.Vec{}
	}
	return v3.Vec{
		X: v.frame.Diag.X / float64(v.xdim),
		Y: v.frame.Diag.Y / float64(v.ydim),
		Z: v.frame.Diag.Z / float64(v.zdim),
	}
}

// Pos returns the world-space centre of voxel (x,y,z). Fractional indices
// are allowed, so Pos(x+0.5, y, z) is the midpoint between two neighbours.
func (v *Volume) Pos(x, y, z float64) v3.Vec {
	e := v.Edge()
	return v3.Vec{
		X: v.frame.Origin.X + (x+0.5)*e.X,
		Y: v.frame.Origin.Y + (y+0.5)*e.Y,
		Z: v.frame.Origin.Z + (z+0.5)*e.Z,
	}
}

// VoxelPos returns the world-space centre of the integer voxel (x,y,z).
func (v *Volume) VoxelPos(x, y, z int) v3.Vec {
	return v.Pos(float64(x), float64(y), float64(z))
}

// Index returns the voxel containing world point p, clamped to the grid.
// An empty volume maps everything to (0,0,0).
func (v *Volume) Index(p v3.Vec) (x, y, z int) {
	if v.empty() {
		return 0, 0, 0
	}
	e := v.Edge()
	x = clamp(int(math.Floor((p.X-v.frame.Origin.X)/e.X)), v.xdim)
	y = clamp(int(math.Floor((p.Y-v.frame.Origin.Y)/e.Y)), v.ydim)
	z = clamp(int(math.Floor((p.Z-v.frame.Origin.Z)/e.Z)), v.zdim)
	return x, y, z
}

// Bounds converts a world-space box to an inclusive index range, rounding
// outward and clamping to the grid. An empty volume yields a range with hi
// below lo, so loops over it do nothing.
func (v *Volume) Bounds(box sdf.Box3) (lo, hi [3]int) {
	if v.empty() {
		return [3]int{}, [3]int{-1, -1, -1}
	}
	e := v.Edge()
	o := v.frame.Origin
	lo = [3]int{
		clamp(int(math.Floor((box.Min.X-o.X)/e.X)), v.xdim),
		clamp(int(math.Floor((box.Min.Y-o.Y)/e.Y)), v.ydim),
		clamp(int(math.Floor((box.Min.Z-o.Z)/e.Z)), v.zdim),
	}
	hi = [3]int{
		clamp(int(math.Ceil((box.Max.X-o.X)/e.X)), v.xdim),
		clamp(int(math.Ceil((box.Max.Y-o.Y)/e.Y)), v.ydim),
		clamp(int(math.Ceil((box.Max.Z-o.Z)/e.Z)), v.zdim),
	}
	return lo, hi
}

// empty reports whether the volume has no voxels or a degenerate frame.
func (v *Volume) empty() bool {
	if v.xdim == 0 || v.ydim == 0 || v.zdim == 0 {
		return true
	}
	e := v.Edge()
	return e.X == 0 || e.Y == 0 || e.Z == 0
}

func clamp(i, dim int) int {
	if i < 0 {
		return 0
	}
	if i >= dim {
		return dim - 1
	}
	return i
}

// SameShape reports whether two volumes share padded dimensions.
func (v *Volume) SameShape(o *Volume) bool {
	return v.xdim == o.xdim && v.ydim == o.ydim && v.zdim == o.zdim
}

// Equal reports whether two volumes have the same dimensions and contents.
func (v *Volume) Equal(o *Volume) bool {
	if !v.SameShape(o) {
		return false
	}
	for i := range v.grid {
		if v.grid[i] != o.grid[i] {
			return false
		}
	}
	return true
}

// Count returns the number of occupied voxels.
func (v *Volume) Count() int {
	n := 0
	for _, w := range v.grid {
		n += bits.OnesCount32(w)
	}
	return n
}

// Like allocates an empty volume with the same dimensions and frame.
func (v *Volume) Like() *Volume {
	return &Volume{
		xdim:  v.xdim,
		ydim:  v.ydim,
		zdim:  v.zdim,
		xspan: v.xspan,
		grid:  make([]uint32, len(v.grid)),
		frame: v.frame,
	}
}

// clone returns a deep copy of the volume.
func (v *Volume) clone() *Volume {
	c := v.Like()
	copy(c.grid, v.grid)
	return c
}
