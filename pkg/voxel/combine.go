package voxel

import (
	"errors"
	"fmt"
)

// ErrDimMismatch is returned when two volumes of different extents are
// combined.
var ErrDimMismatch = errors.New("voxel: dimension mismatch")

// SetOp is a boolean set operation between two volumes.
type SetOp int

const (
	Union SetOp = iota
	Intersection
	Difference
)

func (op SetOp) String() string {
	switch op {
	case Union:
		return "union"
	case Intersection:
		return "intersection"
	case Difference:
		return "difference"
	default:
		return fmt.Sprintf("SetOp(%d)", int(op))
	}
}

// ParseSetOp maps a lower-case operation name to a SetOp.
func ParseSetOp(name string) (SetOp, error) {
	switch name {
	case "union":
		return Union, nil
	case "intersection":
		return Intersection, nil
	case "difference":
		return Difference, nil
	}
	return 0, fmt.Errorf("unknown set operation %q", name)
}

// Combine applies op in place, v = v op r. Volumes must have the same
// dimensions; on mismatch v is left unchanged and ErrDimMismatch is returned.
func (v *Volume) Combine(op SetOp, r *Volume) error {
	if !v.SameShape(r) {
		return fmt.Errorf("%w: %s of %dx%dx%d with %dx%dx%d",
			ErrDimMismatch, op, v.xdim, v.ydim, v.zdim, r.xdim, r.ydim, r.zdim)
	}
	switch op {
	case Union:
		for i, w := range r.grid {
			v.grid[i] |= w
		}
	case Intersection:
		for i, w := range r.grid {
			v.grid[i] &= w
		}
	case Difference:
		for i, w := range r.grid {
			v.grid[i] &^= w
		}
	default:
		return fmt.Errorf("voxel: combine: unknown operation %s", op)
	}
	return nil
}
