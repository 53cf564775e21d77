package voxel

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const tolerance = 1e-9

func TestSetDimPadsX(t *testing.T) {
	tests := []struct {
		x, wantX, wantSpan int
	}{
		{1, 32, 1},
		{31, 32, 1},
		{32, 32, 1},
		{33, 64, 2},
		{202, 224, 7},
	}
	for _, tt := range tests {
		v := NewVolume(tt.x, 3, 4)
		x, y, z := v.Dim()
		if x != tt.wantX || y != 3 || z != 4 {
			t.Errorf("NewVolume(%d,3,4).Dim() = %d,%d,%d, want %d,3,4", tt.x, x, y, z, tt.wantX)
		}
		if v.XSpan() != tt.wantSpan {
			t.Errorf("NewVolume(%d).XSpan() = %d, want %d", tt.x, v.XSpan(), tt.wantSpan)
		}
		if x%PackWidth != 0 {
			t.Errorf("padded x %d is not a multiple of %d", x, PackWidth)
		}
	}
}

func TestSetDimNonPositivePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero extent")
		}
	}()
	NewVolume(0, 1, 1)
}

func TestFillGetSet(t *testing.T) {
	v := NewVolume(40, 5, 6)
	dx, dy, dz := v.Dim()

	v.Fill(true)
	for z := 0; z < dz; z++ {
		for y := 0; y < dy; y++ {
			for x := 0; x < dx; x++ {
				if !v.Get(x, y, z) {
					t.Fatalf("after Fill(true), Get(%d,%d,%d) = false", x, y, z)
				}
			}
		}
	}
	if got, want := v.Count(), dx*dy*dz; got != want {
		t.Errorf("Count after Fill(true) = %d, want %d", got, want)
	}

	v.Fill(false)
	for z := 0; z < dz; z++ {
		for y := 0; y < dy; y++ {
			for x := 0; x < dx; x++ {
				if v.Get(x, y, z) {
					t.Fatalf("after Fill(false), Get(%d,%d,%d) = true", x, y, z)
				}
			}
		}
	}

	for _, on := range []bool{true, false, true} {
		if !v.Set(37, 4, 5, on) {
			t.Fatal("in-bounds Set reported not applied")
		}
		if got := v.Get(37, 4, 5); got != on {
			t.Errorf("Set(37,4,5,%v) then Get = %v", on, got)
		}
	}
}

func TestPackSeam(t *testing.T) {
	// Un-padded extent 31 pads to a single word; x=32 is outside the grid.
	v := NewVolume(31, 2, 2)
	if !v.Set(31, 1, 1, true) {
		t.Fatal("x=31 should be in bounds")
	}
	if v.Get(32, 1, 1) {
		t.Error("x=32 read as occupied in a single-word row")
	}
	if v.Set(32, 1, 1, true) {
		t.Error("x=32 write applied in a single-word row")
	}

	// Across a real word boundary.
	w := NewVolume(33, 2, 2)
	w.Set(31, 1, 1, true)
	if w.Get(32, 1, 1) {
		t.Error("setting x=31 is visible at x=32")
	}
	w.Fill(false)
	w.Set(32, 1, 1, true)
	if w.Get(31, 1, 1) {
		t.Error("setting x=32 is visible at x=31")
	}
	if w.Count() != 1 {
		t.Errorf("Count = %d, want 1", w.Count())
	}
}

func TestOutOfBounds(t *testing.T) {
	v := NewVolume(8, 8, 8)
	v.Fill(true)
	probes := [][3]int{
		{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
		{32, 0, 0}, {0, 8, 0}, {0, 0, 8},
	}
	for _, p := range probes {
		if v.Get(p[0], p[1], p[2]) {
			t.Errorf("Get(%v) out of bounds returned true", p)
		}
		if v.Set(p[0], p[1], p[2], false) {
			t.Errorf("Set(%v) out of bounds reported applied", p)
		}
	}
}

func TestFrameMapping(t *testing.T) {
	v := NewVolume(20, 10, 10)
	x, y, z := v.Dim()
	edge := 0.5
	diag := v3.Vec{X: float64(x) * edge, Y: float64(y) * edge, Z: float64(z) * edge}
	v.SetFrame(diag.MulScalar(-0.5), diag)

	e := v.Edge()
	if math.Abs(e.X-edge) > tolerance || math.Abs(e.Y-edge) > tolerance || math.Abs(e.Z-edge) > tolerance {
		t.Fatalf("Edge() = %v, want %v on every axis", e, edge)
	}

	p := v.VoxelPos(0, 0, 0)
	want := v3.Vec{X: -diag.X/2 + edge/2, Y: -diag.Y/2 + edge/2, Z: -diag.Z/2 + edge/2}
	if p.Sub(want).Length() > tolerance {
		t.Errorf("VoxelPos(0,0,0) = %v, want %v", p, want)
	}

	for _, idx := range [][3]int{{0, 0, 0}, {5, 7, 2}, {31, 9, 9}} {
		gx, gy, gz := v.Index(v.VoxelPos(idx[0], idx[1], idx[2]))
		if gx != idx[0] || gy != idx[1] || gz != idx[2] {
			t.Errorf("Index(VoxelPos(%v)) = %d,%d,%d", idx, gx, gy, gz)
		}
	}

	gx, gy, gz := v.Index(v3.Vec{X: 1000, Y: -1000, Z: 0})
	if gx != x-1 || gy != 0 || gz != z/2 {
		t.Errorf("Index clamp = %d,%d,%d", gx, gy, gz)
	}
}

func TestBoundsCoversBox(t *testing.T) {
	v := NewVolume(32, 32, 32)
	v.SetFrame(v3.Vec{X: -16, Y: -16, Z: -16}, v3.Vec{X: 32, Y: 32, Z: 32})
	box := sdf.Box3{Min: v3.Vec{X: -2.5, Y: 0, Z: 3}, Max: v3.Vec{X: 2.5, Y: 1, Z: 100}}
	lo, hi := v.Bounds(box)
	if lo != [3]int{13, 16, 19} {
		t.Errorf("lo = %v", lo)
	}
	if hi != [3]int{19, 17, 31} {
		t.Errorf("hi = %v", hi)
	}
}

func TestClearedVolumeMapping(t *testing.T) {
	v := NewVolume(8, 8, 8)
	v.SetFrame(v3.Vec{}, v3.Vec{X: 8, Y: 8, Z: 8})
	v.Clear()

	if x, y, z := v.Index(v3.Vec{X: 3, Y: 3, Z: 3}); x != 0 || y != 0 || z != 0 {
		t.Errorf("Index = %d,%d,%d, want 0,0,0", x, y, z)
	}
	lo, hi := v.Bounds(sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 4, Y: 4, Z: 4}})
	n := 0
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				n++
			}
		}
	}
	if n != 0 {
		t.Errorf("Bounds visited %d cells on a cleared volume", n)
	}
}

func volumeFrom(t *testing.T, dims [3]int, cells ...[3]int) *Volume {
	t.Helper()
	v := NewVolume(dims[0], dims[1], dims[2])
	for _, c := range cells {
		if !v.Set(c[0], c[1], c[2], true) {
			t.Fatalf("cell %v out of bounds", c)
		}
	}
	return v
}

func TestCombineLaws(t *testing.T) {
	dims := [3]int{40, 4, 4}
	a := volumeFrom(t, dims, [3]int{0, 0, 0}, [3]int{31, 1, 2}, [3]int{32, 1, 2}, [3]int{39, 3, 3})
	b := volumeFrom(t, dims, [3]int{31, 1, 2}, [3]int{5, 2, 2}, [3]int{63, 0, 0})

	ab := a.clone()
	if err := ab.Combine(Union, b); err != nil {
		t.Fatal(err)
	}
	ba := b.clone()
	if err := ba.Combine(Union, a); err != nil {
		t.Fatal(err)
	}
	if !ab.Equal(ba) {
		t.Error("Union(A,B) != Union(B,A)")
	}
	if ab.Count() != 6 {
		t.Errorf("|A ∪ B| = %d, want 6", ab.Count())
	}

	aa := a.clone()
	if err := aa.Combine(Intersection, a); err != nil {
		t.Fatal(err)
	}
	if !aa.Equal(a) {
		t.Error("Intersection(A,A) != A")
	}

	ad := a.clone()
	if err := ad.Combine(Difference, a); err != nil {
		t.Fatal(err)
	}
	if ad.Count() != 0 {
		t.Errorf("Difference(A,A) has %d voxels", ad.Count())
	}

	ai := a.clone()
	if err := ai.Combine(Intersection, b); err != nil {
		t.Fatal(err)
	}
	if ai.Count() != 1 || !ai.Get(31, 1, 2) {
		t.Errorf("A ∩ B should hold only (31,1,2), count %d", ai.Count())
	}

	amb := a.clone()
	if err := amb.Combine(Difference, b); err != nil {
		t.Fatal(err)
	}
	if amb.Count() != 3 || amb.Get(31, 1, 2) {
		t.Errorf("A - B wrong, count %d", amb.Count())
	}
}

func TestCombineDimMismatch(t *testing.T) {
	a := volumeFrom(t, [3]int{8, 8, 8}, [3]int{1, 1, 1})
	b := NewVolume(8, 8, 9)
	b.Fill(true)
	before := a.clone()
	err := a.Combine(Union, b)
	if !errors.Is(err, ErrDimMismatch) {
		t.Fatalf("err = %v, want ErrDimMismatch", err)
	}
	if !a.Equal(before) {
		t.Error("mismatched combine modified the left operand")
	}
}

func TestParseSetOp(t *testing.T) {
	for _, op := range []SetOp{Union, Intersection, Difference} {
		got, err := ParseSetOp(op.String())
		if err != nil || got != op {
			t.Errorf("ParseSetOp(%q) = %v, %v", op.String(), got, err)
		}
	}
	if _, err := ParseSetOp("xor"); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestGridRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"100,000,001",
		"000,010,000",
		"111,000,000",
	}, "\n") + "\n"

	v, err := ReadGrid(strings.NewReader(src), 3)
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if v.Count() != 6 {
		t.Errorf("Count = %d, want 6", v.Count())
	}
	// line index, field, character
	for _, c := range [][3]int{{0, 0, 0}, {0, 2, 2}, {1, 1, 1}, {2, 0, 0}, {2, 0, 1}, {2, 0, 2}} {
		if !v.Get(c[0], c[1], c[2]) {
			t.Errorf("voxel %v should be set", c)
		}
	}

	var buf bytes.Buffer
	if err := WriteGrid(&buf, v, 3); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}
	if buf.String() != src {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", buf.String(), src)
	}
}

func TestReadGridMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"too few lines", "10,01\n"},
		{"short row", "10,0\n00,00\n"},
		{"too few rows", "10\n00\n"},
		{"bad char", "1x,00\n00,00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadGrid(strings.NewReader(tt.src), 2); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadGridFileMissing(t *testing.T) {
	if _, err := ReadGridFile(t.TempDir()+"/nope.txt", 4); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteGridFile(t *testing.T) {
	v := volumeFrom(t, [3]int{4, 2, 3}, [3]int{0, 0, 0}, [3]int{3, 1, 2}, [3]int{1, 1, 0})
	path := filepath.Join(t.TempDir(), "grid.txt")
	if err := WriteGridFile(path, v); err != nil {
		t.Fatalf("WriteGridFile: %v", err)
	}
	got, err := ReadGridFile(path, PackWidth)
	if err != nil {
		t.Fatalf("ReadGridFile: %v", err)
	}
	if got.Count() != v.Count() {
		t.Errorf("Count = %d, want %d", got.Count(), v.Count())
	}
	for _, c := range [][3]int{{0, 0, 0}, {3, 1, 2}, {1, 1, 0}} {
		if !got.Get(c[0], c[1], c[2]) {
			t.Errorf("voxel %v should be set", c)
		}
	}
}

func TestWriteGridFileEmpty(t *testing.T) {
	v := NewVolume(2, 2, 2)
	v.Clear()
	if err := WriteGridFile(filepath.Join(t.TempDir(), "grid.txt"), v); err == nil {
		t.Error("expected error for empty volume")
	}
}
