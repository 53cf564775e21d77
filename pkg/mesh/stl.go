package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	stlHeaderSize = 80
	stlRecordSize = 50
	stlHeaderTag  = "File Generated by Tesselator. Binary STL"
)

var (
	// ErrSTLTooSmall is returned for input that cannot hold a header and
	// triangle count.
	ErrSTLTooSmall = errors.New("stl: file too small")
	// ErrSTLTruncated is returned when the triangle records end early.
	ErrSTLTruncated = errors.New("stl: truncated triangle record")
)

var le = binary.LittleEndian

// ReadSTL replaces the mesh with the binary STL read from r. Vertices shared
// between records are merged. On error the mesh is left unchanged.
func (m *Mesh) ReadSTL(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("stl: read: %w", err)
	}
	if len(data) <= stlHeaderSize+4 {
		return fmt.Errorf("%w: %d bytes", ErrSTLTooSmall, len(data))
	}
	count := int(le.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body)/stlRecordSize < count {
		return fmt.Errorf("%w: header declares %d triangles, found %d", ErrSTLTruncated, count, len(body)/stlRecordSize)
	}

	tmp := New()
	for i := 0; i < count; i++ {
		rec := body[i*stlRecordSize : (i+1)*stlRecordSize]
		var t Triangle
		t.N = readVec(rec[0:12])
		for j := 0; j < 3; j++ {
			off := 12 + j*12
			t.V[j] = tmp.InsertVertex(readVec(rec[off : off+12]))
		}
		tmp.Tris = append(tmp.Tris, t)
	}

	m.Verts = tmp.Verts
	m.Tris = tmp.Tris
	m.Norms = nil
	m.Invalidate()
	return nil
}

// ReadSTLFile loads a binary STL file and reports success. Failures are
// logged and leave the mesh in its prior state.
func (m *Mesh) ReadSTLFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("mesh: %v", err)
		return false
	}
	defer f.Close()
	if err := m.ReadSTL(f); err != nil {
		log.Printf("mesh: %s: %v", path, err)
		return false
	}
	return true
}

// WriteSTL writes the mesh as binary STL, one record per triangle with the
// stored face normal.
func (m *Mesh) WriteSTL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var header [stlHeaderSize]byte
	copy(header[:], stlHeaderTag)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	var n [4]byte
	le.PutUint32(n[:], uint32(len(m.Tris)))
	if _, err := bw.Write(n[:]); err != nil {
		return fmt.Errorf("stl: write count: %w", err)
	}

	var rec [stlRecordSize]byte
	for i, t := range m.Tris {
		if !m.validTri(t) {
			return fmt.Errorf("stl: triangle %d references missing vertex", i)
		}
		putVec(rec[0:12], t.N)
		for j := 0; j < 3; j++ {
			off := 12 + j*12
			putVec(rec[off:off+12], m.Verts[t.V[j]])
		}
		rec[48], rec[49] = 0, 0
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("stl: write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteSTLFile writes the mesh to path as binary STL.
func (m *Mesh) WriteSTLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	if err := m.WriteSTL(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readVec(b []byte) v3.Vec {
	return v3.Vec{
		X: float64(math.Float32frombits(le.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(le.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(le.Uint32(b[8:]))),
	}
}

func putVec(b []byte, v v3.Vec) {
	le.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	le.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	le.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}
