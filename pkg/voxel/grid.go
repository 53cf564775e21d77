package voxel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadGrid parses an n×n×n occupancy grid. Each of the n input lines holds
// n comma-separated fields of n '0'/'1' characters. Line i, field j,
// character k is stored at voxel (i, j, k).
func ReadGrid(r io.Reader, n int) (*Volume, error) {
	if n <= 0 {
		return nil, fmt.Errorf("read grid: size must be positive, got %d", n)
	}
	v := NewVolume(n, n, n)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), n*(n+1)+1024)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("read grid: line %d: %w", i+1, err)
			}
			return nil, fmt.Errorf("read grid: expected %d lines, got %d", n, i)
		}
		fields := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(fields) < n {
			return nil, fmt.Errorf("read grid: line %d: expected %d rows, got %d", i+1, n, len(fields))
		}
		for j := 0; j < n; j++ {
			row := fields[j]
			if len(row) < n {
				return nil, fmt.Errorf("read grid: line %d row %d: expected %d cells, got %d", i+1, j+1, n, len(row))
			}
			for k := 0; k < n; k++ {
				switch row[k] {
				case '1':
					v.Set(i, j, k, true)
				case '0':
				default:
					return nil, fmt.Errorf("read grid: line %d row %d: invalid cell %q", i+1, j+1, row[k])
				}
			}
		}
	}
	return v, nil
}

// ReadGridFile reads an n×n×n occupancy grid from path.
func ReadGridFile(path string, n int) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	defer f.Close()
	return ReadGrid(f, n)
}

// WriteGrid writes the first n voxels along each axis of v in the format
// accepted by ReadGrid. Cells outside v are written as '0'.
func WriteGrid(w io.Writer, v *Volume, n int) error {
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, n*(n+1))
	for i := 0; i < n; i++ {
		line = line[:0]
		for j := 0; j < n; j++ {
			if j > 0 {
				line = append(line, ',')
			}
			for k := 0; k < n; k++ {
				if v.InBounds(i, j, k) && v.Get(i, j, k) {
					line = append(line, '1')
				} else {
					line = append(line, '0')
				}
			}
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write grid: %w", err)
		}
	}
	return bw.Flush()
}

// WriteGridFile writes v to path as a cube grid sized to its largest
// dimension.
func WriteGridFile(path string, v *Volume) error {
	x, y, z := v.Dim()
	n := max(x, y, z)
	if n == 0 {
		return fmt.Errorf("write grid: empty volume")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write grid: %w", err)
	}
	if err := WriteGrid(f, v, n); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
