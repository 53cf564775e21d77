package csg

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/chazu/voxcsg/pkg/voxel"
)

// ProgressFunc receives the number of rasterized slices out of the total
// for the whole evaluation.
type ProgressFunc func(done, total int)

type options struct {
	progress ProgressFunc
	workers  int
}

// Option configures Evaluate.
type Option func(*options)

// WithProgress registers a callback invoked once per rasterized z-slice.
// Calls are serialized and done never decreases.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithWorkers bounds the rasterization pool. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

type frame struct {
	id     NodeID
	target *voxel.Volume
	tmp    *voxel.Volume
	stage  int
}

type evaluator struct {
	ctx  context.Context
	pool pond.Pool

	mu       sync.Mutex
	progress ProgressFunc
	done     int
	total    int
}

// Evaluate rasterizes t into vol, which must already carry its dimensions
// and frame. An empty tree leaves vol untouched.
//
// Each operation evaluates its left subtree into the target, its right
// subtree into a temporary of the same shape, then combines the two. Only
// one temporary per pending operation is alive at a time.
func Evaluate(ctx context.Context, t *Tree, vol *voxel.Volume, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if err := Check(t); err != nil {
		return err
	}
	if t.Empty() {
		return nil
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	e := &evaluator{
		ctx:      ctx,
		pool:     pond.NewPool(o.workers),
		progress: o.progress,
		total:    countSlices(t, vol),
	}
	defer e.pool.StopAndWait()

	stack := []frame{{id: t.Root, target: vol}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := &stack[top]
		n := &t.Nodes[f.id]

		if n.Kind == KindLeaf {
			if err := e.rasterize(n.Shape, f.target); err != nil {
				return err
			}
			stack = stack[:top]
			continue
		}

		switch f.stage {
		case 0:
			f.stage = 1
			stack = append(stack, frame{id: n.Left, target: f.target})
		case 1:
			f.stage = 2
			f.tmp = f.target.Like()
			stack = append(stack, frame{id: n.Right, target: f.tmp})
		default:
			if err := f.target.Combine(n.Op, f.tmp); err != nil {
				return fmt.Errorf("csg: node %d: %w", f.id, err)
			}
			f.tmp = nil
			stack = stack[:top]
		}
	}
	return nil
}

// sliceRange returns the inclusive voxel index range a shape covers.
// Unbounded shapes cover the whole grid.
func sliceRange(s shape.Shape, vol *voxel.Volume) (lo, hi [3]int) {
	if box, ok := s.Bounds(); ok {
		return vol.Bounds(box)
	}
	x, y, z := vol.Dim()
	return [3]int{}, [3]int{x - 1, y - 1, z - 1}
}

// countSlices totals the slices every leaf visit will rasterize.
func countSlices(t *Tree, vol *voxel.Volume) int {
	total := 0
	stack := []NodeID{t.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.Nodes[id]
		if n.Kind == KindOp {
			stack = append(stack, n.Right, n.Left)
			continue
		}
		lo, hi := sliceRange(n.Shape, vol)
		total += hi[2] - lo[2] + 1
	}
	return total
}

// rasterize clears vol and sets every voxel whose centre lies inside s.
// Each task owns one z-slice, so no two tasks touch the same word.
func (e *evaluator) rasterize(s shape.Shape, vol *voxel.Volume) error {
	vol.Fill(false)
	lo, hi := sliceRange(s, vol)

	var wg sync.WaitGroup
	for z := lo[2]; z <= hi[2]; z++ {
		z := z
		wg.Add(1)
		e.pool.Submit(func() {
			defer wg.Done()
			if e.ctx.Err() != nil {
				return
			}
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					if s.Contains(vol.VoxelPos(x, y, z)) {
						vol.Set(x, y, z, true)
					}
				}
			}
			e.step()
		})
	}
	wg.Wait()
	return e.ctx.Err()
}

func (e *evaluator) step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done++
	if e.progress != nil {
		e.progress(e.done, e.total)
	}
}
