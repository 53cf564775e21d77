package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/voxcsg/pkg/csg"
	"github.com/chazu/voxcsg/pkg/mesh"
	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/chazu/voxcsg/pkg/voxel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/uuid"
)

// ErrFileAccess is returned by builtins that need the disk when the engine
// was built without WithFileAccess.
var ErrFileAccess = errors.New("file access is disabled")

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a node of the tree under construction.
type sexpNode struct {
	id    csg.NodeID
	label string
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q)", n.label)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

func (a kwArgs) float(fn, key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}

func (a kwArgs) vec(fn, key string, def v3.Vec) (v3.Vec, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toNode(s zygo.Sexp) (*sexpNode, error) {
	if n, ok := s.(*sexpNode); ok {
		return n, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Session: one evaluation's tree under construction
// ---------------------------------------------------------------------------

type session struct {
	eng  *Engine
	b    *csg.Builder
	root *sexpNode
}

func newSession(e *Engine) *session {
	return &session{eng: e, b: csg.NewBuilder()}
}

// label returns the :name keyword if given, otherwise kind plus a short
// random suffix.
func (s *session) label(fn string, pa kwArgs) (string, error) {
	if v, ok := pa.kw["name"]; ok {
		name, err := toString(v)
		if err != nil {
			return "", fmt.Errorf("%s: name: %w", fn, err)
		}
		return name, nil
	}
	return fn + "-" + uuid.NewString()[:8], nil
}

func (s *session) leaf(fn string, pa kwArgs, sh shape.Shape) (zygo.Sexp, error) {
	label, err := s.label(fn, pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpNode{id: s.b.LabeledLeaf(sh, label), label: label}, nil
}

// tree builds the final tree. The scene root wins over the value of the
// last expression; anything else yields an empty tree.
func (s *session) tree(last zygo.Sexp) (*csg.Tree, error) {
	root := csg.NoNode
	if s.root != nil {
		root = s.root.id
	} else if n, ok := last.(*sexpNode); ok {
		root = n.id
	}
	return s.b.Build(root)
}

func (s *session) loadMesh(path string, fit float64) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m := mesh.New()
	if err := m.ReadSTL(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.BoxFit(fit)
	m.SetSeed(s.eng.seed)
	m.BuildAccelerator(s.eng.accelSpheres)
	return m, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// register installs the scene builtins into a zygomys environment. Source
// must go through preprocessSource first so keywords are recognizable.
func (s *session) register(env *zygo.Zlisp) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// (sphere :center (vec3 0 0 0) :radius 4)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		c, err := pa.vec("sphere", "center", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := pa.float("sphere", "radius", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		if r <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius %g must be positive", r)
		}
		return s.leaf("sphere", pa, shape.Sphere{Center: c, Radius: r})
	})

	// (cylinder :start (vec3 -7 -7 0) :end (vec3 7 7 0) :radius 2)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		start, err := pa.vec("cylinder", "start", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		end, err := pa.vec("cylinder", "end", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := pa.float("cylinder", "radius", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		if r <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius %g must be positive", r)
		}
		if start == end {
			return zygo.SexpNull, fmt.Errorf("cylinder: start and end coincide at %v", start)
		}
		return s.leaf("cylinder", pa, shape.Cylinder{Start: start, End: end, Radius: r})
	})

	// (box :size (vec3 2 4 6) :at (vec3 0 0 1))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size, err := pa.vec("box", "size", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		at, err := pa.vec("box", "at", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, err
		}
		b, err := shape.NewBox(size)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		if at != (v3.Vec{}) {
			b = b.Translate(at)
		}
		return s.leaf("box", pa, b)
	})

	// (union a b ...), (intersection a b ...), (difference a b ...)
	// More than two operands fold from the left.
	for _, opName := range []string{"union", "intersection", "difference"} {
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			op, err := voxel.ParseSetOp(name)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", name, len(args))
			}
			acc, err := toNode(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand 1: %w", name, err)
			}
			for i, a := range args[1:] {
				rhs, err := toNode(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, i+2, err)
				}
				acc = &sexpNode{id: s.b.Op(op, acc.id, rhs.id), label: name}
			}
			return acc, nil
		})
	}

	// (stl "part.stl" :fit 30)
	env.AddFunction("stl", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if !s.eng.fileAccess {
			return zygo.SexpNull, fmt.Errorf("stl: %w", ErrFileAccess)
		}
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("stl requires a path argument")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stl: path: %w", err)
		}
		fit, err := pa.float("stl", "fit", s.eng.fitSize)
		if err != nil {
			return zygo.SexpNull, err
		}
		if fit <= 0 {
			return zygo.SexpNull, fmt.Errorf("stl: fit %g must be positive", fit)
		}
		m, err := s.loadMesh(path, fit)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stl: %w", err)
		}
		if _, ok := pa.kw["name"]; !ok {
			pa.kw["name"] = &zygo.SexpStr{S: path}
		}
		return s.leaf("stl", pa, m)
	})

	// (scene solid)
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scene requires exactly 1 solid, got %d", len(args))
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		s.root = n
		return n, nil
	})
}
