// Package engine provides the Lisp scene language. It wraps zygomys in a
// sandboxed environment and produces a CSG tree from user source code.
package engine

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/voxcsg/pkg/csg"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Mesh loading defaults used by the stl builtin.
const (
	DefaultFitSize      = 30
	DefaultAccelSpheres = 20
)

// Option configures an Engine.
type Option func(*Engine)

// WithFileAccess enables builtins that read from disk. Without it the stl
// builtin fails.
func WithFileAccess() Option {
	return func(e *Engine) { e.fileAccess = true }
}

// WithMeshSettings sets the default fit size, accelerator sphere count and
// ray seed for meshes loaded by the stl builtin.
func WithMeshSettings(fit float64, spheres int, seed int64) Option {
	return func(e *Engine) {
		e.fitSize = fit
		e.accelSpheres = spheres
		e.seed = seed
	}
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	fileAccess   bool
	fitSize      float64
	accelSpheres int
	seed         int64
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fitSize:      DefaultFitSize,
		accelSpheres: DefaultAccelSpheres,
		seed:         1,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new CSG tree.
// The root is the node passed to (scene ...), or failing that the value of
// the last top-level expression.
//
// Return semantics:
//   - On success: returns tree + nil errors + nil error
//   - On parse/eval failure: returns nil tree + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*csg.Tree, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		t, evalErrs, err := e.evaluate(source)
		ch <- evalResult{tree: t, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*csg.Tree, []EvalError, error) {
	// Empty source is a valid program that produces an empty tree.
	if strings.TrimSpace(source) == "" {
		return &csg.Tree{Root: csg.NoNode}, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls;
	// disk access goes only through our own builtins.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	s := newSession(e)
	s.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	res, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	t, err := s.tree(res)
	if err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	for _, w := range csg.Validate(t) {
		if w.Severity == csg.SeverityWarning {
			log.Printf("engine: %v", w)
		}
	}
	return t, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values,
// pulling out the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
