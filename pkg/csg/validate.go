package csg

import (
	"fmt"

	"github.com/chazu/voxcsg/pkg/voxel"
)

// Severity indicates whether a validation finding blocks evaluation or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks evaluation
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Node     NodeID // NoNode if tree-level
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Node == NoNode {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %d: %s", e.Severity, e.Node, e.Message)
}

// Validate runs the structural checks on t. An empty result means the tree
// is well formed. Validate never mutates the tree.
func Validate(t *Tree) []ValidationError {
	if t.Empty() {
		return nil
	}
	if _, ok := t.Node(t.Root); !ok {
		return []ValidationError{{
			Node:     NoNode,
			Message:  fmt.Sprintf("root %d is not in the arena (%d nodes)", t.Root, len(t.Nodes)),
			Severity: SeverityError,
		}}
	}
	var errs []ValidationError
	errs = append(errs, validateNodes(t)...)
	errs = append(errs, validateAcyclic(t)...)
	errs = append(errs, validateReachable(t)...)
	return errs
}

// Check validates t and wraps the first blocking finding in
// ErrMalformedTree.
func Check(t *Tree) error {
	for _, e := range Validate(t) {
		if e.Severity == SeverityError {
			return fmt.Errorf("%w: %v", ErrMalformedTree, e)
		}
	}
	return nil
}

func validateNodes(t *Tree) []ValidationError {
	var errs []ValidationError
	for i, n := range t.Nodes {
		id := NodeID(i)
		switch n.Kind {
		case KindLeaf:
			if n.Shape == nil {
				errs = append(errs, ValidationError{Node: id, Message: "leaf has no shape", Severity: SeverityError})
			}
		case KindOp:
			if n.Op < voxel.Union || n.Op > voxel.Difference {
				errs = append(errs, ValidationError{Node: id, Message: fmt.Sprintf("unknown operation %s", n.Op), Severity: SeverityError})
			}
			if _, ok := t.Node(n.Left); !ok {
				errs = append(errs, ValidationError{Node: id, Message: fmt.Sprintf("left child %d does not exist", n.Left), Severity: SeverityError})
			}
			if _, ok := t.Node(n.Right); !ok {
				errs = append(errs, ValidationError{Node: id, Message: fmt.Sprintf("right child %d does not exist", n.Right), Severity: SeverityError})
			}
		default:
			errs = append(errs, ValidationError{Node: id, Message: fmt.Sprintf("unknown node kind %s", n.Kind), Severity: SeverityError})
		}
	}
	return errs
}

// validateAcyclic checks for cycles using DFS with 3-color marking.
// Meeting a gray node means the current path loops back on itself.
func validateAcyclic(t *Tree) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(t.Nodes))
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		n, ok := t.Node(id)
		if !ok {
			return false // reported by validateNodes
		}
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Node:     id,
				Message:  fmt.Sprintf("cycle detected: node %d is its own descendant", id),
				Severity: SeverityError,
			})
			return true
		}
		color[id] = gray
		if n.Kind == KindOp {
			if visit(n.Left) || visit(n.Right) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for i := range t.Nodes {
		if color[i] == white && visit(NodeID(i)) {
			break
		}
	}
	return errs
}

// validateReachable warns about arena nodes the root never reaches.
func validateReachable(t *Tree) []ValidationError {
	reached := make([]bool, len(t.Nodes))
	queue := []NodeID{t.Root}
	reached[t.Root] = true
	for len(queue) > 0 {
		n, _ := t.Node(queue[0])
		queue = queue[1:]
		if n.Kind != KindOp {
			continue
		}
		for _, c := range []NodeID{n.Left, n.Right} {
			if _, ok := t.Node(c); ok && !reached[c] {
				reached[c] = true
				queue = append(queue, c)
			}
		}
	}

	var errs []ValidationError
	for i, r := range reached {
		if !r {
			errs = append(errs, ValidationError{
				Node:     NodeID(i),
				Message:  "node is not reachable from the root (orphan)",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
