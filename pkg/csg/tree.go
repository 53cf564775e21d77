// Package csg holds constructive solid geometry trees and rasterizes them
// into voxel volumes.
//
// A tree is an arena of nodes addressed by NodeID. Leaves carry a shape,
// interior nodes carry a set operation and two children. Evaluation walks
// the tree without recursion, so depth is bounded only by memory.
package csg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/voxcsg/pkg/shape"
	"github.com/chazu/voxcsg/pkg/voxel"
)

// ErrMalformedTree is returned when a tree fails structural validation.
var ErrMalformedTree = errors.New("csg: malformed tree")

// NodeID indexes a node in its tree's arena.
type NodeID int

// NoNode marks an absent child or root.
const NoNode NodeID = -1

// Kind distinguishes leaves from operations.
type Kind int

const (
	KindLeaf Kind = iota
	KindOp
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindOp:
		return "op"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a single arena entry.
type Node struct {
	Kind        Kind
	Op          voxel.SetOp
	Left, Right NodeID
	Shape       shape.Shape
	Label       string // optional, used in diagnostics
}

// Tree is an arena-backed CSG tree.
type Tree struct {
	Nodes []Node
	Root  NodeID
}

// Empty reports whether the tree has no root.
func (t *Tree) Empty() bool {
	return t == nil || t.Root == NoNode
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil, false
	}
	return &t.Nodes[id], true
}

// String renders the tree reachable from the root as an s-expression.
func (t *Tree) String() string {
	if t.Empty() {
		return "()"
	}
	var sb strings.Builder
	t.write(&sb, t.Root, 0)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder, id NodeID, depth int) {
	n, ok := t.Node(id)
	if !ok || depth > len(t.Nodes) {
		sb.WriteString("?")
		return
	}
	if n.Kind == KindLeaf {
		if n.Label != "" {
			sb.WriteString(n.Label)
		} else {
			fmt.Fprintf(sb, "%v", n.Shape)
		}
		return
	}
	fmt.Fprintf(sb, "(%s ", n.Op)
	t.write(sb, n.Left, depth+1)
	sb.WriteString(" ")
	t.write(sb, n.Right, depth+1)
	sb.WriteString(")")
}

// Builder assembles a tree bottom-up.
type Builder struct {
	nodes []Node
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Leaf adds a shape node.
func (b *Builder) Leaf(s shape.Shape) NodeID {
	return b.LabeledLeaf(s, "")
}

// LabeledLeaf adds a shape node with a diagnostic label.
func (b *Builder) LabeledLeaf(s shape.Shape, label string) NodeID {
	b.nodes = append(b.nodes, Node{Kind: KindLeaf, Left: NoNode, Right: NoNode, Shape: s, Label: label})
	return NodeID(len(b.nodes) - 1)
}

// Op adds an operation node over two existing nodes.
func (b *Builder) Op(op voxel.SetOp, left, right NodeID) NodeID {
	b.nodes = append(b.nodes, Node{Kind: KindOp, Op: op, Left: left, Right: right})
	return NodeID(len(b.nodes) - 1)
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// Build returns the tree rooted at root. Trees with blocking validation
// findings are rejected with ErrMalformedTree.
func (b *Builder) Build(root NodeID) (*Tree, error) {
	t := &Tree{Nodes: append([]Node(nil), b.nodes...), Root: root}
	if err := Check(t); err != nil {
		return nil, err
	}
	return t, nil
}
