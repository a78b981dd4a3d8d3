// Package quadtree implements the square-patch quadtree each cube face is
// tessellated with. Nodes own their children; there are no parent links.
package quadtree

import (
	"errors"
	"iter"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrAlreadySplit is returned when splitting a node that has children.
	ErrAlreadySplit = errors.New("quadtree: node already split")
	// ErrLeaf is returned when merging a node that has no children.
	ErrLeaf = errors.New("quadtree: node is a leaf")
)

// Quadrant offsets in child order: (-,-), (+,-), (-,+), (+,+).
var quadrants = [4]mgl64.Vec2{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

// Node is one square patch of a face. A node is a leaf iff it has no children.
type Node struct {
	Center mgl64.Vec2 // face-local planar coordinates
	Size   float64    // edge length
	Depth  int        // root = 0

	children *[4]Node
}

// NewRoot creates a leaf root covering a square of the given size.
func NewRoot(center mgl64.Vec2, size float64) *Node {
	return &Node{Center: center, Size: size}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.children == nil
}

// Children returns the four children, or nil for a leaf.
func (n *Node) Children() []*Node {
	if n.children == nil {
		return nil
	}
	out := make([]*Node, 4)
	for i := range n.children {
		out[i] = &n.children[i]
	}
	return out
}

// Split turns a leaf into an internal node with four half-size children.
func (n *Node) Split() error {
	if n.children != nil {
		return ErrAlreadySplit
	}
	half := n.Size / 2
	quarter := n.Size / 4
	var kids [4]Node
	for i, q := range quadrants {
		kids[i] = Node{
			Center: n.Center.Add(q.Mul(quarter)),
			Size:   half,
			Depth:  n.Depth + 1,
		}
	}
	n.children = &kids
	return nil
}

// Merge drops the children, turning the node back into a leaf.
func (n *Node) Merge() error {
	if n.children == nil {
		return ErrLeaf
	}
	n.children = nil
	return nil
}

// CanMerge reports whether the node is internal and all its children are leaves.
// Deeper subtrees must collapse bottom-up first.
func (n *Node) CanMerge() bool {
	if n.children == nil {
		return false
	}
	for i := range n.children {
		if !n.children[i].IsLeaf() {
			return false
		}
	}
	return true
}

// PlanarDistance is the distance from the camera to the node center with the
// face-normal (Y) axis flattened away. cam is in face-local coordinates.
func (n *Node) PlanarDistance(cam mgl64.Vec3) float64 {
	dx := cam.X() - n.Center.X()
	dz := cam.Z() - n.Center.Y()
	return math.Hypot(dx, dz)
}

// ShouldSplit reports whether the camera is within Size*mult of the node on the face plane.
func (n *Node) ShouldSplit(cam mgl64.Vec3, mult float64) bool {
	return n.ShouldSplitAt(n.PlanarDistance(cam), mult)
}

// ShouldSplitAt is ShouldSplit for a distance computed by the caller.
func (n *Node) ShouldSplitAt(dist, mult float64) bool {
	return dist < n.Size*mult
}

// ShouldMerge reports whether a mergeable node is farther than Size*mult from the camera.
func (n *Node) ShouldMerge(cam mgl64.Vec3, mult float64) bool {
	return n.ShouldMergeAt(n.PlanarDistance(cam), mult)
}

// ShouldMergeAt is ShouldMerge for a distance computed by the caller.
func (n *Node) ShouldMergeAt(dist, mult float64) bool {
	return n.CanMerge() && dist > n.Size*mult
}

// Leaves yields every leaf of the subtree depth-first. It never mutates the tree.
func (n *Node) Leaves() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.leaves(yield)
	}
}

func (n *Node) leaves(yield func(*Node) bool) bool {
	if n.children == nil {
		return yield(n)
	}
	for i := range n.children {
		if !n.children[i].leaves(yield) {
			return false
		}
	}
	return true
}

// Walk visits the subtree pre-order. Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) || n.children == nil {
		return
	}
	for i := range n.children {
		n.children[i].Walk(fn)
	}
}

// LeafCount counts the leaves of the subtree.
func (n *Node) LeafCount() int {
	count := 0
	for range n.Leaves() {
		count++
	}
	return count
}

// Bounds returns the min and max corners of the node's square.
func (n *Node) Bounds() (lo, hi mgl64.Vec2) {
	h := n.Size / 2
	return n.Center.Sub(mgl64.Vec2{h, h}), n.Center.Add(mgl64.Vec2{h, h})
}

// Contains reports whether p lies inside the node's square (edges included).
func (n *Node) Contains(p mgl64.Vec2) bool {
	lo, hi := n.Bounds()
	return p.X() >= lo.X() && p.X() <= hi.X() && p.Y() >= lo.Y() && p.Y() <= hi.Y()
}

// Overlaps reports whether two squares share interior area.
func (n *Node) Overlaps(o *Node) bool {
	return Overlap(n.Center, n.Size, o.Center, o.Size)
}

// Overlap reports whether two squares given by center and size share interior area.
func Overlap(ca mgl64.Vec2, sa float64, cb mgl64.Vec2, sb float64) bool {
	reach := (sa + sb) / 2
	return math.Abs(ca.X()-cb.X()) < reach && math.Abs(ca.Y()-cb.Y()) < reach
}
