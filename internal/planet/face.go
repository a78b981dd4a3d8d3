package planet

import (
	"iter"
	"math"

	"planet-lod/internal/config"
	"planet-lod/internal/quadtree"
	"planet-lod/internal/sphere"

	"github.com/go-gl/mathgl/mgl64"
)

// FaceID identifies one of the six cube faces.
type FaceID int

const (
	Top FaceID = iota
	Bottom
	Left
	Right
	Front
	Back

	NumFaces = 6
)

func (f FaceID) String() string {
	if f < 0 || f >= NumFaces {
		return "invalid"
	}
	return config.FaceNames[f]
}

// ParseFace maps a face name to its id.
func ParseFace(name string) (FaceID, bool) {
	i := config.FaceIndex(name)
	return FaceID(i), i >= 0
}

// orientations map face-local (x, y, z), y being the outward face normal,
// into cube space. Columns are the images of the local basis vectors; every
// matrix is a proper rotation so triangle winding survives the mapping.
var orientations = [NumFaces]mgl64.Mat3{
	Top:    mgl64.Mat3FromCols(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}),
	Bottom: mgl64.Mat3FromCols(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 0, -1}),
	Left:   mgl64.Mat3FromCols(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1}),
	Right:  mgl64.Mat3FromCols(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}),
	Front:  mgl64.Mat3FromCols(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, -1, 0}),
	Back:   mgl64.Mat3FromCols(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0}),
}

// Face is one cube face: a quadtree over the face plane plus its placement.
type Face struct {
	ID          FaceID
	Root        *quadtree.Node
	Active      bool
	Orientation mgl64.Mat3

	half   float64 // cube half-size
	radius float64 // planet radius
}

func newFace(id FaceID, size, radius float64) *Face {
	return &Face{
		ID:          id,
		Root:        quadtree.NewRoot(mgl64.Vec2{0, 0}, size),
		Orientation: orientations[id],
		half:        size / 2,
		radius:      radius,
	}
}

// Normal is the outward cube-space normal of the face.
func (f *Face) Normal() mgl64.Vec3 {
	return f.Orientation.Col(1)
}

// HalfSize is the distance from the cube center to the face plane.
func (f *Face) HalfSize() float64 { return f.half }

// Radius is the planet radius the face is projected onto.
func (f *Face) Radius() float64 { return f.radius }

// ToCube maps a face-plane point to cube space.
func (f *Face) ToCube(p mgl64.Vec2) mgl64.Vec3 {
	return f.Orientation.Mul3x1(mgl64.Vec3{p.X(), f.half, p.Y()})
}

// ToLocal maps a world (cube-space) point into the face-local frame, where
// X and Z span the face plane and Y runs along the face normal.
func (f *Face) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return f.Orientation.Transpose().Mul3x1(world)
}

// ToSphere maps a face-plane point onto the undisplaced planet surface.
func (f *Face) ToSphere(p mgl64.Vec2) mgl64.Vec3 {
	return sphere.Project(f.ToCube(p), f.radius)
}

// Leaves yields the current leaves of the face's tree.
func (f *Face) Leaves() iter.Seq[*quadtree.Node] {
	return f.Root.Leaves()
}

// Reset collapses the tree back to its root.
func (f *Face) Reset() {
	if !f.Root.IsLeaf() {
		_ = f.Root.Merge()
	}
}

// BoundingSphere encloses the projected face including terrain up to maxHeight.
func (f *Face) BoundingSphere(maxHeight float64) (mgl64.Vec3, float64) {
	center := f.ToSphere(mgl64.Vec2{0, 0})
	r := 0.0
	for _, c := range [4]mgl64.Vec2{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		corner := f.ToSphere(c.Mul(f.half))
		r = math.Max(r, corner.Sub(center).Len())
	}
	return center, r + maxHeight
}
