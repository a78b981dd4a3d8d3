package meshing

import (
	"strconv"

	"planet-lod/internal/planet"
	"planet-lod/internal/quadtree"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkKey identifies the chunk of one quadtree leaf. Leaf centers are dyadic
// fractions of the root size, so the float fields compare exactly.
type ChunkKey struct {
	Face    planet.FaceID
	Depth   int
	CenterX float64
	CenterY float64
	Size    float64
}

// KeyFor returns the key of a node on a face.
func KeyFor(face planet.FaceID, n *quadtree.Node) ChunkKey {
	return ChunkKey{
		Face:    face,
		Depth:   n.Depth,
		CenterX: n.Center.X(),
		CenterY: n.Center.Y(),
		Size:    n.Size,
	}
}

// Center returns the chunk center on the face plane.
func (k ChunkKey) Center() mgl64.Vec2 {
	return mgl64.Vec2{k.CenterX, k.CenterY}
}

// Overlaps reports whether two chunks on the same face share area.
func (k ChunkKey) Overlaps(o ChunkKey) bool {
	return k.Face == o.Face && quadtree.Overlap(k.Center(), k.Size, o.Center(), o.Size)
}

// String renders the key as f<face>/d<depth>/<cx>,<cy>/<size>.
func (k ChunkKey) String() string {
	b := make([]byte, 0, 48)
	b = append(b, 'f')
	b = strconv.AppendInt(b, int64(k.Face), 10)
	b = append(b, "/d"...)
	b = strconv.AppendInt(b, int64(k.Depth), 10)
	b = append(b, '/')
	b = strconv.AppendFloat(b, k.CenterX, 'g', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, k.CenterY, 'g', -1, 64)
	b = append(b, '/')
	b = strconv.AppendFloat(b, k.Size, 'g', -1, 64)
	return string(b)
}
