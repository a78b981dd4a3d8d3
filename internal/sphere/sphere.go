// Package sphere maps cube-surface points onto a sphere without the density
// bunching a plain normalize produces near cube edges and corners.
package sphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalizeToCube scales p so its largest component has magnitude 1,
// putting it on the surface of the [-1,1]³ cube. The zero vector is returned unchanged.
func NormalizeToCube(p mgl64.Vec3) mgl64.Vec3 {
	m := max(math.Abs(p.X()), math.Abs(p.Y()), math.Abs(p.Z()))
	if m == 0 {
		return p
	}
	return p.Mul(1 / m)
}

// CubeToSphere maps a point of the [-1,1]³ cube surface onto the unit sphere.
func CubeToSphere(p mgl64.Vec3) mgl64.Vec3 {
	x2, y2, z2 := p.X()*p.X(), p.Y()*p.Y(), p.Z()*p.Z()
	return mgl64.Vec3{
		p.X() * math.Sqrt(clamp0(1-y2/2-z2/2+y2*z2/3)),
		p.Y() * math.Sqrt(clamp0(1-z2/2-x2/2+z2*x2/3)),
		p.Z() * math.Sqrt(clamp0(1-x2/2-y2/2+x2*y2/3)),
	}
}

// Project maps any non-zero point to the sphere of the given radius through
// its cube-surface representative.
func Project(p mgl64.Vec3, radius float64) mgl64.Vec3 {
	return CubeToSphere(NormalizeToCube(p)).Mul(radius)
}

// Direction is Project with radius 1.
func Direction(p mgl64.Vec3) mgl64.Vec3 {
	return CubeToSphere(NormalizeToCube(p))
}

// rounding can push the radicand a hair below zero at corners
func clamp0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
