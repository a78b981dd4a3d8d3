package lod

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the per-frame input of the loop. ViewProj is optional; it only
// matters when frustum gating is enabled.
type Camera struct {
	Position mgl64.Vec3
	ViewProj *mgl64.Mat4
}

type plane struct{ a, b, c, d float64 }

// extractFrustumPlanes builds six planes from the combined projection*view matrix.
// Planes are returned in order: left, right, bottom, top, near, far.
func extractFrustumPlanes(clip mgl64.Mat4) [6]plane {
	row := func(i int) [4]float64 {
		return [4]float64{clip[i], clip[4+i], clip[8+i], clip[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	combine := func(a, b [4]float64, sign float64) plane {
		return normalizePlane(plane{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2], a[3] + sign*b[3]})
	}
	return [6]plane{
		combine(r3, r0, 1),
		combine(r3, r0, -1),
		combine(r3, r1, 1),
		combine(r3, r1, -1),
		combine(r3, r2, 1),
		combine(r3, r2, -1),
	}
}

func normalizePlane(p plane) plane {
	l := math.Sqrt(p.a*p.a + p.b*p.b + p.c*p.c)
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// sphereInFrustum reports whether a sphere is at least partly inside all planes.
func sphereInFrustum(center mgl64.Vec3, radius float64, planes *[6]plane) bool {
	for _, p := range planes {
		if p.a*center.X()+p.b*center.Y()+p.c*center.Z()+p.d < -radius {
			return false
		}
	}
	return true
}

// Lens handles the projection of a viewing camera.
type Lens struct {
	AspectRatio float64
	FOV         float64 // degrees
	NearPlane   float64
	FarPlane    float64
}

// NewLens creates a 60 degree lens for a viewport; far is the far plane.
func NewLens(width, height int, far float64) Lens {
	return Lens{
		AspectRatio: float64(width) / float64(height),
		FOV:         60.0,
		NearPlane:   0.1,
		FarPlane:    far,
	}
}

func (l Lens) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(l.FOV), l.AspectRatio, l.NearPlane, l.FarPlane)
}

// LookAt returns a camera at eye facing target, carrying its view-projection.
func (l Lens) LookAt(eye, target mgl64.Vec3) Camera {
	fwd := target.Sub(eye)
	up := mgl64.Vec3{0, 1, 0}
	if n := fwd.Len(); n > 0 && math.Abs(fwd.Mul(1/n).Dot(up)) > 0.99 {
		up = mgl64.Vec3{0, 0, 1}
	}
	vp := l.ProjectionMatrix().Mul4(mgl64.LookAtV(eye, target, up))
	return Camera{Position: eye, ViewProj: &vp}
}
