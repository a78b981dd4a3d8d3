package sphere

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-12

// cubeSamples returns points on all six faces, including edges and corners.
func cubeSamples(steps int) []mgl64.Vec3 {
	var pts []mgl64.Vec3
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps; j++ {
			a := -1 + 2*float64(i)/float64(steps)
			b := -1 + 2*float64(j)/float64(steps)
			for _, s := range []float64{-1, 1} {
				pts = append(pts,
					mgl64.Vec3{s, a, b},
					mgl64.Vec3{a, s, b},
					mgl64.Vec3{a, b, s},
				)
			}
		}
	}
	return pts
}

func TestCubeToSphereLandsOnUnitSphere(t *testing.T) {
	for _, p := range cubeSamples(16) {
		got := CubeToSphere(p).Len()
		if math.Abs(got-1) > tolerance {
			t.Fatalf("|CubeToSphere(%v)| = %.15f", p, got)
		}
	}
}

func TestCornersAndEdges(t *testing.T) {
	corner := CubeToSphere(mgl64.Vec3{1, 1, 1})
	want := 1 / math.Sqrt(3)
	for i := range 3 {
		if math.Abs(corner[i]-want) > tolerance {
			t.Fatalf("corner maps to %v", corner)
		}
	}
	edge := CubeToSphere(mgl64.Vec3{1, 1, 0})
	if math.Abs(edge.Len()-1) > tolerance || math.Abs(edge.X()-edge.Y()) > tolerance || edge.Z() != 0 {
		t.Fatalf("edge maps to %v", edge)
	}
}

func TestProjectScalesByRadius(t *testing.T) {
	const radius = 637.1
	for _, p := range cubeSamples(8) {
		scaled := p.Mul(250) // arbitrary cube size
		got := Project(scaled, radius).Len()
		if math.Abs(got-radius) > radius*tolerance*10 {
			t.Fatalf("|Project(%v)| = %v, want %v", scaled, got, radius)
		}
	}
}

func TestFaceCenterIsFixedPoint(t *testing.T) {
	got := CubeToSphere(mgl64.Vec3{0, 1, 0})
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, tolerance) {
		t.Fatalf("face center moved to %v", got)
	}
}

func TestNormalizeToCube(t *testing.T) {
	got := NormalizeToCube(mgl64.Vec3{2, -4, 1})
	if !got.ApproxEqual(mgl64.Vec3{0.5, -1, 0.25}) {
		t.Fatalf("normalize = %v", got)
	}
	if NormalizeToCube(mgl64.Vec3{}) != (mgl64.Vec3{}) {
		t.Fatalf("zero vector must stay zero")
	}
}

// The mapping spreads points more evenly than a plain normalize: the
// angular span of an edge cell is closer to that of a center cell.
func TestLessDistortionThanNormalize(t *testing.T) {
	span := func(f func(mgl64.Vec3) mgl64.Vec3, a, b float64) float64 {
		pa := f(mgl64.Vec3{a, 1, 0})
		pb := f(mgl64.Vec3{b, 1, 0})
		return math.Acos(pa.Normalize().Dot(pb.Normalize()))
	}
	naive := func(p mgl64.Vec3) mgl64.Vec3 { return p.Normalize() }

	ratioNaive := span(naive, 0, 0.1) / span(naive, 0.9, 1)
	ratioCube := span(CubeToSphere, 0, 0.1) / span(CubeToSphere, 0.9, 1)
	if math.Abs(ratioCube-1) >= math.Abs(ratioNaive-1) {
		t.Fatalf("cube mapping ratio %v not better than naive %v", ratioCube, ratioNaive)
	}
}
