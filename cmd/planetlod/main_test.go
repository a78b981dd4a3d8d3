package main

import (
	"math"
	"testing"

	"planet-lod/internal/config"
	"planet-lod/internal/planet"
)

func TestCameraPath(t *testing.T) {
	cfg := config.Default()
	mgr := planet.NewManager(cfg)
	face := mgr.Face(planet.Top)

	far := face.ToLocal(cameraPath(cfg, mgr, 0))
	mid := face.ToLocal(cameraPath(cfg, mgr, 0.5))
	end := face.ToLocal(cameraPath(cfg, mgr, 1))

	if math.Abs(far.X()+4*face.HalfSize()) > 1e-9 || math.Abs(end.X()-far.X()) > 1e-9 {
		t.Fatalf("path should start and end four half-sizes out: %v, %v", far, end)
	}
	if math.Abs(mid.X()) > 1e-9 || math.Abs(mid.Z()) > 1e-9 {
		t.Fatalf("path should pass over the face center: %v", mid)
	}
	if mid.Y() <= face.HalfSize()+cfg.Terrain.MaxHeight {
		t.Fatalf("camera dips below the terrain: %v", mid)
	}
}
