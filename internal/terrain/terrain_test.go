package terrain

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"testing"

	"planet-lod/internal/config"
	"planet-lod/internal/planet"

	"github.com/go-gl/mathgl/mgl64"
)

func TestHeightmapRange(t *testing.T) {
	cfg := config.Default()
	cfg.Terrain.Noise.Amplitude = 0.8
	hm := NewHeightmap(cfg.Terrain)
	for i := 0; i < 500; i++ {
		p := mgl64.Vec3{float64(i) * 3.1, float64(i%17) * 11, -float64(i) * 0.7}
		h := hm.At(p)
		if h < 0 || h > 0.8 {
			t.Fatalf("height %v outside [0, 0.8] at %v", h, p)
		}
	}
}

func TestHeightmapSeedMatters(t *testing.T) {
	cfg := config.Default()
	a := NewHeightmap(cfg.Terrain)
	cfg.Terrain.Seed++
	b := NewHeightmap(cfg.Terrain)
	p := mgl64.Vec3{123.4, 56.7, 89.1}
	if a.At(p) == b.At(p) {
		t.Fatalf("different seeds produced the same height")
	}
}

func TestBandWeights(t *testing.T) {
	b := NewBands(config.BandsConfig{LowMid: 0.3, MidHigh: 0.7, Blend: 0.05})
	tests := []struct {
		e    float64
		want [3]float64
	}{
		{0.0, [3]float64{1, 0, 0}},
		{0.5, [3]float64{0, 1, 0}},
		{1.0, [3]float64{0, 0, 1}},
		{0.3, [3]float64{0.5, 0.5, 0}},
		{0.7, [3]float64{0, 0.5, 0.5}},
	}
	for _, tt := range tests {
		got := b.Weights(tt.e)
		for i := range 3 {
			if math.Abs(got[i]-tt.want[i]) > 1e-9 {
				t.Fatalf("Weights(%v) = %v, want %v", tt.e, got, tt.want)
			}
		}
	}
}

func TestBandWeightsSumToOne(t *testing.T) {
	for _, cfg := range []config.BandsConfig{
		{LowMid: 0.3, MidHigh: 0.7, Blend: 0.1},
		{LowMid: 0.45, MidHigh: 0.5, Blend: 0.2}, // overlapping transitions
		{LowMid: 0.2, MidHigh: 0.4, Blend: 0},
	} {
		b := NewBands(cfg)
		for e := 0.0; e <= 1.0; e += 0.01 {
			w := b.Weights(e)
			if s := w[0] + w[1] + w[2]; math.Abs(s-1) > 1e-9 {
				t.Fatalf("bands %+v: weights %v at %v sum to %v", cfg, w, e, s)
			}
			for _, x := range w {
				if x < 0 {
					t.Fatalf("negative weight %v at %v", w, e)
				}
			}
		}
	}
}

func TestSmoothstep(t *testing.T) {
	if Smoothstep(0, 1, -1) != 0 || Smoothstep(0, 1, 2) != 1 || Smoothstep(0, 1, 0.5) != 0.5 {
		t.Fatalf("smoothstep endpoints wrong")
	}
	if Smoothstep(1, 1, 0.5) != 0 || Smoothstep(1, 1, 1) != 1 {
		t.Fatalf("degenerate smoothstep should be a hard step")
	}
}

func TestGeneratorSurface(t *testing.T) {
	cfg := config.Default()
	g := NewGenerator(cfg)
	dir := mgl64.Vec3{1, 2, 3}.Normalize()
	p, s := g.Surface(dir)
	want := cfg.PlanetRadius() + s.Height
	if math.Abs(p.Len()-want) > 1e-9 {
		t.Fatalf("surface radius %v, want %v", p.Len(), want)
	}
	if s.Height < 0 || s.Height > cfg.Terrain.MaxHeight*cfg.Terrain.Noise.Amplitude {
		t.Fatalf("height %v out of range", s.Height)
	}
}

func TestRenderFacePNG(t *testing.T) {
	cfg := config.Default()
	cfg.Planet.Size = 100
	m := planet.NewManager(cfg)
	img, err := RenderFace(context.Background(), NewGenerator(cfg), m.Face(planet.Front), 16, 32)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("bounds = %v", b)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestRenderFaceCancelled(t *testing.T) {
	cfg := config.Default()
	m := planet.NewManager(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderFace(ctx, NewGenerator(cfg), m.Face(planet.Top), 8, 8); err == nil {
		t.Fatalf("expected context error")
	}
}
