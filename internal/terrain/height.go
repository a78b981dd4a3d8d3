// Package terrain holds the planet height function and elevation texture bands.
package terrain

import (
	"math"

	"planet-lod/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// Heightmap evaluates fractal Brownian motion at world positions.
type Heightmap struct {
	seed           int64
	frequency      float64
	amplitude      float64
	octaves        int
	lacunarity     float64
	persistence    float64
	exponentiation float64
}

// NewHeightmap builds a height function from terrain config.
func NewHeightmap(cfg config.TerrainConfig) *Heightmap {
	return &Heightmap{
		seed:           cfg.Seed,
		frequency:      cfg.Noise.Frequency,
		amplitude:      cfg.Noise.Amplitude,
		octaves:        cfg.Noise.Octaves,
		lacunarity:     cfg.Noise.Lacunarity,
		persistence:    cfg.Noise.Persistence,
		exponentiation: cfg.Noise.Exponentiation,
	}
}

// At returns the height at a world position, in [0, amplitude].
// Callers scale it by the configured max height.
func (h *Heightmap) At(p mgl64.Vec3) float64 {
	n := fbm3D(p.X()*h.frequency, p.Y()*h.frequency, p.Z()*h.frequency,
		h.seed, h.octaves, h.persistence, h.lacunarity)
	return math.Pow(n, h.exponentiation) * h.amplitude
}
