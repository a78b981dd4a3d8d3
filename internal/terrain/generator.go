package terrain

import (
	"planet-lod/internal/config"

	"github.com/go-gl/mathgl/mgl64"
)

// Sample is the terrain at one point of the planet surface.
type Sample struct {
	Height    float64    // displacement above the sphere, in world units
	Elevation float64    // Height / MaxHeight, in [0, amplitude]
	Weights   [3]float64 // low, mid, high texture weights
}

// Generator bundles the height function with banding for a planet.
type Generator struct {
	Heightmap *Heightmap
	Bands     Bands
	Textures  TextureSet
	MaxHeight float64
	Radius    float64
}

// NewGenerator builds a generator from a validated config.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		Heightmap: NewHeightmap(cfg.Terrain),
		Bands:     NewBands(cfg.Terrain.Bands),
		Textures:  NewTextureSet(cfg.Terrain.Textures),
		MaxHeight: cfg.Terrain.MaxHeight,
		Radius:    cfg.PlanetRadius(),
	}
}

// SampleDir evaluates the terrain along a unit direction from the planet center.
func (g *Generator) SampleDir(dir mgl64.Vec3) Sample {
	e := g.Heightmap.At(dir.Mul(g.Radius))
	return Sample{
		Height:    e * g.MaxHeight,
		Elevation: e,
		Weights:   g.Bands.Weights(e),
	}
}

// Surface returns the displaced surface point along a unit direction.
func (g *Generator) Surface(dir mgl64.Vec3) (mgl64.Vec3, Sample) {
	s := g.SampleDir(dir)
	return dir.Mul(g.Radius + s.Height), s
}
