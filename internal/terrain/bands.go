package terrain

import (
	"planet-lod/internal/config"
)

// Texture is one elevation band texture.
type Texture struct {
	Name  string   `json:"name"`
	Color [3]uint8 `json:"color"`
}

// TextureSet holds the low, mid and high elevation textures.
type TextureSet struct {
	Low  Texture `json:"low"`
	Mid  Texture `json:"mid"`
	High Texture `json:"high"`
}

// NewTextureSet converts texture config. Colors were validated at load time.
func NewTextureSet(cfg config.TexturesConfig) TextureSet {
	conv := func(tc config.TextureConfig) Texture {
		c, _ := config.ParseColor(tc.Color)
		return Texture{Name: tc.Name, Color: c}
	}
	return TextureSet{Low: conv(cfg.Low), Mid: conv(cfg.Mid), High: conv(cfg.High)}
}

// Bands blends textures across normalized elevation with smoothstep transitions.
type Bands struct {
	lowMid  float64
	midHigh float64
	blend   float64
}

// NewBands builds bands from config.
func NewBands(cfg config.BandsConfig) Bands {
	return Bands{lowMid: cfg.LowMid, midHigh: cfg.MidHigh, blend: cfg.Blend}
}

// Weights returns low/mid/high weights for normalized elevation e; they sum to 1.
func (b Bands) Weights(e float64) [3]float64 {
	low := 1 - Smoothstep(b.lowMid-b.blend, b.lowMid+b.blend, e)
	high := Smoothstep(b.midHigh-b.blend, b.midHigh+b.blend, e)
	mid := 1 - low - high
	if mid < 0 {
		// transitions overlap; share the weight between low and high
		s := low + high
		return [3]float64{low / s, 0, high / s}
	}
	return [3]float64{low, mid, high}
}

// Smoothstep is the Hermite step between edge0 and edge1. Equal edges give a hard step.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	t = min(max(t, 0), 1)
	return t * t * (3 - 2*t)
}
