package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Planet.Size != Default().Planet.Size {
		t.Fatalf("expected default size, got %v", cfg.Planet.Size)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.yaml")
	data := []byte(`
planet:
  size: 200
faces:
  activation: camera
  active: [front, back]
lod:
  split_threshold: 1.2
  merge_threshold: 3
  metric: surface
mesh:
  segments: 8
cache:
  backend: redis
  redis:
    addr: "cache:6379"
    ttl: 90s
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Planet.Size != 200 || cfg.PlanetRadius() != 100 {
		t.Fatalf("planet size/radius = %v/%v", cfg.Planet.Size, cfg.PlanetRadius())
	}
	if cfg.Faces.Activation != ActivationCamera || len(cfg.Faces.Active) != 2 {
		t.Fatalf("faces = %+v", cfg.Faces)
	}
	if cfg.LOD.Metric != MetricSurface || cfg.LOD.MaxDepth != 8 {
		t.Fatalf("lod = %+v", cfg.LOD)
	}
	if cfg.Mesh.Segments != 8 || cfg.Mesh.Workers != 4 {
		t.Fatalf("mesh = %+v", cfg.Mesh)
	}
	if cfg.Cache.Redis.TTL != 90*time.Second {
		t.Fatalf("redis ttl = %v", cfg.Cache.Redis.TTL)
	}
	if cfg.Terrain.Noise.Octaves != 6 {
		t.Fatalf("terrain defaults lost: %+v", cfg.Terrain.Noise)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.Planet.Size = 0 }},
		{"negative size", func(c *Config) { c.Planet.Size = -10 }},
		{"one segment", func(c *Config) { c.Mesh.Segments = 1 }},
		{"equal thresholds", func(c *Config) { c.LOD.MergeThreshold = c.LOD.SplitThreshold }},
		{"inverted thresholds", func(c *Config) { c.LOD.SplitThreshold = 3 }},
		{"unknown face", func(c *Config) { c.Faces.Active = []string{"side"} }},
		{"unknown activation", func(c *Config) { c.Faces.Activation = "all" }},
		{"unknown metric", func(c *Config) { c.LOD.Metric = "manhattan" }},
		{"zero octaves", func(c *Config) { c.Terrain.Noise.Octaves = 0 }},
		{"bands out of order", func(c *Config) { c.Terrain.Bands.LowMid = 0.9 }},
		{"bad color", func(c *Config) { c.Terrain.Textures.Mid.Color = "green" }},
		{"disk without path", func(c *Config) { c.Cache.Backend = BackendDisk }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "s3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestLoadFailsFastOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mesh:\n  segments: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCacheNamespaceTracksGenerationInputs(t *testing.T) {
	base := Default()
	ns := base.CacheNamespace()
	if ns != Default().CacheNamespace() {
		t.Fatalf("namespace not deterministic")
	}

	changed := Default()
	changed.Terrain.MaxHeight++
	if changed.CacheNamespace() == ns {
		t.Fatalf("max height change kept namespace %s", ns)
	}

	changed = Default()
	changed.Terrain.Noise.Octaves++
	if changed.CacheNamespace() == ns {
		t.Fatalf("octave change kept namespace %s", ns)
	}

	// LOD tuning does not affect geometry.
	unchanged := Default()
	unchanged.LOD.SplitThreshold = 1.1
	if unchanged.CacheNamespace() != ns {
		t.Fatalf("lod change altered namespace")
	}
}

func TestRuntimeSettingsClamp(t *testing.T) {
	prev := GetMaxBuildsPerFrame()
	defer SetMaxBuildsPerFrame(prev)

	SetMaxBuildsPerFrame(0)
	if got := GetMaxBuildsPerFrame(); got != 1 {
		t.Fatalf("clamped low = %d", got)
	}
	SetMaxBuildsPerFrame(1 << 20)
	if got := GetMaxBuildsPerFrame(); got != 4096 {
		t.Fatalf("clamped high = %d", got)
	}

	prevBias := GetSplitBias()
	defer SetSplitBias(prevBias)
	SetSplitBias(100)
	if got := GetSplitBias(); got != 4 {
		t.Fatalf("bias clamp = %v", got)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != [3]uint8{255, 128, 0} {
		t.Fatalf("got %v", c)
	}
	if _, err := ParseColor("#ff80"); err == nil {
		t.Fatalf("expected error for short color")
	}
}
