package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Face activation modes.
const (
	ActivationStatic = "static"
	ActivationCamera = "camera"
)

// Distance metrics used by the LOD loop.
const (
	MetricPlanar  = "planar"
	MetricSurface = "surface"
)

// Cache backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendRedis  = "redis"
)

// FaceNames lists the recognized cube faces in face-id order.
var FaceNames = []string{"top", "bottom", "left", "right", "front", "back"}

// Config holds everything needed to build and drive a planet.
type Config struct {
	Planet  PlanetConfig  `yaml:"planet"`
	Faces   FacesConfig   `yaml:"faces"`
	LOD     LODConfig     `yaml:"lod"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Terrain TerrainConfig `yaml:"terrain"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
}

// PlanetConfig sizes the cube and the sphere it is projected onto.
type PlanetConfig struct {
	Size   float64 `yaml:"size"`   // cube edge length
	Radius float64 `yaml:"radius"` // 0 => Size/2
}

// FacesConfig selects which faces get updated.
type FacesConfig struct {
	Activation string   `yaml:"activation"` // static | camera
	Active     []string `yaml:"active"`     // used by static activation
	Range      float64  `yaml:"range"`      // camera activation distance, 0 => planet size
}

// LODConfig tunes the split/merge loop.
type LODConfig struct {
	SplitThreshold    float64 `yaml:"split_threshold"`
	MergeThreshold    float64 `yaml:"merge_threshold"`
	MaxDepth          int     `yaml:"max_depth"`
	Metric            string  `yaml:"metric"`  // planar | surface
	Frustum           bool    `yaml:"frustum"` // never split nodes outside the view frustum
	MaxBuildsPerFrame int     `yaml:"max_builds_per_frame"`
	KeepUntilReady    bool    `yaml:"keep_until_ready"`
}

// MeshConfig controls chunk grids and the build pool.
type MeshConfig struct {
	Segments  int `yaml:"segments"`
	Workers   int `yaml:"workers"` // 0 => build synchronously inside Update
	QueueSize int `yaml:"queue_size"`
}

// TerrainConfig is the height function and texture banding.
type TerrainConfig struct {
	Seed      int64          `yaml:"seed"`
	MaxHeight float64        `yaml:"max_height"`
	Noise     NoiseConfig    `yaml:"noise"`
	Bands     BandsConfig    `yaml:"bands"`
	Textures  TexturesConfig `yaml:"textures"`
}

// NoiseConfig is a standard fractal Brownian motion setup.
type NoiseConfig struct {
	Frequency      float64 `yaml:"frequency"`
	Amplitude      float64 `yaml:"amplitude"`
	Octaves        int     `yaml:"octaves"`
	Lacunarity     float64 `yaml:"lacunarity"`
	Persistence    float64 `yaml:"persistence"`
	Exponentiation float64 `yaml:"exponentiation"`
}

// BandsConfig places the low/mid and mid/high transitions on normalized elevation.
type BandsConfig struct {
	LowMid  float64 `yaml:"low_mid"`
	MidHigh float64 `yaml:"mid_high"`
	Blend   float64 `yaml:"blend"`
}

// TexturesConfig names the texture used in each elevation band.
type TexturesConfig struct {
	Low  TextureConfig `yaml:"low"`
	Mid  TextureConfig `yaml:"mid"`
	High TextureConfig `yaml:"high"`
}

// TextureConfig is a texture name plus a preview color ("#rrggbb").
type TextureConfig struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// CacheConfig selects the chunk cache backend.
type CacheConfig struct {
	Backend    string      `yaml:"backend"`
	Namespace  string      `yaml:"namespace"`
	Path       string      `yaml:"path"`        // disk backend database directory
	MaxEntries int         `yaml:"max_entries"` // memory backend cap, 0 = unbounded
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ServerConfig is used by the serve mode of the CLI.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	FrameRate int    `yaml:"frame_rate"`
}

// Load reads configuration from a YAML file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns a small planet with only the top face active.
func Default() *Config {
	return &Config{
		Planet: PlanetConfig{
			Size: 1000,
		},
		Faces: FacesConfig{
			Activation: ActivationStatic,
			Active:     []string{"top"},
		},
		LOD: LODConfig{
			SplitThreshold:    1.5,
			MergeThreshold:    2.5,
			MaxDepth:          8,
			Metric:            MetricPlanar,
			MaxBuildsPerFrame: 32,
			KeepUntilReady:    true,
		},
		Mesh: MeshConfig{
			Segments:  32,
			Workers:   4,
			QueueSize: 256,
		},
		Terrain: TerrainConfig{
			Seed:      1337,
			MaxHeight: 40,
			Noise: NoiseConfig{
				Frequency:      0.005,
				Amplitude:      1,
				Octaves:        6,
				Lacunarity:     2,
				Persistence:    0.5,
				Exponentiation: 2,
			},
			Bands: BandsConfig{
				LowMid:  0.3,
				MidHigh: 0.7,
				Blend:   0.05,
			},
			Textures: TexturesConfig{
				Low:  TextureConfig{Name: "sand", Color: "#c2b280"},
				Mid:  TextureConfig{Name: "grass", Color: "#4f7942"},
				High: TextureConfig{Name: "rock", Color: "#8b8680"},
			},
		},
		Cache: CacheConfig{
			Backend:   BackendMemory,
			Namespace: "planet",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Server: ServerConfig{
			Listen:    ":8080",
			FrameRate: 30,
		},
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// Validate rejects configurations that cannot build a planet.
func (c *Config) Validate() error {
	if c.Planet.Size <= 0 {
		return invalid("planet.size must be positive, got %v", c.Planet.Size)
	}
	if c.Planet.Radius < 0 {
		return invalid("planet.radius cannot be negative")
	}

	switch c.Faces.Activation {
	case ActivationStatic, ActivationCamera:
	default:
		return invalid("faces.activation %q unknown", c.Faces.Activation)
	}
	for _, name := range c.Faces.Active {
		if FaceIndex(name) < 0 {
			return invalid("faces.active: unknown face %q", name)
		}
	}
	if c.Faces.Range < 0 {
		return invalid("faces.range cannot be negative")
	}

	if c.LOD.SplitThreshold <= 0 {
		return invalid("lod.split_threshold must be positive")
	}
	if c.LOD.SplitThreshold >= c.LOD.MergeThreshold {
		return invalid("lod.split_threshold (%v) must be below lod.merge_threshold (%v)",
			c.LOD.SplitThreshold, c.LOD.MergeThreshold)
	}
	if c.LOD.MaxDepth < 0 {
		return invalid("lod.max_depth cannot be negative")
	}
	switch c.LOD.Metric {
	case MetricPlanar, MetricSurface:
	default:
		return invalid("lod.metric %q unknown", c.LOD.Metric)
	}
	if c.LOD.MaxBuildsPerFrame < 0 {
		return invalid("lod.max_builds_per_frame cannot be negative")
	}

	if c.Mesh.Segments < 2 {
		return invalid("mesh.segments must be at least 2, got %d", c.Mesh.Segments)
	}
	if c.Mesh.Workers < 0 || c.Mesh.QueueSize < 0 {
		return invalid("mesh.workers and mesh.queue_size cannot be negative")
	}

	t := c.Terrain
	if t.MaxHeight < 0 {
		return invalid("terrain.max_height cannot be negative")
	}
	if t.Noise.Octaves < 1 {
		return invalid("terrain.noise.octaves must be at least 1")
	}
	if t.Noise.Frequency <= 0 || t.Noise.Lacunarity <= 0 || t.Noise.Persistence <= 0 {
		return invalid("terrain.noise frequency, lacunarity and persistence must be positive")
	}
	if t.Noise.Exponentiation <= 0 {
		return invalid("terrain.noise.exponentiation must be positive")
	}
	if t.Bands.LowMid >= t.Bands.MidHigh {
		return invalid("terrain.bands.low_mid must be below mid_high")
	}
	if t.Bands.Blend < 0 {
		return invalid("terrain.bands.blend cannot be negative")
	}
	for _, tex := range []TextureConfig{t.Textures.Low, t.Textures.Mid, t.Textures.High} {
		if _, err := ParseColor(tex.Color); err != nil {
			return invalid("terrain.textures %q: %v", tex.Name, err)
		}
	}

	switch c.Cache.Backend {
	case BackendNone, BackendMemory:
	case BackendDisk:
		if c.Cache.Path == "" {
			return invalid("cache.path must be set for the disk backend")
		}
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return invalid("cache.redis.addr must be set for the redis backend")
		}
	default:
		return invalid("cache.backend %q unknown", c.Cache.Backend)
	}
	if c.Cache.MaxEntries < 0 {
		return invalid("cache.max_entries cannot be negative")
	}

	if c.Server.FrameRate <= 0 {
		return invalid("server.frame_rate must be positive")
	}
	return nil
}

// PlanetRadius returns the configured radius, defaulting to half the cube size.
func (c *Config) PlanetRadius() float64 {
	if c.Planet.Radius > 0 {
		return c.Planet.Radius
	}
	return c.Planet.Size / 2
}

// ActivationRange returns the camera activation distance.
func (c *Config) ActivationRange() float64 {
	if c.Faces.Range > 0 {
		return c.Faces.Range
	}
	return c.Planet.Size
}

// FaceIndex maps a face name to its id, or -1.
func FaceIndex(name string) int {
	for i, n := range FaceNames {
		if n == name {
			return i
		}
	}
	return -1
}

// generationInputs is everything that changes generated geometry.
type generationInputs struct {
	Size     float64       `yaml:"size"`
	Radius   float64       `yaml:"radius"`
	Segments int           `yaml:"segments"`
	Terrain  TerrainConfig `yaml:"terrain"`
}

// CacheNamespace returns the cache prefix for this configuration. It changes
// whenever any input of chunk generation changes.
func (c *Config) CacheNamespace() string {
	in := generationInputs{
		Size:     c.Planet.Size,
		Radius:   c.PlanetRadius(),
		Segments: c.Mesh.Segments,
		Terrain:  c.Terrain,
	}
	// yaml.Marshal of plain structs is deterministic (field order).
	data, err := yaml.Marshal(in)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", in))
	}
	ns := c.Cache.Namespace
	if ns == "" {
		ns = "planet"
	}
	return ns + "-" + strconv.FormatUint(xxhash.Sum64(data), 16)
}

// ParseColor parses "#rrggbb" into its components.
func ParseColor(s string) ([3]uint8, error) {
	var out [3]uint8
	if len(s) != 7 || s[0] != '#' {
		return out, fmt.Errorf("color %q must look like #rrggbb", s)
	}
	for i := range 3 {
		v, err := strconv.ParseUint(s[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return out, fmt.Errorf("color %q: %w", s, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
