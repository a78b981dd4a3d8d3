package meshing

import (
	"context"
	"fmt"
	"log"

	"planet-lod/internal/cache"
	"planet-lod/internal/planet"
	"planet-lod/internal/profiling"
	"planet-lod/internal/sphere"
	"planet-lod/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
)

// Builder turns chunk keys into meshes, consulting the cache first.
type Builder struct {
	gen      *terrain.Generator
	segments int
	cache    *cache.Cache
}

// NewBuilder creates a builder. c may be nil to build without caching.
func NewBuilder(gen *terrain.Generator, segments int, c *cache.Cache) *Builder {
	if c == nil {
		c = cache.New(nil, "")
	}
	return &Builder{gen: gen, segments: segments, cache: c}
}

// Segments returns the grid resolution of built meshes.
func (b *Builder) Segments() int { return b.segments }

// Build returns the mesh for key on face. A cache hit skips generation; a
// generated mesh is written back. Cache trouble never fails a build.
func (b *Builder) Build(ctx context.Context, face *planet.Face, key ChunkKey) (*Mesh, error) {
	defer profiling.Track("meshing.Build")()
	if face.ID != key.Face {
		return nil, fmt.Errorf("meshing: key %s built on face %v", key, face.ID)
	}

	ck := key.String()
	if blob, ok := b.cache.Get(ctx, ck); ok {
		m, err := DecodeMesh(blob)
		switch {
		case err != nil:
			log.Printf("meshing: ignoring cached %s: %v", ck, err)
		case m.Segments != b.segments:
			log.Printf("meshing: ignoring cached %s: %d segments, want %d", ck, m.Segments, b.segments)
		default:
			b.finish(m, key)
			return m, nil
		}
	}

	m, err := b.Generate(ctx, face, key)
	if err != nil {
		return nil, err
	}
	b.cache.Put(ctx, ck, EncodeMesh(m))
	profiling.Count("meshing.generated", 1)
	return m, nil
}

func (b *Builder) finish(m *Mesh, key ChunkKey) {
	m.Key = key
	m.Indices = GridIndices(m.Segments)
	m.Textures = b.gen.Textures
}

// Generate builds the mesh without touching the cache.
func (b *Builder) Generate(ctx context.Context, face *planet.Face, key ChunkKey) (*Mesh, error) {
	seg := b.segments
	step := key.Size / float64(seg-1)
	lo := key.Center().Sub(mgl64.Vec2{key.Size / 2, key.Size / 2})

	// Displaced positions on a grid with one extra ring so border normals
	// match the neighbouring chunk's.
	ring := seg + 2
	pts := make([]mgl64.Vec3, ring*ring)
	samples := make([]terrain.Sample, ring*ring)
	for j := range ring {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := lo.Y() + float64(j-1)*step
		for i := range ring {
			u := lo.X() + float64(i-1)*step
			dir := sphere.Direction(face.ToCube(mgl64.Vec2{u, v}))
			pts[j*ring+i], samples[j*ring+i] = b.gen.Surface(dir)
		}
	}

	originV := face.ToSphere(key.Center())
	origin := [3]float64{originV.X(), originV.Y(), originV.Z()}

	n := seg * seg
	m := &Mesh{
		Origin:    origin,
		Segments:  seg,
		Positions: make([]float32, 0, 3*n),
		Normals:   make([]float32, 0, 3*n),
		UVs:       make([]float32, 0, 2*n),
		Elevation: make([]float32, 0, n),
		Weights:   make([]float32, 0, 3*n),
	}
	uvScale := 1 / float64(seg-1)
	for j := 1; j <= seg; j++ {
		for i := 1; i <= seg; i++ {
			at := j*ring + i
			p := pts[at]
			s := samples[at]

			tu := pts[at+1].Sub(pts[at-1])
			tv := pts[at+ring].Sub(pts[at-ring])
			nrm := tv.Cross(tu)
			if l := nrm.Len(); l > 0 {
				nrm = nrm.Mul(1 / l)
			}
			if nrm.Dot(p) < 0 {
				nrm = nrm.Mul(-1)
			}

			rel := p.Sub(originV)
			m.Positions = append(m.Positions, float32(rel.X()), float32(rel.Y()), float32(rel.Z()))
			m.Normals = append(m.Normals, float32(nrm.X()), float32(nrm.Y()), float32(nrm.Z()))
			m.UVs = append(m.UVs, float32(float64(i-1)*uvScale), float32(float64(j-1)*uvScale))
			m.Elevation = append(m.Elevation, float32(s.Elevation))
			m.Weights = append(m.Weights, float32(s.Weights[0]), float32(s.Weights[1]), float32(s.Weights[2]))
		}
	}
	b.finish(m, key)
	return m, nil
}
