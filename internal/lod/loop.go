// Package lod drives the per-frame split/merge pass over the planet faces and
// reconciles the resulting leaf set with built chunk meshes.
package lod

import (
	"context"
	"errors"
	"log"
	"math"

	"planet-lod/internal/config"
	"planet-lod/internal/meshing"
	"planet-lod/internal/planet"
	"planet-lod/internal/profiling"
	"planet-lod/internal/quadtree"

	"github.com/go-gl/mathgl/mgl64"
)

// EventKind says whether a chunk appeared or disappeared.
type EventKind int

const (
	Added EventKind = iota
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Added:
		return "add"
	case Removed:
		return "remove"
	}
	return "unknown"
}

// Event tells the renderer to attach or release one chunk. Mesh is nil for
// removals.
type Event struct {
	Kind EventKind
	Key  meshing.ChunkKey
	Mesh *meshing.Mesh
}

// Stats describes the loop state after the last frame.
type Stats struct {
	Leaves   int
	Attached int
	Pending  int
	Retiring int
	Splits   int // during the last Update
	Merges   int // during the last Update
	Version  uint64
	Segments int // grid resolution of built meshes
	Workers  int // 0 when building inline
	Queued   int
}

type pendingBuild struct {
	tag    uint64
	cancel context.CancelFunc
}

// Loop owns the face trees and the chunk working set. Update, Drain, Stats
// and Close must be called from one goroutine; Attached may be called from
// any.
type Loop struct {
	cfg       config.LODConfig
	maxHeight float64
	planet    *planet.Manager
	builder   *meshing.Builder
	pool      *meshing.Pool // nil builds inline

	results chan meshing.BuildResult
	nextTag uint64

	wanted      map[meshing.ChunkKey]struct{}
	wantedOrder []meshing.ChunkKey
	pending     map[meshing.ChunkKey]pendingBuild
	retiring    map[meshing.ChunkKey]struct{}
	store       *chunkStore

	splits, merges int
}

// New creates a loop over the faces of mgr. With a nil pool chunk meshes are
// built inline during Update.
func New(cfg *config.Config, mgr *planet.Manager, builder *meshing.Builder, pool *meshing.Pool) *Loop {
	size := cfg.Mesh.QueueSize + cfg.Mesh.Workers
	if size < 1 {
		size = 1
	}
	return &Loop{
		cfg:       cfg.LOD,
		maxHeight: cfg.Terrain.MaxHeight,
		planet:    mgr,
		builder:   builder,
		pool:      pool,
		results:   make(chan meshing.BuildResult, size),
		wanted:    make(map[meshing.ChunkKey]struct{}),
		pending:   make(map[meshing.ChunkKey]pendingBuild),
		retiring:  make(map[meshing.ChunkKey]struct{}),
		store:     newChunkStore(),
	}
}

// Update runs one frame for the camera and returns what changed for the
// renderer. With keep-until-ready a chunk's removal is never emitted before
// the additions of the chunks replacing it.
func (l *Loop) Update(cam Camera) []Event {
	defer profiling.Track("lod.Update")()

	events := l.collect(nil)

	if l.planet.CameraDriven() {
		l.planet.UpdateActivation(cam.Position)
	}

	l.splits, l.merges = 0, 0
	var planes *[6]plane
	if l.cfg.Frustum && cam.ViewProj != nil {
		p := extractFrustumPlanes(*cam.ViewProj)
		planes = &p
	}
	for _, f := range l.planet.Active() {
		l.refine(f, cam, planes)
	}

	events = l.reconcile(events)
	profiling.Count("lod.frames", 1)
	return events
}

// thresholds returns the split and merge multipliers with the runtime bias
// applied to both.
func (l *Loop) thresholds() (split, merge float64) {
	bias := config.GetSplitBias()
	return l.cfg.SplitThreshold * bias, l.cfg.MergeThreshold * bias
}

func (l *Loop) distance(f *planet.Face, n *quadtree.Node, cam mgl64.Vec3) float64 {
	if l.cfg.Metric == config.MetricSurface {
		return cam.Sub(f.ToSphere(n.Center)).Len()
	}
	return n.PlanarDistance(f.ToLocal(cam))
}

// refine runs the split/merge pass over one face. Children created this frame
// are not visited, and a node that split is never merged in the same pass.
func (l *Loop) refine(f *planet.Face, cam Camera, planes *[6]plane) {
	defer profiling.Track("lod.refine")()
	split, merge := l.thresholds()

	var visit func(n *quadtree.Node)
	visit = func(n *quadtree.Node) {
		if n.IsLeaf() {
			if n.Depth >= l.cfg.MaxDepth {
				return
			}
			if !n.ShouldSplitAt(l.distance(f, n, cam.Position), split) {
				return
			}
			if planes != nil && !l.visible(f, n, planes) {
				return
			}
			if err := n.Split(); err == nil {
				l.splits++
			}
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
		// Children that split above are no longer leaves, so CanMerge is false.
		if n.ShouldMergeAt(l.distance(f, n, cam.Position), merge) {
			if err := n.Merge(); err == nil {
				l.merges++
			}
		}
	}
	visit(f.Root)
}

// visible tests the node's projected footprint, padded by the terrain
// height, against the frustum.
func (l *Loop) visible(f *planet.Face, n *quadtree.Node, planes *[6]plane) bool {
	center := f.ToSphere(n.Center)
	lo, hi := n.Bounds()
	r := 0.0
	for _, c := range [4]mgl64.Vec2{lo, {hi.X(), lo.Y()}, {lo.X(), hi.Y()}, hi} {
		r = math.Max(r, f.ToSphere(c).Sub(center).Len())
	}
	return sphereInFrustum(center, r+l.maxHeight, planes)
}

// reconcile diffs the active leaves against the previous working set.
func (l *Loop) reconcile(events []Event) []Event {
	defer profiling.Track("lod.reconcile")()

	next := make(map[meshing.ChunkKey]struct{}, len(l.wanted))
	order := l.wantedOrder[:0]
	for _, f := range l.planet.Active() {
		for n := range f.Leaves() {
			k := meshing.KeyFor(f.ID, n)
			next[k] = struct{}{}
			order = append(order, k)
		}
	}

	for k := range l.wanted {
		if _, ok := next[k]; ok {
			continue
		}
		if p, ok := l.pending[k]; ok {
			p.cancel()
			delete(l.pending, k)
			profiling.Count("lod.cancelled", 1)
		}
		if l.store.has(k) {
			if l.cfg.KeepUntilReady {
				l.retiring[k] = struct{}{}
			} else {
				events = l.release(events, k)
			}
		}
	}
	l.wanted, l.wantedOrder = next, order

	budget := config.GetMaxBuildsPerFrame()
	for _, k := range order {
		if _, ok := l.retiring[k]; ok {
			// wanted again before it was released
			delete(l.retiring, k)
			continue
		}
		if _, ok := l.pending[k]; ok || l.store.has(k) {
			continue
		}
		if budget == 0 {
			continue
		}
		var ok bool
		events, ok = l.request(events, k)
		if !ok {
			// queue full; retry next frame
			budget = 0
			continue
		}
		budget--
	}

	return l.resolveRetiring(events)
}

// request starts a build for k. Inline builds attach immediately.
func (l *Loop) request(events []Event, k meshing.ChunkKey) ([]Event, bool) {
	face := l.planet.Face(k.Face)
	if l.pool == nil {
		m, err := l.builder.Build(context.Background(), face, k)
		if err != nil {
			log.Printf("lod: build %s failed: %v", k, err)
			return events, true
		}
		return l.attach(events, k, m), true
	}

	l.nextTag++
	ctx, cancel := context.WithCancel(context.Background())
	job := meshing.BuildJob{Ctx: ctx, Face: face, Key: k, Tag: l.nextTag, Result: l.results}
	if !l.pool.Submit(job) {
		cancel()
		return events, false
	}
	l.pending[k] = pendingBuild{tag: l.nextTag, cancel: cancel}
	return events, true
}

// collect applies every finished build without blocking.
func (l *Loop) collect(events []Event) []Event {
	for {
		select {
		case res := <-l.results:
			events = l.apply(events, res)
		default:
			return events
		}
	}
}

func (l *Loop) apply(events []Event, res meshing.BuildResult) []Event {
	p, ok := l.pending[res.Key]
	if !ok || p.tag != res.Tag {
		// cancelled or superseded
		profiling.Count("lod.discarded", 1)
		return events
	}
	delete(l.pending, res.Key)
	p.cancel()

	if res.Err != nil {
		if !errors.Is(res.Err, context.Canceled) {
			log.Printf("lod: build %s failed: %v", res.Key, res.Err)
		}
		return events
	}
	if _, ok := l.wanted[res.Key]; !ok {
		profiling.Count("lod.discarded", 1)
		return events
	}
	return l.attach(events, res.Key, res.Mesh)
}

func (l *Loop) attach(events []Event, k meshing.ChunkKey, m *meshing.Mesh) []Event {
	l.store.add(k, m)
	return append(events, Event{Kind: Added, Key: k, Mesh: m})
}

func (l *Loop) release(events []Event, k meshing.ChunkKey) []Event {
	delete(l.retiring, k)
	if !l.store.remove(k) {
		return events
	}
	return append(events, Event{Kind: Removed, Key: k})
}

// resolveRetiring releases retiring chunks once no wanted chunk overlapping
// them is still waiting for its mesh.
func (l *Loop) resolveRetiring(events []Event) []Event {
	if len(l.retiring) == 0 {
		return events
	}
	var waiting []meshing.ChunkKey
	for _, k := range l.wantedOrder {
		if !l.store.has(k) {
			waiting = append(waiting, k)
		}
	}
	var done []meshing.ChunkKey
	for r := range l.retiring {
		blocked := false
		for _, w := range waiting {
			if w.Overlaps(r) {
				blocked = true
				break
			}
		}
		if !blocked {
			done = append(done, r)
		}
	}
	for _, r := range done {
		events = l.release(events, r)
	}
	return events
}

// Drain waits for every in-flight build and applies the results.
func (l *Loop) Drain(ctx context.Context) ([]Event, error) {
	var events []Event
	for len(l.pending) > 0 {
		select {
		case res := <-l.results:
			events = l.apply(events, res)
		case <-ctx.Done():
			return l.resolveRetiring(events), ctx.Err()
		}
	}
	return l.resolveRetiring(events), nil
}

// Attached returns the meshes currently handed to the renderer, ordered by key.
func (l *Loop) Attached() []*meshing.Mesh {
	return l.store.snapshot()
}

// Stats reports the working set sizes.
func (l *Loop) Stats() Stats {
	var workers, queued int
	if l.pool != nil {
		workers, queued = l.pool.Workers(), l.pool.QueueLength()
	}
	return Stats{
		Leaves:   len(l.wanted),
		Attached: l.store.len(),
		Pending:  len(l.pending),
		Retiring: len(l.retiring),
		Splits:   l.splits,
		Merges:   l.merges,
		Version:  l.store.version(),
		Segments: l.builder.Segments(),
		Workers:  workers,
		Queued:   queued,
	}
}

// Close cancels every in-flight build. The loop must not be used afterwards.
func (l *Loop) Close() {
	for k, p := range l.pending {
		p.cancel()
		delete(l.pending, k)
	}
}
