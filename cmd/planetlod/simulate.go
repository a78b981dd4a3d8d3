package main

import (
	"context"
	"log"
	"time"

	"planet-lod/internal/config"
	"planet-lod/internal/lod"
	"planet-lod/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// simulate flies a camera over the planet for a number of frames and reports
// what the loop did. With realtime set frames are paced to the frame rate.
func simulate(cfg *config.Config, frames int, realtime bool) error {
	eng, err := newEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.close()

	rate := cfg.Server.FrameRate
	if rate <= 0 {
		rate = 30
	}
	target := time.Second / time.Duration(rate)
	limiter := newFrameLimiter(0)
	if realtime {
		limiter = newFrameLimiter(rate)
	}
	lens := lod.NewLens(16, 9, 8*cfg.Planet.Size)

	var added, removed, peak int
	start := time.Now()
	for i := range frames {
		profiling.ResetFrame()
		t := 0.0
		if frames > 1 {
			t = float64(i) / float64(frames-1)
		}
		cam := lod.Camera{Position: cameraPath(cfg, eng.planet, t)}
		if cfg.LOD.Frustum {
			// look at the planet center
			cam = lens.LookAt(cam.Position, mgl64.Vec3{})
		}

		frameStart := time.Now()
		for _, ev := range eng.loop.Update(cam) {
			if ev.Kind == lod.Added {
				added++
			} else {
				removed++
			}
		}
		if took := time.Since(frameStart); took > target {
			log.Printf("frame %d took too long: %.2fms (target: %.2fms) %s",
				i, float64(took.Microseconds())/1000, float64(target.Microseconds())/1000, profiling.TopN(3))
		}

		st := eng.loop.Stats()
		peak = max(peak, st.Leaves)
		if i%30 == 0 {
			log.Printf("frame %d: camera %.1f leaves %d attached %d pending %d (queued %d on %d workers) retiring %d",
				i, cam.Position.Len(), st.Leaves, st.Attached, st.Pending, st.Queued, st.Workers, st.Retiring)
		}
		limiter.Wait()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	events, err := eng.loop.Drain(ctx)
	if err != nil {
		log.Printf("drain: %v", err)
	}
	for _, ev := range events {
		if ev.Kind == lod.Added {
			added++
		} else {
			removed++
		}
	}

	st := eng.loop.Stats()
	log.Printf("simulated %d frames in %v: %d added, %d removed, peak %d leaves, %d attached at end",
		frames, time.Since(start).Round(time.Millisecond), added, removed, peak, st.Attached)
	log.Printf("meshes generated %d, cache hits %d, misses %d, cache disabled %v",
		profiling.Counter("meshing.generated"), profiling.Counter("cache.hit"),
		profiling.Counter("cache.miss"), eng.cache.Disabled())
	return nil
}
