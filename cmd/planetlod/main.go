package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"planet-lod/internal/config"
	"planet-lod/internal/lod"
	"planet-lod/internal/planet"
	"planet-lod/internal/stream"
	"planet-lod/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xlab/closer"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to planet configuration file")
		mode     = flag.String("mode", "simulate", "simulate | serve | preview")
		frames   = flag.Int("frames", 240, "frames to run in simulate mode")
		out      = flag.String("out", "face.png", "preview output file")
		faceName = flag.String("face", "top", "face to preview")
		res      = flag.Int("res", 256, "preview sampling resolution")
		size     = flag.Int("size", 512, "preview image size in pixels")
		realtime = flag.Bool("realtime", false, "pace simulate mode to server.frame_rate")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Apply()

	switch *mode {
	case "simulate":
		err = simulate(cfg, *frames, *realtime)
	case "serve":
		err = serve(cfg)
	case "preview":
		err = preview(cfg, *faceName, *res, *size, *out)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s: %v", *mode, err)
	}
}

func serve(cfg *config.Config) error {
	eng, err := newEngine(cfg, true)
	if err != nil {
		return err
	}

	// start well outside the planet over the first active face
	start := cameraPath(cfg, eng.planet, 0)
	srv := stream.New(cfg.Server, eng.loop, lod.Camera{Position: start})

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(func() {
		cancel()
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
		eng.close()
	})

	go srv.Run(ctx)
	go func() {
		if err := srv.Start(cfg.Server.Listen); err != nil {
			log.Printf("listen: %v", err)
			closer.Close()
		}
	}()
	closer.Hold()
	return nil
}

func preview(cfg *config.Config, faceName string, res, size int, out string) error {
	id, ok := planet.ParseFace(faceName)
	if !ok {
		return fmt.Errorf("%w: unknown face %q", config.ErrInvalid, faceName)
	}
	mgr := planet.NewManager(cfg)
	gen := terrain.NewGenerator(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	start := time.Now()
	img, err := terrain.RenderFace(ctx, gen, mgr.Face(id), res, size)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := terrain.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("preview of %v written to %s in %v", id, out, time.Since(start).Round(time.Millisecond))
	return nil
}

// cameraPath returns the camera at fraction t of a fly-in over the first
// active face: it approaches from four half-sizes out to just above the face
// center during the first half and retreats during the second.
func cameraPath(cfg *config.Config, mgr *planet.Manager, t float64) mgl64.Vec3 {
	face := mgr.Face(planet.Top)
	if active := mgr.Active(); len(active) > 0 {
		face = active[0]
	}
	h := face.HalfSize()
	k := 1 - triangle(t)
	u := -4 * h * k
	height := h + cfg.Terrain.MaxHeight + 0.1*h
	return face.Orientation.Mul3x1(mgl64.Vec3{u, height, 0})
}

// triangle folds t in [0,1] into a triangle wave peaking at t = 0.5.
func triangle(t float64) float64 {
	if t > 0.5 {
		t = 1 - t
	}
	return 2 * t
}
