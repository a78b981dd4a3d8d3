package main

import (
	"context"
	"log"
	"time"

	"planet-lod/internal/cache"
	"planet-lod/internal/config"
	"planet-lod/internal/lod"
	"planet-lod/internal/meshing"
	"planet-lod/internal/planet"
	"planet-lod/internal/terrain"
)

// engine is the wired set of components behind every mode.
type engine struct {
	cache  *cache.Cache
	pool   *meshing.Pool
	planet *planet.Manager
	loop   *lod.Loop
}

func newEngine(cfg *config.Config, async bool) (*engine, error) {
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if r, ok := store.(*cache.RedisStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := r.Ping(ctx); err != nil {
			// the cache wrapper disables itself on the first failed call
			log.Printf("cache: redis at %s unreachable: %v", cfg.Cache.Redis.Addr, err)
		}
		cancel()
	}
	c := cache.New(store, cfg.CacheNamespace())
	log.Printf("cache: backend %s, namespace %s", cfg.Cache.Backend, c.Namespace())

	gen := terrain.NewGenerator(cfg)
	builder := meshing.NewBuilder(gen, cfg.Mesh.Segments, c)

	var pool *meshing.Pool
	if async && cfg.Mesh.Workers > 0 {
		pool = meshing.NewPool(builder, cfg.Mesh.Workers, cfg.Mesh.QueueSize)
	}
	mgr := planet.NewManager(cfg)
	return &engine{
		cache:  c,
		pool:   pool,
		planet: mgr,
		loop:   lod.New(cfg, mgr, builder, pool),
	}, nil
}

func (e *engine) close() {
	e.loop.Close()
	if e.pool != nil {
		e.pool.Shutdown()
	}
	if err := e.cache.Close(); err != nil {
		log.Printf("cache close: %v", err)
	}
}
