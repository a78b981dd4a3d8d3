package meshing

import (
	"context"
	"sync"

	"planet-lod/internal/planet"

	"golang.org/x/sync/singleflight"
)

// BuildJob represents a chunk build request
type BuildJob struct {
	Ctx  context.Context
	Face *planet.Face
	Key  ChunkKey
	// Tag is echoed in the result so callers can tell requests for the same key apart
	Tag uint64
	// Result channel - will be sent the result when done
	Result chan<- BuildResult
}

// BuildResult contains the result of a build
type BuildResult struct {
	Key  ChunkKey
	Tag  uint64
	Mesh *Mesh
	Err  error
}

// Pool runs chunk builds on background goroutines. Concurrent builds of the
// same key collapse into one.
type Pool struct {
	jobQueue chan BuildJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	builder  *Builder
	flight   singleflight.Group
}

// NewPool creates a build pool
func NewPool(builder *Builder, workers int, queueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		jobQueue: make(chan BuildJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		builder:  builder,
	}

	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// Submit queues a job. Returns false if the queue is full.
func (p *Pool) Submit(job BuildJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			res := BuildResult{Key: job.Key, Tag: job.Tag}
			if err := job.Ctx.Err(); err != nil {
				// cancelled while queued
				res.Err = err
			} else {
				v, err, _ := p.flight.Do(job.Key.String(), func() (any, error) {
					return p.builder.Build(job.Ctx, job.Face, job.Key)
				})
				res.Err = err
				if err == nil {
					res.Mesh = v.(*Mesh)
				}
			}

			select {
			case job.Result <- res:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the number of queued jobs
func (p *Pool) QueueLength() int {
	return len(p.jobQueue)
}

// Workers returns the number of worker goroutines
func (p *Pool) Workers() int {
	return p.workers
}
