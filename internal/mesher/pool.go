package mesher

import (
	"context"
	"sync"

	"voxmesh/pkg/types"
)

// ChunkCoord identifies one chunk of the scene grid.
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkJob is one chunk meshing request.
type ChunkJob struct {
	Coord  ChunkCoord
	Blocks []types.BlockPosition
	// Result channel - will be sent the result when done
	ResultChan chan ChunkResult
}

// ChunkResult contains the geometry produced for one chunk.
type ChunkResult struct {
	Coord   ChunkCoord
	Builder *MeshBuilder
	Quads   []MergedQuad
	Err     error
}

// WorkerPool manages goroutines for chunk mesh generation.
type WorkerPool struct {
	jobQueue chan ChunkJob
	workers  int
	process  func(ctx context.Context, job ChunkJob) ChunkResult
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a pool of workers running process on each job.
func NewWorkerPool(ctx context.Context, workers, queueSize int, process func(ctx context.Context, job ChunkJob) ChunkResult) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		jobQueue: make(chan ChunkJob, queueSize),
		workers:  workers,
		process:  process,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJob submits a job to the pool.
// Returns true if the job was queued, false if the queue is full.
func (p *WorkerPool) SubmitJob(job ChunkJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued.
func (p *WorkerPool) SubmitJobBlocking(job ChunkJob) {
	select {
	case p.jobQueue <- job:
	case <-p.ctx.Done():
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			result := p.process(p.ctx, job)

			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown gracefully shuts down the worker pool.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the current number of queued jobs.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
