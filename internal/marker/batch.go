package marker

import (
	"context"
	"image"
	"runtime"
	"sync"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool creates a pool with the given number of workers. A value
// of zero or less uses one worker per CPU.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// Wait blocks until every submitted job has finished.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops the workers once the queue drains.
func (wp *WorkerPool) Close() {
	close(wp.jobQueue)
}

// ApplyBatch runs ApplyAR on every frame using the given number of workers
// and returns the results in frame order. Frames are independent: each is
// processed with its own rasters and only the template set is shared.
//
// Frames not yet started when ctx is cancelled are left untouched and
// reported with ReasonCanceled. The returned error is ctx.Err() in that case.
func (p *Pipeline) ApplyBatch(ctx context.Context, frames []*image.NRGBA, workers int, debug bool) ([]Result, error) {
	results := make([]Result, len(frames))
	if len(frames) == 0 {
		return results, nil
	}
	if workers <= 0 || workers > len(frames) {
		workers = min(runtime.NumCPU(), len(frames))
	}

	pool := NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	for i, frame := range frames {
		i, frame := i, frame
		pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i] = failed(ReasonCanceled, err)
				return
			}
			results[i] = p.ApplyAR(frame, debug)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		p.log.WithError(err).Warn("batch interrupted")
		return results, err
	}
	return results, nil
}
