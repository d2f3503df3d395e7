// Package jobs runs pure compute functions on a worker pool and hands their
// results back to the owning goroutine through a FIFO completion queue.
//
// Compute functions run on pool workers and must only read their captured
// inputs. Apply functions run inside Drain, on whichever goroutine calls it;
// that goroutine is the only one allowed to touch the state they mutate.
package jobs

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	// Name labels the job in logs.
	Name string
	// Compute runs on a worker goroutine.
	Compute func() any
	// Apply receives Compute's result during Drain.
	Apply func(result any)
}

// Options configures a Dispatcher.
type Options struct {
	// Workers caps concurrent compute functions. Zero means runtime.NumCPU().
	Workers int
	Logger  *zap.Logger
}

// Stats is a point-in-time view of dispatcher counters.
type Stats struct {
	Submitted      uint64
	Completed      uint64
	Applied        uint64
	Failed         uint64
	InFlight       int
	Queued         int
	RunningWorkers int64
}

type completion struct {
	name   string
	result any
	apply  func(any)
}

// Dispatcher is a worker pool with a completion queue.
type Dispatcher struct {
	pool pond.Pool
	log  *zap.Logger

	mu        sync.Mutex
	completed []completion
	closed    bool

	inFlight sync.WaitGroup
	pending  atomic.Int64

	submitted atomic.Uint64
	finished  atomic.Uint64
	applied   atomic.Uint64
	failed    atomic.Uint64
}

// New creates a dispatcher and starts its pool.
func New(opts Options) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("starting job pool", zap.Int("workers", workers))
	return &Dispatcher{
		pool: pond.NewPool(workers),
		log:  log,
	}
}

// Submit queues a job. It never blocks on the compute function.
// Jobs submitted after Close are dropped.
func (d *Dispatcher) Submit(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn("job dropped, dispatcher closed", zap.String("job", job.Name))
		return
	}

	d.submitted.Add(1)
	d.pending.Add(1)
	d.inFlight.Add(1)
	d.pool.Submit(func() {
		defer d.inFlight.Done()
		d.run(job)
	})
}

func (d *Dispatcher) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.pending.Add(-1)
			d.failed.Add(1)
			d.log.Error("job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()

	result := job.Compute()
	d.finished.Add(1)

	d.mu.Lock()
	d.completed = append(d.completed, completion{name: job.Name, result: result, apply: job.Apply})
	d.mu.Unlock()
}

// Drain applies every completion queued at the time of the call, in the
// order the jobs finished. Completions of jobs submitted from inside an
// Apply are left for the next Drain. Returns the number applied.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	batch := d.completed
	d.completed = nil
	d.mu.Unlock()

	for _, c := range batch {
		d.pending.Add(-1)
		if c.apply != nil {
			c.apply(c.result)
		}
		d.applied.Add(1)
	}
	return len(batch)
}

// Flush blocks until no job is in flight and the completion queue is empty,
// applying results as they arrive. Returns the number applied.
func (d *Dispatcher) Flush() int {
	total := 0
	for {
		d.inFlight.Wait()
		n := d.Drain()
		total += n
		if n == 0 && d.pending.Load() == 0 {
			return total
		}
	}
}

// Pending returns the number of submitted jobs not yet applied.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	queued := len(d.completed)
	d.mu.Unlock()
	return Stats{
		Submitted:      d.submitted.Load(),
		Completed:      d.finished.Load(),
		Applied:        d.applied.Load(),
		Failed:         d.failed.Load(),
		InFlight:       d.Pending() - queued,
		Queued:         queued,
		RunningWorkers: d.pool.RunningWorkers(),
	}
}

// Close stops accepting jobs and waits for running ones to finish. Their
// results stay queued; call Drain afterwards to apply them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.pool.StopAndWait()
	d.log.Debug("job pool stopped", zap.Uint64("submitted", d.submitted.Load()))
}

// Go submits a typed compute/apply pair.
func Go[T any](d *Dispatcher, name string, compute func() T, apply func(T)) {
	d.Submit(Job{
		Name:    name,
		Compute: func() any { return compute() },
		Apply:   func(r any) { apply(r.(T)) },
	})
}
