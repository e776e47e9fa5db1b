package strom

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds how many events a worker processes from one
// instance before asking the scheduler again.
const DefaultBatchSize = 64

// ErrPoolAlreadyStarted is returned when Start is called twice on the
// same pool.
var ErrPoolAlreadyStarted = errors.New("strom: worker pool already started")

// WorkerStats is a snapshot of one worker's counters.
type WorkerStats struct {
	EventsProcessed uint64
	Iterations      uint64
	ActiveTimeNs    uint64
	IdleTimeNs      uint64
}

// Worker is one scheduling loop. It repeatedly asks the scheduler for
// a ready instance and runs a bounded batch on it; on an idle pass it
// yields the processor so producer goroutines get time.
type Worker struct {
	id        int
	scheduler Scheduler
	running   atomic.Bool
	log       *slog.Logger

	eventsProcessed atomic.Uint64
	iterations      atomic.Uint64
	activeTimeNs    atomic.Uint64
	idleTimeNs      atomic.Uint64
}

func newWorker(id int, scheduler Scheduler, log *slog.Logger) *Worker {
	return &Worker{id: id, scheduler: scheduler, log: log}
}

func (w *Worker) ID() int { return w.id }

// Stats returns a snapshot of the worker's counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		EventsProcessed: w.eventsProcessed.Load(),
		Iterations:      w.iterations.Load(),
		ActiveTimeNs:    w.activeTimeNs.Load(),
		IdleTimeNs:      w.idleTimeNs.Load(),
	}
}

func (w *Worker) run() {
	w.log.Debug("worker started", "worker", w.id)
	for w.running.Load() {
		w.iterations.Add(1)
		start := time.Now()

		inst := w.scheduler.Next(w.id)
		if inst != nil {
			n := inst.ExecuteBatch(DefaultBatchSize)
			w.eventsProcessed.Add(uint64(n))
			w.activeTimeNs.Add(uint64(time.Since(start).Nanoseconds()))
			continue
		}

		w.idleTimeNs.Add(uint64(time.Since(start).Nanoseconds()))
		runtime.Gosched()
	}
	w.log.Debug("worker stopped", "worker", w.id)
}

// WorkerPool owns the worker goroutines. Lifecycle: NewWorkerPool →
// Init(scheduler) → Start → Stop. Workers hold no ownership over
// instances and never close queues.
type WorkerPool struct {
	numWorkers int
	workers    []*Worker
	eg         *errgroup.Group
	started    atomic.Bool
	stopped    atomic.Bool
	log        *slog.Logger
}

// NewWorkerPool creates a pool with numWorkers workers. Zero means
// auto-detect from the number of CPUs, with a fallback of 4 if that
// is somehow unavailable.
func NewWorkerPool(numWorkers int, log *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &WorkerPool{numWorkers: numWorkers, log: log}
}

// Init creates the workers, all pointing at the same scheduler.
func (p *WorkerPool) Init(scheduler Scheduler) {
	p.workers = make([]*Worker, 0, p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		p.workers = append(p.workers, newWorker(i, scheduler, p.log))
	}
}

// Start spawns one goroutine per worker. It may be called at most
// once per pool.
func (p *WorkerPool) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrPoolAlreadyStarted
	}
	grp := errgroup.Group{}
	p.eg = &grp
	for _, w := range p.workers {
		w.running.Store(true)
		grp.Go(func() error {
			w.run()
			return nil
		})
	}
	return nil
}

// Stop clears every worker's running flag and joins the goroutines.
// Idempotent.
func (p *WorkerPool) Stop() error {
	if !p.started.Load() || !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	for _, w := range p.workers {
		w.running.Store(false)
	}
	return p.eg.Wait()
}

func (p *WorkerPool) NumWorkers() int { return p.numWorkers }

// Stats returns a snapshot per worker.
func (p *WorkerPool) Stats() []WorkerStats {
	out := make([]WorkerStats, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, w.Stats())
	}
	return out
}
