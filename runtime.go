package strom

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/strom/metrics"
)

var (
	// ErrInvalidState is returned for lifecycle violations such as
	// double Init or Start before Init. The runtime cannot be reused
	// after such a failure; discard it and build a new one.
	ErrInvalidState = errors.New("strom: invalid runtime state")
	// ErrInvalidConfig is returned for unusable configuration values.
	ErrInvalidConfig = errors.New("strom: invalid config")
)

// RuntimeState tracks the runtime lifecycle.
type RuntimeState string

const (
	RuntimeCreated      RuntimeState = "CREATED"
	RuntimeInitialized  RuntimeState = "INITIALIZED"
	RuntimeRunning      RuntimeState = "RUNNING"
	RuntimeShuttingDown RuntimeState = "SHUTTING_DOWN"
	RuntimeStopped      RuntimeState = "STOPPED"
)

type sourceEntry struct {
	src  SourceOperator
	inst *OperatorInstance
}

// Runtime owns the materialized graph: every queue, every operator
// instance, the scheduler, the worker pool and the source producer
// goroutines. The graph is frozen after Init; Stop drains and closes
// it in an order that loses no enqueued event and orphans no
// goroutine.
type Runtime struct {
	id  string
	cfg RuntimeConfig
	log *slog.Logger

	mu    sync.Mutex
	state RuntimeState

	instances []*OperatorInstance // scheduled (non-source) instances
	sources   []sourceEntry
	queues    []*BoundedQueue

	scheduler Scheduler
	pool      *WorkerPool
	collector *metrics.Collector

	running atomic.Bool
	srcGrp  *errgroup.Group

	reporterDone chan struct{}
	reporterWG   sync.WaitGroup
}

// New creates a runtime. Zero-valued config fields fall back to the
// defaults documented on RuntimeConfig.
func New(cfg RuntimeConfig, opts ...Option) *Runtime {
	r := &Runtime{
		id:        uuid.NewString(),
		cfg:       cfg,
		log:       NullLogger(),
		state:     RuntimeCreated,
		collector: metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.DefaultQueueCapacity <= 0 {
		r.cfg.DefaultQueueCapacity = DefaultQueueCapacity
	}
	if r.cfg.MetricsInterval <= 0 {
		r.cfg.MetricsInterval = time.Second
	}
	r.log = r.log.With("runtime", r.id[:8])
	return r
}

// ID returns the runtime's unique id, used in log attribution.
func (r *Runtime) ID() string { return r.id }

// Config returns the effective configuration.
func (r *Runtime) Config() RuntimeConfig { return r.cfg }

// Metrics returns the process-wide metrics collector. It implements
// prometheus.Collector and can be registered with a scrape registry.
func (r *Runtime) Metrics() *metrics.Collector { return r.collector }

// State returns the current lifecycle state.
func (r *Runtime) State() RuntimeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runtime) changeState(to RuntimeState) {
	r.log.Info("change state", "from", r.state, "to", to)
	r.state = to
}

// Scheduler returns the scheduler; nil before Init.
func (r *Runtime) Scheduler() Scheduler { return r.scheduler }

// WorkerPool returns the pool; nil before Init.
func (r *Runtime) WorkerPool() *WorkerPool { return r.pool }

// Queues returns the materialized queues in edge order.
func (r *Runtime) Queues() []*BoundedQueue { return r.queues }

// Init materializes the graph: one queue per edge, one instance per
// operator, a scheduler over the non-source instances and a worker
// pool. Operators are initialized in registration order. Init may be
// called once, on a freshly created runtime.
func (r *Runtime) Init(b *StreamGraphBuilder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RuntimeCreated {
		return fmt.Errorf("%w: Init called in state %s", ErrInvalidState, r.state)
	}
	if r.cfg.NumWorkers < 0 {
		return fmt.Errorf("%w: NumWorkers %d", ErrInvalidConfig, r.cfg.NumWorkers)
	}
	if err := b.validate(); err != nil {
		return err
	}

	// One queue per edge. An operator fed by several edges gets all
	// of them as inputs; the instance round-robins pops across them.
	inputQueues := make(map[string][]*BoundedQueue)
	outputQueues := make(map[string][]*BoundedQueue)
	for _, e := range b.Edges() {
		capacity := e.Capacity
		if capacity <= 0 {
			capacity = r.cfg.DefaultQueueCapacity
		}
		q := NewBoundedQueue(capacity)
		r.queues = append(r.queues, q)
		outputQueues[e.From] = append(outputQueues[e.From], q)
		inputQueues[e.To] = append(inputQueues[e.To], q)
	}

	var nextID uint32
	for _, op := range b.Operators() {
		name := op.Name()
		ctx := NewOperatorContext(name, nextID)
		for _, q := range outputQueues[name] {
			ctx.AddOutput(q)
		}

		if b.IsSource(name) {
			src, ok := op.(SourceOperator)
			if !ok {
				return fmt.Errorf("%w: %q registered as source but does not implement SourceOperator", ErrInvalidTopology, name)
			}
			inst := NewOperatorInstance(nextID, op, nil, ctx, r.log)
			r.sources = append(r.sources, sourceEntry{src: src, inst: inst})
			nextID++
			continue
		}

		inst := NewOperatorInstance(nextID, op, inputQueues[name], ctx, r.log)
		inst.setCollector(r.collector)
		r.instances = append(r.instances, inst)
		nextID++
	}

	numWorkers := r.cfg.NumWorkers
	r.pool = NewWorkerPool(numWorkers, r.log)
	numWorkers = r.pool.NumWorkers()

	r.scheduler = NewScheduler(r.cfg.SchedulingPolicy, r.instances, numWorkers)
	r.pool.Init(r.scheduler)

	for _, op := range b.Operators() {
		ctx := r.contextFor(op.Name())
		if err := op.Init(ctx); err != nil {
			return fmt.Errorf("init operator %q: %w", op.Name(), err)
		}
		if base, ok := op.(interface{ SetState(OperatorState) }); ok {
			base.SetState(StateInitialized)
		}
	}

	r.changeState(RuntimeInitialized)
	r.log.Info("graph materialized",
		"operators", len(r.instances)+len(r.sources),
		"sources", len(r.sources),
		"queues", len(r.queues),
		"workers", numWorkers,
		"policy", r.scheduler.Policy())
	return nil
}

func (r *Runtime) contextFor(name string) *OperatorContext {
	for _, s := range r.sources {
		if s.src.Name() == name {
			return s.inst.Context()
		}
	}
	for _, inst := range r.instances {
		if inst.Operator().Name() == name {
			return inst.Context()
		}
	}
	return nil
}

// Start launches the worker pool and one producer goroutine per
// source. It may be called once, after Init.
func (r *Runtime) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RuntimeInitialized {
		return fmt.Errorf("%w: Start called in state %s", ErrInvalidState, r.state)
	}

	r.running.Store(true)
	r.changeState(RuntimeRunning)
	r.setOperatorStates(StateRunning)

	if err := r.pool.Start(); err != nil {
		return err
	}

	grp := errgroup.Group{}
	r.srcGrp = &grp
	for _, entry := range r.sources {
		grp.Go(func() error {
			r.runSource(entry)
			return nil
		})
	}

	if r.cfg.EnableMetrics {
		r.reporterDone = make(chan struct{})
		r.reporterWG.Add(1)
		go r.reportMetrics()
	}

	return nil
}

// runSource drives one source's generate loop until the source
// reports end-of-stream, a stop is requested, or the runtime's
// running flag clears. The blocking Emit inside Generate is where
// backpressure stalls the producer.
func (r *Runtime) runSource(entry sourceEntry) {
	name := entry.src.Name()
	r.log.Debug("source started", "source", name)
	for r.running.Load() && !entry.src.ShouldStop() {
		if !entry.src.Generate(entry.inst.Context()) {
			break
		}
		r.collector.EventsProcessed.Inc()
		r.scheduler.NotifyWorkAvailable()
	}
	r.log.Debug("source finished", "source", name)
}

func (r *Runtime) reportMetrics() {
	defer r.reporterWG.Done()
	ticker := time.NewTicker(r.cfg.MetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var queued int64
			for _, q := range r.queues {
				queued += int64(q.Len())
			}
			r.collector.TotalQueueSize.Set(queued)
			snap := r.collector.Snapshot()
			r.log.Info("metrics",
				"events", snap.TotalEventsProcessed,
				"rate", snap.EventsPerSecond,
				"latency_ms", snap.AvgLatencyMs,
				"queued", snap.TotalQueueSize,
				"backpressure", snap.BackpressureEvents,
				"dropped", snap.EventsDropped)
		case <-r.reporterDone:
			return
		}
	}
}

// Stop shuts the runtime down gracefully: stop and join sources,
// drain the queues, close them, join the workers, then shut down the
// operators. Idempotent; returns nil when called in any state other
// than Running.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RuntimeRunning {
		return nil
	}
	r.changeState(RuntimeShuttingDown)
	r.setOperatorStates(StateShuttingDown)

	for _, entry := range r.sources {
		entry.src.RequestStop()
	}
	_ = r.srcGrp.Wait()

	r.drain()

	r.running.Store(false)

	for _, q := range r.queues {
		q.Close()
	}

	var err error
	err = multierr.Append(err, r.pool.Stop())

	for _, entry := range r.sources {
		if e := entry.src.Shutdown(entry.inst.Context()); e != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown %q: %w", entry.src.Name(), e))
		}
	}
	for _, inst := range r.instances {
		if e := inst.Operator().Shutdown(inst.Context()); e != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown %q: %w", inst.Operator().Name(), e))
		}
	}
	r.setOperatorStates(StateStopped)

	if r.reporterDone != nil {
		close(r.reporterDone)
		r.reporterWG.Wait()
	}

	r.changeState(RuntimeStopped)
	return err
}

// drain waits for every queue to empty while the workers keep
// processing. With no ShutdownTimeout this spins (with sleeps)
// indefinitely; with one, on expiry it adds the number of events
// still enqueued to EventsDropped and returns, letting Stop close the
// queues and stop the workers. Workers finish their current batch
// before stopping, so some of the counted events may still be
// processed; events left in the queues after that are not.
func (r *Runtime) drain() {
	var deadline time.Time
	if r.cfg.ShutdownTimeout > 0 {
		deadline = time.Now().Add(r.cfg.ShutdownTimeout)
	}

	for {
		remaining := 0
		for _, q := range r.queues {
			remaining += q.Len()
		}
		if remaining == 0 {
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			r.collector.EventsDropped.Add(uint64(remaining))
			r.log.Warn("shutdown deadline expired, dropping queued events",
				"remaining", remaining,
				"timeout", r.cfg.ShutdownTimeout)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (r *Runtime) setOperatorStates(s OperatorState) {
	for _, entry := range r.sources {
		if base, ok := entry.src.(interface{ SetState(OperatorState) }); ok {
			base.SetState(s)
		}
	}
	for _, inst := range r.instances {
		if base, ok := inst.Operator().(interface{ SetState(OperatorState) }); ok {
			base.SetState(s)
		}
	}
}

// AwaitCompletion blocks until every source goroutine has finished.
// Useful with finite sources; call Stop afterwards to drain and shut
// down.
func (r *Runtime) AwaitCompletion() {
	if r.srcGrp != nil {
		_ = r.srcGrp.Wait()
	}
}
