package strom

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/birdayz/strom/metrics"
)

// OperatorInstance binds one operator to its input queues and its
// emission context. Instances are what the scheduler hands to
// workers. Sources get no input queues; their instance exists only to
// carry the context for the producer goroutine.
//
// An instance may hold several input queues when multiple edges feed
// the operator; pops round-robin across them so no edge starves.
type OperatorInstance struct {
	id     uint32
	op     Operator
	proc   func(ev Event, ctx *OperatorContext) error
	inputs []*BoundedQueue
	cursor atomic.Uint32
	ctx    *OperatorContext

	log       *slog.Logger
	collector *metrics.Collector
}

// NewOperatorInstance creates an instance for op. The dispatch path is
// fixed at construction: transforms route through Process, sinks
// through Consume. For sources inputs must be nil.
func NewOperatorInstance(id uint32, op Operator, inputs []*BoundedQueue, ctx *OperatorContext, log *slog.Logger) *OperatorInstance {
	inst := &OperatorInstance{
		id:     id,
		op:     op,
		inputs: inputs,
		ctx:    ctx,
		log:    log,
	}
	switch o := op.(type) {
	case TransformOperator:
		inst.proc = o.Process
	case SinkOperator:
		inst.proc = func(ev Event, _ *OperatorContext) error { return o.Consume(ev) }
	}
	return inst
}

func (i *OperatorInstance) ID() uint32                { return i.id }
func (i *OperatorInstance) Operator() Operator        { return i.op }
func (i *OperatorInstance) Context() *OperatorContext { return i.ctx }

// setCollector wires the runtime's metrics collector into the dispatch
// path. Called once during init, before any worker runs.
func (i *OperatorInstance) setCollector(c *metrics.Collector) { i.collector = c }

// HasWork reports whether any input queue holds an event. Paused
// operators report no work so the scheduler skips them.
func (i *OperatorInstance) HasWork() bool {
	if i.op.State() == StatePaused {
		return false
	}
	for _, q := range i.inputs {
		if !q.Empty() {
			return true
		}
	}
	return false
}

// ExecuteOnce pops at most one event and processes it. Returns true
// if work was done.
func (i *OperatorInstance) ExecuteOnce() bool {
	n := len(i.inputs)
	if n == 0 || i.proc == nil {
		return false
	}
	start := i.cursor.Add(1)
	for k := 0; k < n; k++ {
		q := i.inputs[(int(start)+k)%n]
		if ev, ok := q.TryPop(); ok {
			i.dispatch(ev)
			return true
		}
	}
	return false
}

// ExecuteBatch processes up to max events, stopping early when the
// inputs run dry. Bounding the batch keeps a worker from holding one
// instance indefinitely, which preserves scheduling fairness.
func (i *OperatorInstance) ExecuteBatch(max int) int {
	processed := 0
	for processed < max {
		if !i.ExecuteOnce() {
			break
		}
		processed++
	}
	return processed
}

type droppedRecorder interface {
	RecordDropped()
}

func (i *OperatorInstance) dispatch(ev Event) {
	start := time.Now()
	err := i.proc(ev, i.ctx)
	elapsed := time.Since(start)
	if i.collector != nil {
		i.collector.ProcessingLatency.Observe(elapsed.Seconds())
	}
	if err != nil {
		// Operator faults are local: count the event as dropped and
		// keep the worker alive.
		if r, ok := i.op.(droppedRecorder); ok {
			r.RecordDropped()
		}
		if i.collector != nil {
			i.collector.EventsDropped.Inc()
		}
		i.log.Warn("operator failed to process event",
			"operator", i.op.Name(),
			"instance", i.id,
			"error", err)
	}
}
