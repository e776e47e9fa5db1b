package strom

import (
	"sync/atomic"
)

// OperatorState tracks an operator's lifecycle. The state is stored
// atomically because it is written by the runtime and read by worker
// threads through the scheduler: a paused operator's instance reports
// no work and is skipped.
type OperatorState int32

const (
	StateCreated OperatorState = iota
	StateInitialized
	StateRunning
	StatePaused
	StateShuttingDown
	StateStopped
)

func (s OperatorState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInitialized:
		return "INITIALIZED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// OperatorStats is a snapshot of an operator's counters.
type OperatorStats struct {
	EventsReceived     uint64
	EventsEmitted      uint64
	EventsDropped      uint64
	BackpressureEvents uint64
	ProcessingTimeNs   uint64
}

// Operator is the contract shared by sources, sinks and transforms.
// Init is called once before the first event on the goroutine that
// will drive the operator; Shutdown once after the last.
type Operator interface {
	Name() string
	State() OperatorState
	Stats() OperatorStats
	Init(ctx *OperatorContext) error
	Shutdown(ctx *OperatorContext) error
}

// TransformOperator processes events from its input queues and may
// emit downstream through the context. Process runs to completion on
// the worker that selected the operator; a returned error is logged
// and counted against the operator, it does not stop the runtime.
type TransformOperator interface {
	Operator
	Process(ev Event, ctx *OperatorContext) error
}

// SourceOperator produces events and has no input queues. Generate is
// called in a loop on a dedicated producer goroutine; returning false
// signals end-of-stream. Implementations must check ShouldStop
// between emissions.
type SourceOperator interface {
	Operator
	Generate(ctx *OperatorContext) bool
	RequestStop()
	ShouldStop() bool
}

// SinkOperator consumes events and has no output queues.
type SinkOperator interface {
	Operator
	Consume(ev Event) error
}

// TimerOperator is an optional extension for time-based processing.
// The hook is reserved: the runtime does not schedule timers.
type TimerOperator interface {
	OnTimer(ctx *OperatorContext)
}

// BaseOperator provides the name, state and stats plumbing shared by
// all operators. Embed it and implement the flavor-specific methods.
// The Record* helpers are called only from the goroutine currently
// driving the operator; they use atomics so that concurrent Stats
// readers never observe torn values.
type BaseOperator struct {
	name  string
	state atomic.Int32

	eventsReceived     atomic.Uint64
	eventsEmitted      atomic.Uint64
	eventsDropped      atomic.Uint64
	backpressureEvents atomic.Uint64
	processingTimeNs   atomic.Uint64
}

// NewBaseOperator creates the embedded base for a named operator.
func NewBaseOperator(name string) BaseOperator {
	return BaseOperator{name: name}
}

func (o *BaseOperator) Name() string         { return o.name }
func (o *BaseOperator) State() OperatorState { return OperatorState(o.state.Load()) }

// SetState transitions the operator's lifecycle state.
func (o *BaseOperator) SetState(s OperatorState) { o.state.Store(int32(s)) }

// Pause makes the operator's instance invisible to the scheduler
// until Resume.
func (o *BaseOperator) Pause() { o.SetState(StatePaused) }

// Resume returns a paused operator to the running state.
func (o *BaseOperator) Resume() { o.SetState(StateRunning) }

// Init is a no-op default.
func (o *BaseOperator) Init(ctx *OperatorContext) error { return nil }

// Shutdown is a no-op default.
func (o *BaseOperator) Shutdown(ctx *OperatorContext) error { return nil }

func (o *BaseOperator) Stats() OperatorStats {
	return OperatorStats{
		EventsReceived:     o.eventsReceived.Load(),
		EventsEmitted:      o.eventsEmitted.Load(),
		EventsDropped:      o.eventsDropped.Load(),
		BackpressureEvents: o.backpressureEvents.Load(),
		ProcessingTimeNs:   o.processingTimeNs.Load(),
	}
}

func (o *BaseOperator) RecordReceived()     { o.eventsReceived.Add(1) }
func (o *BaseOperator) RecordEmitted()      { o.eventsEmitted.Add(1) }
func (o *BaseOperator) RecordDropped()      { o.eventsDropped.Add(1) }
func (o *BaseOperator) RecordBackpressure() { o.backpressureEvents.Add(1) }

func (o *BaseOperator) RecordProcessingTime(ns uint64) { o.processingTimeNs.Add(ns) }

// BaseSource extends BaseOperator with the cooperative stop flag
// sources are required to honor between emissions.
type BaseSource struct {
	BaseOperator
	stopRequested atomic.Bool
}

// NewBaseSource creates the embedded base for a named source.
func NewBaseSource(name string) BaseSource {
	return BaseSource{BaseOperator: NewBaseOperator(name)}
}

// RequestStop asks the source to stop generating. The source observes
// the flag on its next Generate iteration; there is no forcible
// cancellation.
func (s *BaseSource) RequestStop() { s.stopRequested.Store(true) }

// ShouldStop reports whether a stop has been requested.
func (s *BaseSource) ShouldStop() bool { return s.stopRequested.Load() }
