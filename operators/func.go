package operators

import (
	"time"

	"github.com/birdayz/strom"
)

// FuncOperator adapts a closure into a transform. Three shapes are
// supported, each with its own constructor: explicit emission through
// the context, filter-map, and pure map.
type FuncOperator struct {
	strom.BaseOperator
	fn func(strom.Event, *strom.OperatorContext) error
}

// NewFunc wraps a closure that emits explicitly through the context.
// The closure owns its own emitted/dropped accounting.
func NewFunc(name string, fn func(strom.Event, *strom.OperatorContext) error) *FuncOperator {
	return &FuncOperator{BaseOperator: strom.NewBaseOperator(name), fn: fn}
}

// NewFilterMap wraps a closure that returns the event to emit and
// whether to emit at all.
func NewFilterMap(name string, fn func(strom.Event) (strom.Event, bool)) *FuncOperator {
	op := &FuncOperator{BaseOperator: strom.NewBaseOperator(name)}
	op.fn = func(ev strom.Event, ctx *strom.OperatorContext) error {
		out, ok := fn(ev)
		if !ok {
			op.RecordDropped()
			return nil
		}
		ctx.Emit(out)
		op.RecordEmitted()
		return nil
	}
	return op
}

// NewMapFunc wraps a pure event-to-event function; exactly one event
// is emitted per input.
func NewMapFunc(name string, fn func(strom.Event) strom.Event) *FuncOperator {
	op := &FuncOperator{BaseOperator: strom.NewBaseOperator(name)}
	op.fn = func(ev strom.Event, ctx *strom.OperatorContext) error {
		ctx.Emit(fn(ev))
		op.RecordEmitted()
		return nil
	}
	return op
}

func (o *FuncOperator) Process(ev strom.Event, ctx *strom.OperatorContext) error {
	o.RecordReceived()
	start := time.Now()
	err := o.fn(ev, ctx)
	o.RecordProcessingTime(uint64(time.Since(start).Nanoseconds()))
	return err
}
