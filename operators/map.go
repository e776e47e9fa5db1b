package operators

import (
	"time"

	"github.com/birdayz/strom"
)

// MapOperator emits exactly one event per input: the function's
// result as payload, with the input's metadata preserved.
type MapOperator struct {
	strom.BaseOperator
	fn func(strom.Payload) strom.Payload
}

// NewMap creates a map operator over raw payloads.
//
// Example:
//
//	builder.AddOperator(operators.NewMap("double", func(p strom.Payload) strom.Payload {
//	    if v, ok := p.Int(); ok {
//	        return strom.IntPayload(v * 2)
//	    }
//	    return p
//	}))
func NewMap(name string, fn func(strom.Payload) strom.Payload) *MapOperator {
	return &MapOperator{BaseOperator: strom.NewBaseOperator(name), fn: fn}
}

func (m *MapOperator) Process(ev strom.Event, ctx *strom.OperatorContext) error {
	m.RecordReceived()
	start := time.Now()

	out := strom.Event{Payload: m.fn(ev.Payload), Meta: ev.Meta}
	ctx.Emit(out)
	m.RecordEmitted()

	m.RecordProcessingTime(uint64(time.Since(start).Nanoseconds()))
	return nil
}

// NewIntMap creates a map over integer payloads. Events with other
// payload kinds pass through unchanged.
func NewIntMap(name string, fn func(int64) int64) *MapOperator {
	return NewMap(name, func(p strom.Payload) strom.Payload {
		if v, ok := p.Int(); ok {
			return strom.IntPayload(fn(v))
		}
		return p
	})
}

// NewFloatMap creates a map over float payloads; other kinds pass
// through.
func NewFloatMap(name string, fn func(float64) float64) *MapOperator {
	return NewMap(name, func(p strom.Payload) strom.Payload {
		if v, ok := p.Float(); ok {
			return strom.FloatPayload(fn(v))
		}
		return p
	})
}

// NewStringMap creates a map over string payloads; other kinds pass
// through.
func NewStringMap(name string, fn func(string) string) *MapOperator {
	return NewMap(name, func(p strom.Payload) strom.Payload {
		if v, ok := p.Str(); ok {
			return strom.StringPayload(fn(v))
		}
		return p
	})
}
