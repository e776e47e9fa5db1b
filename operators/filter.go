package operators

import (
	"time"

	"github.com/birdayz/strom"
)

// FilterOperator forwards events whose payload matches the predicate,
// untouched, and drops the rest.
type FilterOperator struct {
	strom.BaseOperator
	pred func(strom.Payload) bool
}

// NewFilter creates a filter over raw payloads.
//
// Example:
//
//	builder.AddOperator(operators.NewFilter("evens", operators.Even()))
func NewFilter(name string, pred func(strom.Payload) bool) *FilterOperator {
	return &FilterOperator{BaseOperator: strom.NewBaseOperator(name), pred: pred}
}

func (f *FilterOperator) Process(ev strom.Event, ctx *strom.OperatorContext) error {
	f.RecordReceived()
	start := time.Now()

	if f.pred(ev.Payload) {
		ctx.Emit(ev)
		f.RecordEmitted()
	} else {
		f.RecordDropped()
	}

	f.RecordProcessingTime(uint64(time.Since(start).Nanoseconds()))
	return nil
}

// NewIntFilter creates a filter over integer payloads. Events with
// other payload kinds do not match.
func NewIntFilter(name string, pred func(int64) bool) *FilterOperator {
	return NewFilter(name, func(p strom.Payload) bool {
		if v, ok := p.Int(); ok {
			return pred(v)
		}
		return false
	})
}

// Even matches even integer payloads.
func Even() func(strom.Payload) bool {
	return func(p strom.Payload) bool {
		v, ok := p.Int()
		return ok && v%2 == 0
	}
}

// Odd matches odd integer payloads.
func Odd() func(strom.Payload) bool {
	return func(p strom.Payload) bool {
		v, ok := p.Int()
		return ok && v%2 != 0
	}
}

// Positive matches integer or float payloads greater than zero.
func Positive() func(strom.Payload) bool {
	return func(p strom.Payload) bool {
		if v, ok := p.Int(); ok {
			return v > 0
		}
		if v, ok := p.Float(); ok {
			return v > 0
		}
		return false
	}
}

// Negative matches integer or float payloads less than zero.
func Negative() func(strom.Payload) bool {
	return func(p strom.Payload) bool {
		if v, ok := p.Int(); ok {
			return v < 0
		}
		if v, ok := p.Float(); ok {
			return v < 0
		}
		return false
	}
}

// InRange matches integer or float payloads in [min, max].
func InRange(min, max int64) func(strom.Payload) bool {
	return func(p strom.Payload) bool {
		if v, ok := p.Int(); ok {
			return v >= min && v <= max
		}
		if v, ok := p.Float(); ok {
			return v >= float64(min) && v <= float64(max)
		}
		return false
	}
}
