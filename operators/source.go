package operators

import (
	"math/rand/v2"
	"time"

	"github.com/birdayz/strom"
)

// SequenceConfig configures a SequenceSource. Count 0 means
// unbounded: the source only stops on an external stop request.
type SequenceConfig struct {
	Start int64
	Step  int64
	Count uint64
	Delay time.Duration
}

// SequenceSource emits an arithmetic sequence of integer payloads,
// one event per Generate call, tagged with a monotonic sequence
// number.
type SequenceSource struct {
	strom.BaseSource
	cfg       SequenceConfig
	current   int64
	generated uint64
}

// NewSequenceSource creates a sequence source. A zero Step emits the
// same value repeatedly, which is occasionally what a test wants.
func NewSequenceSource(name string, cfg SequenceConfig) *SequenceSource {
	return &SequenceSource{
		BaseSource: strom.NewBaseSource(name),
		cfg:        cfg,
		current:    cfg.Start,
	}
}

// Generate emits the next value. On backpressure across every output
// (all downstream queues closed), the value is not consumed and the
// attempt is recorded.
func (s *SequenceSource) Generate(ctx *strom.OperatorContext) bool {
	if s.ShouldStop() || (s.cfg.Count > 0 && s.generated >= s.cfg.Count) {
		return false
	}

	ev := strom.NewSequencedEvent(strom.IntPayload(s.current), s.generated)
	ev.Meta.Source = s.Name()

	if ctx.Emit(ev) > 0 {
		s.current += s.cfg.Step
		s.generated++
		s.RecordEmitted()
	} else {
		s.RecordBackpressure()
	}

	if s.cfg.Delay > 0 {
		time.Sleep(s.cfg.Delay)
	}
	return true
}

// Generated returns how many events the source has emitted so far.
func (s *SequenceSource) Generated() uint64 { return s.generated }

// RandomConfig configures a RandomSource. Count 0 means unbounded.
type RandomConfig struct {
	Min   int64
	Max   int64
	Count uint64
	Delay time.Duration
}

// RandomSource emits uniformly distributed integer payloads in
// [Min, Max].
type RandomSource struct {
	strom.BaseSource
	cfg       RandomConfig
	generated uint64
}

// NewRandomSource creates a random source. Max < Min panics via the
// underlying generator on first use; pass a sane range.
func NewRandomSource(name string, cfg RandomConfig) *RandomSource {
	return &RandomSource{
		BaseSource: strom.NewBaseSource(name),
		cfg:        cfg,
	}
}

func (s *RandomSource) Generate(ctx *strom.OperatorContext) bool {
	if s.ShouldStop() || (s.cfg.Count > 0 && s.generated >= s.cfg.Count) {
		return false
	}

	value := s.cfg.Min + rand.Int64N(s.cfg.Max-s.cfg.Min+1)
	ev := strom.NewSequencedEvent(strom.IntPayload(value), s.generated)
	ev.Meta.Source = s.Name()

	if ctx.Emit(ev) > 0 {
		s.generated++
		s.RecordEmitted()
	} else {
		s.RecordBackpressure()
	}

	if s.cfg.Delay > 0 {
		time.Sleep(s.cfg.Delay)
	}
	return true
}

// Generated returns how many events the source has emitted so far.
func (s *RandomSource) Generated() uint64 { return s.generated }

// FuncSource emits payloads produced by a caller-supplied generator.
type FuncSource struct {
	strom.BaseSource
	gen       func() strom.Payload
	max       uint64
	generated uint64
}

// NewFuncSource creates a source driven by gen. Count 0 means
// unbounded.
func NewFuncSource(name string, gen func() strom.Payload, count uint64) *FuncSource {
	return &FuncSource{
		BaseSource: strom.NewBaseSource(name),
		gen:        gen,
		max:        count,
	}
}

func (s *FuncSource) Generate(ctx *strom.OperatorContext) bool {
	if s.ShouldStop() || (s.max > 0 && s.generated >= s.max) {
		return false
	}

	ev := strom.NewSequencedEvent(s.gen(), s.generated)
	ev.Meta.Source = s.Name()

	if ctx.Emit(ev) > 0 {
		s.generated++
		s.RecordEmitted()
	} else {
		s.RecordBackpressure()
	}
	return true
}
