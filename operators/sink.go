package operators

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/birdayz/strom"
)

// ConsoleConfig configures a ConsoleSink. A nil Out writes to stdout.
type ConsoleConfig struct {
	Prefix  string
	ShowKey bool
	Out     io.Writer
}

// ConsoleSink prints each event on its own line. A mutex keeps lines
// whole when the sink's operator is executed from several workers.
type ConsoleSink struct {
	strom.BaseOperator
	cfg      ConsoleConfig
	mu       sync.Mutex
	consumed atomic.Uint64
}

// NewConsoleSink creates a console sink.
func NewConsoleSink(name string, cfg ConsoleConfig) *ConsoleSink {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &ConsoleSink{BaseOperator: strom.NewBaseOperator(name), cfg: cfg}
}

func (s *ConsoleSink) Consume(ev strom.Event) error {
	s.RecordReceived()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Prefix != "" {
		fmt.Fprintf(s.cfg.Out, "%s: ", s.cfg.Prefix)
	}
	if key, ok := ev.Key(); s.cfg.ShowKey && ok {
		fmt.Fprintf(s.cfg.Out, "[key=%d] ", key)
	}
	fmt.Fprintln(s.cfg.Out, ev.Payload.String())

	s.consumed.Add(1)
	return nil
}

// Consumed returns the number of events printed.
func (s *ConsoleSink) Consumed() uint64 { return s.consumed.Load() }

// NullSink discards every event. Useful as a throughput sink.
type NullSink struct {
	strom.BaseOperator
	consumed atomic.Uint64
}

func NewNullSink(name string) *NullSink {
	return &NullSink{BaseOperator: strom.NewBaseOperator(name)}
}

func (s *NullSink) Consume(ev strom.Event) error {
	s.RecordReceived()
	s.consumed.Add(1)
	return nil
}

// Consumed returns the number of events discarded.
func (s *NullSink) Consumed() uint64 { return s.consumed.Load() }

// CountingSink counts events.
type CountingSink struct {
	strom.BaseOperator
	count atomic.Uint64
}

func NewCountingSink(name string) *CountingSink {
	return &CountingSink{BaseOperator: strom.NewBaseOperator(name)}
}

func (s *CountingSink) Consume(ev strom.Event) error {
	s.RecordReceived()
	s.count.Add(1)
	return nil
}

// Count returns the number of events consumed.
func (s *CountingSink) Count() uint64 { return s.count.Load() }

// Reset zeroes the count.
func (s *CountingSink) Reset() { s.count.Store(0) }

// AggregatingSink keeps running sum/count/min/max over integer
// payloads. Float payloads fold into sum and count only. Other
// payload kinds are counted as received and otherwise ignored.
type AggregatingSink struct {
	strom.BaseOperator
	mu    sync.Mutex
	sum   int64
	count uint64
	min   int64
	max   int64
}

func NewAggregatingSink(name string) *AggregatingSink {
	return &AggregatingSink{
		BaseOperator: strom.NewBaseOperator(name),
		min:          math.MaxInt64,
		max:          math.MinInt64,
	}
}

func (s *AggregatingSink) Consume(ev strom.Event) error {
	s.RecordReceived()

	if v, ok := ev.Payload.Int(); ok {
		s.mu.Lock()
		s.sum += v
		s.count++
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
		s.mu.Unlock()
		return nil
	}
	if f, ok := ev.Payload.Float(); ok {
		s.mu.Lock()
		s.sum += int64(f)
		s.count++
		s.mu.Unlock()
	}
	return nil
}

func (s *AggregatingSink) Sum() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}

func (s *AggregatingSink) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *AggregatingSink) Mean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.count)
}

func (s *AggregatingSink) Min() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min
}

func (s *AggregatingSink) Max() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// FuncSink adapts a closure into a sink.
type FuncSink struct {
	strom.BaseOperator
	fn func(strom.Event) error
}

func NewFuncSink(name string, fn func(strom.Event) error) *FuncSink {
	return &FuncSink{BaseOperator: strom.NewBaseOperator(name), fn: fn}
}

func (s *FuncSink) Consume(ev strom.Event) error {
	s.RecordReceived()
	return s.fn(ev)
}
