package strom

import (
	"fmt"
	"time"
)

// PayloadKind discriminates the variant held by a Payload.
type PayloadKind uint8

const (
	PayloadEmpty PayloadKind = iota
	PayloadInt
	PayloadFloat
	PayloadString
	PayloadBytes
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadEmpty:
		return "empty"
	case PayloadInt:
		return "int"
	case PayloadFloat:
		return "float"
	case PayloadString:
		return "string"
	case PayloadBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Payload is a tagged variant over the data types the engine moves
// through the graph. Users needing richer types encode them into the
// bytes case. Payloads are immutable after creation; fan-out shares
// the backing data between copies instead of deep-copying it.
type Payload struct {
	kind PayloadKind
	i    int64
	f    float64
	s    string
	b    []byte
}

func EmptyPayload() Payload          { return Payload{} }
func IntPayload(v int64) Payload     { return Payload{kind: PayloadInt, i: v} }
func FloatPayload(v float64) Payload { return Payload{kind: PayloadFloat, f: v} }
func StringPayload(v string) Payload { return Payload{kind: PayloadString, s: v} }
func BytesPayload(v []byte) Payload  { return Payload{kind: PayloadBytes, b: v} }

func (p Payload) Kind() PayloadKind { return p.kind }
func (p Payload) IsEmpty() bool     { return p.kind == PayloadEmpty }

// Int returns the integer value and whether the payload holds one.
func (p Payload) Int() (int64, bool) {
	if p.kind != PayloadInt {
		return 0, false
	}
	return p.i, true
}

// Float returns the float value and whether the payload holds one.
func (p Payload) Float() (float64, bool) {
	if p.kind != PayloadFloat {
		return 0, false
	}
	return p.f, true
}

// Str returns the string value and whether the payload holds one.
func (p Payload) Str() (string, bool) {
	if p.kind != PayloadString {
		return "", false
	}
	return p.s, true
}

// Bytes returns the byte slice and whether the payload holds one. The
// slice is shared, not copied; callers must not mutate it.
func (p Payload) Bytes() ([]byte, bool) {
	if p.kind != PayloadBytes {
		return nil, false
	}
	return p.b, true
}

// String renders the payload for human consumption.
func (p Payload) String() string {
	switch p.kind {
	case PayloadEmpty:
		return "(empty)"
	case PayloadInt:
		return fmt.Sprintf("%d", p.i)
	case PayloadFloat:
		return fmt.Sprintf("%g", p.f)
	case PayloadString:
		return p.s
	case PayloadBytes:
		return fmt.Sprintf("(bytes: %d)", len(p.b))
	default:
		return "(unknown)"
	}
}

// EventMeta carries optional metadata attached to an event for
// routing, ordering and tracing. Key and Seq are valid only when the
// corresponding Set flag is true; flags avoid pointer indirection on
// the hot path.
type EventMeta struct {
	Key       uint64
	KeySet    bool
	Seq       uint64
	SeqSet    bool
	Timestamp time.Time
	Source    string
}

// Event is the unit of data flowing through the graph. Events are
// logically immutable once created; the engine moves them by value.
type Event struct {
	Payload Payload
	Meta    EventMeta
}

// NewEvent creates an event carrying the given payload, stamped with
// the current time. time.Time carries a monotonic clock reading, so
// timestamps order correctly across wall-clock adjustments.
func NewEvent(p Payload) Event {
	return Event{Payload: p, Meta: EventMeta{Timestamp: time.Now()}}
}

// NewKeyedEvent creates an event with a partition key.
func NewKeyedEvent(p Payload, key uint64) Event {
	return Event{Payload: p, Meta: EventMeta{Key: key, KeySet: true, Timestamp: time.Now()}}
}

// NewSequencedEvent creates an event with a monotonic sequence number.
func NewSequencedEvent(p Payload, seq uint64) Event {
	return Event{Payload: p, Meta: EventMeta{Seq: seq, SeqSet: true, Timestamp: time.Now()}}
}

// Key returns the partition key and whether one is set.
func (e Event) Key() (uint64, bool) { return e.Meta.Key, e.Meta.KeySet }

// Seq returns the sequence number and whether one is set.
func (e Event) Seq() (uint64, bool) { return e.Meta.Seq, e.Meta.SeqSet }

// Timestamp returns the event creation time.
func (e Event) Timestamp() time.Time { return e.Meta.Timestamp }

// PoisonPill is an in-band end-of-stream sentinel. The engine
// terminates streams by closing queues, so nothing here emits or
// interprets pills; operators that want an explicit marker on their
// own edges can send one as a bytes payload or out-of-band value.
type PoisonPill struct{}
