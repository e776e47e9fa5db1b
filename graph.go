package strom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownOperator is returned when an edge references an
	// operator that was never added.
	ErrUnknownOperator = errors.New("strom: unknown operator")
	// ErrCycleDetected is returned when the edges do not form a DAG.
	ErrCycleDetected = errors.New("strom: cycle detected")
	// ErrInvalidTopology is returned for structurally invalid graphs
	// (edges into sources, edges out of sinks, empty graphs).
	ErrInvalidTopology = errors.New("strom: invalid topology")
)

// Edge is a directed connection between two named operators, realized
// at init as one bounded queue. Capacity <= 0 means use the runtime's
// default queue capacity.
type Edge struct {
	From     string
	To       string
	Capacity int
}

// StreamGraphBuilder accumulates operators and edges for a runtime.
//
// The builder is NOT safe for concurrent use; register everything
// from one goroutine, then hand it to Runtime.Init. Adding an
// operator under an existing name overwrites the previous one. Edge
// insertion order is preserved.
type StreamGraphBuilder struct {
	operators map[string]Operator
	order     []string
	sources   map[string]bool
	sinks     map[string]bool
	edges     []Edge
}

// NewStreamGraphBuilder creates an empty builder.
func NewStreamGraphBuilder() *StreamGraphBuilder {
	return &StreamGraphBuilder{
		operators: make(map[string]Operator),
		sources:   make(map[string]bool),
		sinks:     make(map[string]bool),
	}
}

func (b *StreamGraphBuilder) add(name string, op Operator) {
	if _, exists := b.operators[name]; !exists {
		b.order = append(b.order, name)
	}
	b.operators[name] = op
	delete(b.sources, name)
	delete(b.sinks, name)
}

// AddOperator registers a transform operator.
func (b *StreamGraphBuilder) AddOperator(op TransformOperator) *StreamGraphBuilder {
	b.add(op.Name(), op)
	return b
}

// AddSource registers a source operator. Sources are tracked
// explicitly: they get a dedicated producer goroutine and never enter
// the scheduler's instance list.
func (b *StreamGraphBuilder) AddSource(src SourceOperator) *StreamGraphBuilder {
	b.add(src.Name(), src)
	b.sources[src.Name()] = true
	return b
}

// AddSink registers a sink operator.
func (b *StreamGraphBuilder) AddSink(sink SinkOperator) *StreamGraphBuilder {
	b.add(sink.Name(), sink)
	b.sinks[sink.Name()] = true
	return b
}

// Connect records an edge from one operator to another. Capacity <= 0
// uses the runtime default.
func (b *StreamGraphBuilder) Connect(from, to string, capacity int) *StreamGraphBuilder {
	b.edges = append(b.edges, Edge{From: from, To: to, Capacity: capacity})
	return b
}

// Operators returns the registered operators in insertion order.
func (b *StreamGraphBuilder) Operators() []Operator {
	out := make([]Operator, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.operators[name])
	}
	return out
}

// Edges returns the recorded edges in insertion order.
func (b *StreamGraphBuilder) Edges() []Edge { return b.edges }

// IsSource reports whether the named operator was added via AddSource.
func (b *StreamGraphBuilder) IsSource(name string) bool { return b.sources[name] }

// IsSink reports whether the named operator was added via AddSink.
func (b *StreamGraphBuilder) IsSink(name string) bool { return b.sinks[name] }

// validate checks the graph structurally before materialization:
// every edge endpoint exists, sources have no incoming edges, sinks
// have no outgoing edges, and the edges form a DAG.
func (b *StreamGraphBuilder) validate() error {
	if len(b.operators) == 0 {
		return fmt.Errorf("%w: graph has no operators", ErrInvalidTopology)
	}

	children := make(map[string][]string, len(b.operators))
	for _, e := range b.edges {
		if _, ok := b.operators[e.From]; !ok {
			return fmt.Errorf("%w: edge %s -> %s: %q", ErrUnknownOperator, e.From, e.To, e.From)
		}
		if _, ok := b.operators[e.To]; !ok {
			return fmt.Errorf("%w: edge %s -> %s: %q", ErrUnknownOperator, e.From, e.To, e.To)
		}
		if b.sinks[e.From] {
			return fmt.Errorf("%w: sink %q has an outgoing edge", ErrInvalidTopology, e.From)
		}
		if b.sources[e.To] {
			return fmt.Errorf("%w: source %q has an incoming edge", ErrInvalidTopology, e.To)
		}
		children[e.From] = append(children[e.From], e.To)
	}

	return b.detectCycles(children)
}

// detectCycles runs a DFS over the edge set. O(V + E).
func (b *StreamGraphBuilder) detectCycles(children map[string][]string) error {
	visited := make(map[string]bool, len(b.operators))
	recStack := make(map[string]bool, len(b.operators))

	var dfs func(name string, path []string) error
	dfs = func(name string, path []string) error {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		for _, child := range children[name] {
			if !visited[child] {
				if err := dfs(child, path); err != nil {
					return err
				}
			} else if recStack[child] {
				cycle := append(path, child)
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cycle, " -> "))
			}
		}

		recStack[name] = false
		return nil
	}

	for _, name := range b.order {
		if !visited[name] {
			if err := dfs(name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
