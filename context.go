package strom

// OperatorContext is an operator's window to its downstream edges. It
// is populated by the runtime with one output queue per outgoing edge
// and handed to the operator on every call. Emission fans out: each
// registered queue receives its own copy of the event. Events are
// values and payloads are immutable, so fan-out shares payload
// backing data instead of deep-copying it.
type OperatorContext struct {
	name       string
	instanceID uint32
	outputs    []*BoundedQueue
}

// NewOperatorContext creates a context for the named operator.
func NewOperatorContext(name string, instanceID uint32) *OperatorContext {
	return &OperatorContext{name: name, instanceID: instanceID}
}

func (c *OperatorContext) Name() string       { return c.name }
func (c *OperatorContext) InstanceID() uint32 { return c.instanceID }

// AddOutput registers a downstream queue. Called by the runtime during
// graph materialization; the output set is frozen before start.
func (c *OperatorContext) AddOutput(q *BoundedQueue) {
	c.outputs = append(c.outputs, q)
}

func (c *OperatorContext) OutputCount() int { return len(c.outputs) }

// Outputs returns the registered downstream queues.
func (c *OperatorContext) Outputs() []*BoundedQueue { return c.outputs }

// Emit pushes the event to every output queue with the blocking Push,
// propagating backpressure to the caller. It returns the number of
// queues that accepted the event; a queue that was closed does not
// count.
func (c *OperatorContext) Emit(ev Event) int {
	n := 0
	for _, out := range c.outputs {
		if out.Push(ev) == nil {
			n++
		}
	}
	return n
}

// TryEmit is Emit with TryPush: full or closed queues are skipped
// instead of blocking.
func (c *OperatorContext) TryEmit(ev Event) int {
	n := 0
	for _, out := range c.outputs {
		if out.TryPush(ev) == nil {
			n++
		}
	}
	return n
}
