package strom

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func makeInstances(t *testing.T, n int) ([]*OperatorInstance, []*BoundedQueue) {
	t.Helper()
	instances := make([]*OperatorInstance, 0, n)
	queues := make([]*BoundedQueue, 0, n)
	for i := 0; i < n; i++ {
		q := NewBoundedQueue(16)
		op := newFakeTransform("op")
		inst := NewOperatorInstance(uint32(i), op, []*BoundedQueue{q}, NewOperatorContext("op", uint32(i)), NullLogger())
		instances = append(instances, inst)
		queues = append(queues, q)
	}
	return instances, queues
}

func TestRoundRobinScheduler(t *testing.T) {
	t.Run("returns nil with no instances", func(t *testing.T) {
		s := NewRoundRobinScheduler(nil, 2)
		assert.Zero(t, s.Next(0))
		assert.Equal(t, uint64(1), s.Stats().IdleCycles)
	})

	t.Run("returns nil when nothing is ready", func(t *testing.T) {
		instances, _ := makeInstances(t, 3)
		s := NewRoundRobinScheduler(instances, 1)
		assert.Zero(t, s.Next(0))
	})

	t.Run("returns the ready instance", func(t *testing.T) {
		instances, queues := makeInstances(t, 3)
		s := NewRoundRobinScheduler(instances, 1)

		assert.NoError(t, queues[1].Push(NewEvent(EmptyPayload())))
		assert.Equal(t, instances[1], s.Next(0))
	})

	t.Run("visits every ready instance within one pass", func(t *testing.T) {
		instances, queues := makeInstances(t, 4)
		s := NewRoundRobinScheduler(instances, 1)
		for _, q := range queues {
			assert.NoError(t, q.Push(NewEvent(EmptyPayload())))
		}

		visited := make(map[*OperatorInstance]bool)
		for i := 0; i < len(instances); i++ {
			inst := s.Next(0)
			assert.NotZero(t, inst)
			visited[inst] = true
			// Consume so the instance stops being ready.
			inst.ExecuteOnce()
		}
		assert.Equal(t, len(instances), len(visited))
	})

	t.Run("per-worker cursors are independent", func(t *testing.T) {
		instances, queues := makeInstances(t, 2)
		s := NewRoundRobinScheduler(instances, 2)
		assert.NoError(t, queues[0].Push(NewEvent(EmptyPayload())))

		assert.Equal(t, instances[0], s.Next(0))
		assert.Equal(t, instances[0], s.Next(1))
	})

	t.Run("policy", func(t *testing.T) {
		s := NewRoundRobinScheduler(nil, 1)
		assert.Equal(t, RoundRobin, s.Policy())
	})
}

func TestWorkStealingScheduler(t *testing.T) {
	t.Run("prefers local partition", func(t *testing.T) {
		instances, queues := makeInstances(t, 4)
		// Partitioning is index mod workers: worker 0 owns 0 and 2.
		s := NewWorkStealingScheduler(instances, 2)

		assert.NoError(t, queues[0].Push(NewEvent(EmptyPayload())))
		assert.NoError(t, queues[1].Push(NewEvent(EmptyPayload())))

		assert.Equal(t, instances[0], s.Next(0))
		assert.Equal(t, uint64(0), s.Stats().WorkStolen)
	})

	t.Run("steals from a loaded victim", func(t *testing.T) {
		instances, queues := makeInstances(t, 4)
		s := NewWorkStealingScheduler(instances, 2)

		// Load only worker 1's partition (indices 1 and 3).
		assert.NoError(t, queues[1].Push(NewEvent(EmptyPayload())))

		// Worker 0's partition is empty; it must eventually steal.
		var stolen *OperatorInstance
		for i := 0; i < 100 && stolen == nil; i++ {
			stolen = s.Next(0)
		}
		assert.Equal(t, instances[1], stolen)
		assert.True(t, s.Stats().WorkStolen >= 1)
	})

	t.Run("single worker degenerates to local scan", func(t *testing.T) {
		instances, queues := makeInstances(t, 3)
		s := NewWorkStealingScheduler(instances, 1)

		assert.NoError(t, queues[2].Push(NewEvent(EmptyPayload())))
		assert.Equal(t, instances[2], s.Next(0))
		assert.Equal(t, uint64(0), s.Stats().WorkStolen)
	})

	t.Run("policy", func(t *testing.T) {
		s := NewWorkStealingScheduler(nil, 1)
		assert.Equal(t, WorkStealing, s.Policy())
	})
}

func TestSchedulerFactory(t *testing.T) {
	t.Run("selects implementations", func(t *testing.T) {
		assert.Equal(t, RoundRobin, NewScheduler(RoundRobin, nil, 1).Policy())
		assert.Equal(t, WorkStealing, NewScheduler(WorkStealing, nil, 1).Policy())
	})

	t.Run("unimplemented policies fall back to round-robin", func(t *testing.T) {
		assert.Equal(t, RoundRobin, NewScheduler(Priority, nil, 1).Policy())
		assert.Equal(t, RoundRobin, NewScheduler(LoadAware, nil, 1).Policy())
	})
}
