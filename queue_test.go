package strom

import (
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestBoundedQueueBasics(t *testing.T) {
	t.Run("fifo order for a single producer", func(t *testing.T) {
		q := NewBoundedQueue(16)
		for i := int64(0); i < 10; i++ {
			assert.NoError(t, q.Push(NewEvent(IntPayload(i))))
		}
		for i := int64(0); i < 10; i++ {
			ev, ok := q.Pop()
			assert.True(t, ok)
			v, isInt := ev.Payload.Int()
			assert.True(t, isInt)
			assert.Equal(t, i, v)
		}
	})

	t.Run("conservation of counts", func(t *testing.T) {
		q := NewBoundedQueue(8)
		for i := 0; i < 5; i++ {
			assert.NoError(t, q.Push(NewEvent(EmptyPayload())))
		}
		_, ok := q.Pop()
		assert.True(t, ok)
		_, ok = q.Pop()
		assert.True(t, ok)

		s := q.Stats()
		assert.Equal(t, uint64(5), s.PushCount)
		assert.Equal(t, uint64(2), s.PopCount)
		assert.Equal(t, 3, s.Size)
		assert.Equal(t, int(s.PushCount-s.PopCount), s.Size)
	})

	t.Run("try push on full queue does not mutate", func(t *testing.T) {
		q := NewBoundedQueue(2)
		assert.NoError(t, q.TryPush(NewEvent(IntPayload(1))))
		assert.NoError(t, q.TryPush(NewEvent(IntPayload(2))))
		assert.True(t, q.Full())

		err := q.TryPush(NewEvent(IntPayload(3)))
		assert.IsError(t, err, ErrQueueFull)

		s := q.Stats()
		assert.Equal(t, uint64(2), s.PushCount)
		assert.Equal(t, 2, s.Size)
	})

	t.Run("size never exceeds capacity", func(t *testing.T) {
		q := NewBoundedQueue(4)
		for i := 0; i < 10; i++ {
			_ = q.TryPush(NewEvent(IntPayload(int64(i))))
		}
		assert.Equal(t, 4, q.Len())
		assert.Equal(t, 4, q.Cap())
		assert.Equal(t, uint64(4), q.Stats().HighWatermark)
	})

	t.Run("try pop on empty queue", func(t *testing.T) {
		q := NewBoundedQueue(4)
		_, ok := q.TryPop()
		assert.False(t, ok)
	})
}

func TestBoundedQueueClose(t *testing.T) {
	t.Run("push after close returns closed", func(t *testing.T) {
		q := NewBoundedQueue(4)
		q.Close()
		assert.IsError(t, q.Push(NewEvent(EmptyPayload())), ErrQueueClosed)
		assert.IsError(t, q.TryPush(NewEvent(EmptyPayload())), ErrQueueClosed)
		assert.IsError(t, q.PushTimeout(NewEvent(EmptyPayload()), time.Millisecond), ErrQueueClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		q := NewBoundedQueue(4)
		q.Close()
		q.Close()
		assert.True(t, q.Closed())
	})

	t.Run("pops drain remaining events after close", func(t *testing.T) {
		q := NewBoundedQueue(4)
		assert.NoError(t, q.Push(NewEvent(IntPayload(1))))
		assert.NoError(t, q.Push(NewEvent(IntPayload(2))))
		q.Close()

		ev, ok := q.Pop()
		assert.True(t, ok)
		v, _ := ev.Payload.Int()
		assert.Equal(t, int64(1), v)

		_, ok = q.Pop()
		assert.True(t, ok)

		_, ok = q.Pop()
		assert.False(t, ok)
	})

	t.Run("close wakes blocked consumers", func(t *testing.T) {
		q := NewBoundedQueue(4)
		done := make(chan bool, 4)
		for i := 0; i < 4; i++ {
			go func() {
				_, ok := q.Pop()
				done <- ok
			}()
		}
		time.Sleep(20 * time.Millisecond)
		q.Close()

		for i := 0; i < 4; i++ {
			select {
			case ok := <-done:
				assert.False(t, ok)
			case <-time.After(time.Second):
				t.Fatal("blocked consumer was not woken by close")
			}
		}
	})

	t.Run("close wakes blocked producers", func(t *testing.T) {
		q := NewBoundedQueue(1)
		assert.NoError(t, q.Push(NewEvent(EmptyPayload())))

		done := make(chan error, 1)
		go func() {
			done <- q.Push(NewEvent(EmptyPayload()))
		}()
		time.Sleep(20 * time.Millisecond)
		q.Close()

		select {
		case err := <-done:
			assert.IsError(t, err, ErrQueueClosed)
		case <-time.After(time.Second):
			t.Fatal("blocked producer was not woken by close")
		}
	})
}

func TestBoundedQueueTimed(t *testing.T) {
	t.Run("push timeout on full queue", func(t *testing.T) {
		q := NewBoundedQueue(1)
		assert.NoError(t, q.Push(NewEvent(EmptyPayload())))

		start := time.Now()
		err := q.PushTimeout(NewEvent(EmptyPayload()), 30*time.Millisecond)
		assert.IsError(t, err, ErrPushTimeout)
		assert.True(t, time.Since(start) >= 30*time.Millisecond)
	})

	t.Run("pop timeout on empty queue", func(t *testing.T) {
		q := NewBoundedQueue(1)
		_, ok := q.PopTimeout(30 * time.Millisecond)
		assert.False(t, ok)
	})

	t.Run("pop timeout returns early when event arrives", func(t *testing.T) {
		q := NewBoundedQueue(1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = q.Push(NewEvent(IntPayload(7)))
		}()
		ev, ok := q.PopTimeout(time.Second)
		assert.True(t, ok)
		v, _ := ev.Payload.Int()
		assert.Equal(t, int64(7), v)
	})
}

// With producers pushing disjoint integer sets and several consumers,
// the union of popped values must equal the union pushed, with no
// duplicates.
func TestBoundedQueueMPMC(t *testing.T) {
	const producers = 4
	const perProducer = 1000
	const consumers = 3

	q := NewBoundedQueue(256)

	var wgProducers sync.WaitGroup
	for p := 0; p < producers; p++ {
		wgProducers.Add(1)
		go func(p int) {
			defer wgProducers.Done()
			for i := 0; i < perProducer; i++ {
				value := int64(p*perProducer + i)
				assert.NoError(t, q.Push(NewEvent(IntPayload(value))))
			}
		}(p)
	}

	var mu sync.Mutex
	seen := make(map[int64]int)
	var wgConsumers sync.WaitGroup
	for c := 0; c < consumers; c++ {
		wgConsumers.Add(1)
		go func() {
			defer wgConsumers.Done()
			for {
				ev, ok := q.Pop()
				if !ok {
					return
				}
				v, _ := ev.Payload.Int()
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	wgProducers.Wait()
	q.Close()
	wgConsumers.Wait()

	assert.Equal(t, producers*perProducer, len(seen))
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("value %d popped %d times", v, n)
		}
	}

	s := q.Stats()
	assert.Equal(t, uint64(producers*perProducer), s.PushCount)
	assert.Equal(t, uint64(producers*perProducer), s.PopCount)
	assert.Equal(t, 0, s.Size)
}

// Scenario: four producers, capacity 1024 queue, one consumer using
// timed pops. The consumer must receive exactly every pushed event.
func TestBoundedQueueSingleConsumerTimedPop(t *testing.T) {
	const producers = 4
	const perProducer = 1000

	q := NewBoundedQueue(1024)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, q.Push(NewEvent(IntPayload(int64(p*perProducer+i)))))
			}
		}(p)
	}
	go func() {
		wg.Wait()
		q.Close()
	}()

	seen := make(map[int64]bool)
	received := 0
	for {
		ev, ok := q.PopTimeout(100 * time.Millisecond)
		if !ok {
			if q.Closed() && q.Empty() {
				break
			}
			continue
		}
		v, _ := ev.Payload.Int()
		assert.False(t, seen[v])
		seen[v] = true
		received++
	}

	assert.Equal(t, producers*perProducer, received)
}
