package telemetry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainEmpty(t *testing.T) {
	t.Parallel()
	q := NewEventQueue()
	assert.Nil(t, q.DrainAll())
	assert.Zero(t, q.Len())
}

func TestQueueFIFO(t *testing.T) {
	t.Parallel()
	q := NewEventQueue()
	q.Push(NewStatusEvent(true, "a"))
	q.Push(NewErrorEvent("b"))
	q.Push(NewStatusEvent(false, "c"))
	require.Equal(t, 3, q.Len())

	got := q.DrainAll()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].(StatusEvent).Message)
	assert.Equal(t, "b", got[1].(ErrorEvent).Message)
	assert.Equal(t, "c", got[2].(StatusEvent).Message)
	assert.Nil(t, q.DrainAll())
}

// Concurrent pushes interleaved with drains must not lose events and must
// keep per-producer order.
func TestQueueConcurrent(t *testing.T) {
	t.Parallel()
	const producers = 8
	const perProducer = 500

	q := NewEventQueue()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(NewErrorEvent(fmt.Sprintf("%d/%d", p, i)))
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	var got []Event
	for {
		got = append(got, q.DrainAll()...)
		select {
		case <-done:
			got = append(got, q.DrainAll()...)
			require.Len(t, got, producers*perProducer)
			// per-producer order preserved
			next := make([]int, producers)
			for _, e := range got {
				var p, i int
				_, err := fmt.Sscanf(e.(ErrorEvent).Message, "%d/%d", &p, &i)
				require.NoError(t, err)
				assert.Equal(t, next[p], i, "producer %d out of order", p)
				next[p]++
			}
			return
		default:
		}
	}
}
