package containers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[string](2)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue("a"))
	require.NoError(t, rq.Enqueue("b"))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue("c"), ErrQueueFull)

	v, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	// wraps around the backing slice
	require.NoError(t, rq.Enqueue("c"))
	assert.Equal(t, []string{"b", "c"}, rq.Drain())

	_, err = rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueConcurrentProducer(t *testing.T) {
	rq := NewRingQueue[int](128)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				_ = rq.Enqueue(base*100 + j)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, rq.Drain(), 64)
	assert.True(t, rq.IsEmpty())
}
