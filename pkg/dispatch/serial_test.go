package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialQueue_FIFOFromOneProducer(t *testing.T) {
	q := NewSerialQueue("test")
	defer q.Close()

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		q.Async(func() {
			order = append(order, i)
		})
	}
	q.Sync(func() {})

	require.Len(t, order, 100)
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestSerialQueue_SyncSeesPriorWork(t *testing.T) {
	q := NewSerialQueue("test")
	defer q.Close()

	counter := 0
	for i := 0; i < 10; i++ {
		q.Async(func() {
			counter++
		})
	}

	var snapshot int
	q.Sync(func() {
		snapshot = counter
	})
	assert.Equal(t, 10, snapshot)
}

func TestSerialQueue_ConcurrentProducersLoseNothing(t *testing.T) {
	q := NewSerialQueue("test")
	defer q.Close()

	// no lock on counter: the lane is the mutual exclusion
	counter := 0

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Async(func() {
					counter++
				})
			}
		}()
	}
	wg.Wait()

	var got int
	q.Sync(func() {
		got = counter
	})
	assert.Equal(t, 1000, got)
}

func TestSerialQueue_CloseDrainsQueuedWork(t *testing.T) {
	q := NewSerialQueue("test")

	counter := 0
	for i := 0; i < 50; i++ {
		q.Async(func() {
			counter++
		})
	}
	q.Close()

	assert.Equal(t, 50, counter)
}

func TestSerialQueue_AsyncNeverBlocksBehindBusyWorker(t *testing.T) {
	q := NewSerialQueue("test")
	defer q.Close()

	gate := make(chan struct{})
	q.Async(func() {
		<-gate
	})

	// a burst far larger than any fixed buffer must stage without
	// blocking the producers
	counter := 0
	for i := 0; i < 1000; i++ {
		q.Async(func() {
			counter++
		})
	}
	close(gate)

	var got int
	q.Sync(func() {
		got = counter
	})
	assert.Equal(t, 1000, got)
}

func TestSerialQueue_CloseTwiceIsSafe(t *testing.T) {
	q := NewSerialQueue("test")
	q.Close()
	q.Close()
}
