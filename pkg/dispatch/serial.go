package dispatch

import "sync"

// SerialQueue executes submitted functions one at a time, in FIFO
// order, on a single background goroutine. It is the Go rendition of a
// serial dispatch queue: multiple producers, one lane, no reordering.
//
// Work submitted through Async on the same goroutine is executed in
// submission order. Work submitted from different goroutines has no
// ordering guarantee relative to each other.
type SerialQueue struct {
	name string

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewSerialQueue starts the queue's worker goroutine. The name is used
// for diagnostics only.
func NewSerialQueue(name string) *SerialQueue {
	q := &SerialQueue{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.queue) > 0 {
			fn := q.queue[0]
			q.queue = q.queue[1:]
			q.mu.Unlock()
			fn()
			q.mu.Lock()
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		<-q.wake
	}
}

// Name returns the diagnostic name the queue was created with.
func (q *SerialQueue) Name() string {
	return q.name
}

// Async enqueues fn and returns immediately. The staging buffer is
// unbounded, so a burst of producers is never blocked behind a busy
// worker; callers must not assume fn has run when Async returns.
// Submitting after Close panics; owners are expected to close only at
// teardown, after all producers stopped.
func (q *SerialQueue) Async(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		panic("dispatch: Async on closed queue " + q.name)
	}
	q.queue = append(q.queue, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Sync runs fn on the queue's lane and waits for it to finish. All work
// enqueued before the Sync call from the same goroutine is guaranteed
// to have executed when Sync returns.
func (q *SerialQueue) Sync(fn func()) {
	ran := make(chan struct{})
	q.Async(func() {
		fn()
		close(ran)
	})
	<-ran
}

// Close stops accepting work and waits for already-queued work to
// drain. It is safe to call more than once.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}
