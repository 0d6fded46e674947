package input

import "sync"

// Queue is a FIFO of events shared between device callbacks and the per-tick drain.
// Push may be called from any goroutine. DrainAll is meant to be called from one goroutine.
type Queue struct {
	mu    *sync.Mutex
	items []Event
	spare []Event
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{mu: &sync.Mutex{}}
}

// Push appends ev.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
}

// DrainAll empties the queue and returns its contents in insertion order.
// The returned slice is reused by the following DrainAll call, so it must not be retained.
func (q *Queue) DrainAll() []Event {
	q.mu.Lock()
	out := q.items
	q.items = q.spare[:0]
	q.spare = out
	q.mu.Unlock()
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
