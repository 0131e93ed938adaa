// Package queue holds actions accepted by the gateway until the next
// settlement epoch drains them.
package queue

import (
	"errors"
	"sync"

	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
)

// ErrQueueFull is returned by Enqueue when a bounded queue is at capacity.
var ErrQueueFull = errors.New("pending action queue is full")

// Queue is a FIFO buffer of pending actions guarded by a single mutex.
// The lock is held only while the slice is mutated.
type Queue struct {
	mu       sync.Mutex      // protects pending
	pending  []models.Action // actions in arrival order
	capacity int             // 0 means unbounded
}

// New returns a queue holding at most capacity actions. A capacity of zero
// leaves the queue unbounded.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends action to the tail of the queue.
func (q *Queue) Enqueue(action models.Action) error {
	if action == nil {
		return errors.New("queue: nil action")
	}

	q.mu.Lock()         // one producer at a time appends
	defer q.mu.Unlock() // unlock when the function returns

	if q.capacity > 0 && len(q.pending) >= q.capacity {
		return ErrQueueFull // nothing is dropped silently
	}
	q.pending = append(q.pending, action) // tail of the queue
	return nil
}

// DrainAll atomically takes every queued action and leaves the queue empty.
// An Enqueue racing with DrainAll lands wholly in this snapshot or wholly in
// the next one.
func (q *Queue) DrainAll() []models.Action {
	q.mu.Lock()
	drained := q.pending // take the whole backlog
	q.pending = nil      // later actions start a fresh slice
	q.mu.Unlock()

	return drained
}

// Len reports the number of actions waiting for settlement.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Capacity reports the configured bound, 0 if unbounded.
func (q *Queue) Capacity() int {
	return q.capacity
}

var _ interfaces.ActionQueue = (*Queue)(nil)
