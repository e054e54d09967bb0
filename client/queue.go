package client

import (
	"sync"

	"github.com/google/uuid"
)

// pendingOp is one queued request waiting for connectivity or a retry
// slot. retryCount counts completed attempts, not including the first.
type pendingOp struct {
	ID         string
	Method     string
	Path       string
	Body       []byte
	Tier       Tier
	RetryCount int
}

// syncQueue is a FIFO of operations that could not be delivered. Zero
// capacity means unbounded; at capacity the oldest background op is
// evicted first, then the push is refused.
type syncQueue struct {
	mu       sync.Mutex
	ops      []*pendingOp
	capacity int
}

func newSyncQueue(capacity int) *syncQueue {
	return &syncQueue{capacity: capacity}
}

// push appends an operation, reporting whether it was accepted.
func (q *syncQueue) push(op *pendingOp) bool {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.ops) >= q.capacity {
		if !q.evictBackgroundLocked() {
			return false
		}
	}
	q.ops = append(q.ops, op)
	return true
}

func (q *syncQueue) evictBackgroundLocked() bool {
	for i, op := range q.ops {
		if op.Tier == TierBackground {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return true
		}
	}
	return false
}

// drain removes and returns every queued operation, oldest first. Ops
// that fail again are pushed back by the caller, keeping their order
// relative to each other.
func (q *syncQueue) drain() []*pendingOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

func (q *syncQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}
