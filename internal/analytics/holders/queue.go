// Package holders implements priority-queued holder-concentration
// analytics: dequeue a token, fetch its non-zero token accounts from an
// RPC source, and compute top-N concentration percentages.
package holders

import (
	"container/heap"
	"sync"
	"time"

	"github.com/aristath/pumpstream/internal/domain"
)

// Priority controls dequeue order; higher-priority jobs are served
// first regardless of enqueue time.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// Job is a single holder-refresh request.
type Job struct {
	TokenAddress string
	Priority     Priority
	Category     domain.Category
	EnqueuedAt   time.Time

	index int // heap bookkeeping
}

// PriorityFor maps a token's lifecycle category to its queue priority.
func PriorityFor(category domain.Category) Priority {
	switch category {
	case domain.CategoryAim:
		return PriorityHigh
	case domain.CategoryHigh:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// priorityHeap orders by Priority descending, then EnqueuedAt ascending
// (FIFO within the same priority).
type priorityHeap []*Job

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].EnqueuedAt.Before(h[j].EnqueuedAt)
}
func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *priorityHeap) Push(x interface{}) {
	job := x.(*Job)
	job.index = len(*h)
	*h = append(*h, job)
}
func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return job
}

// Queue is a thread-safe priority queue of holder-refresh jobs, with a
// dedup guard so the same token is never queued twice concurrently.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	heap     priorityHeap
	enqueued map[string]bool
	closed   bool
}

func NewQueue() *Queue {
	q := &Queue{enqueued: make(map[string]bool)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a job unless tokenAddress is already queued. Returns
// false if it was a duplicate or the queue is closed.
func (q *Queue) Enqueue(tokenAddress string, category domain.Category) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.enqueued[tokenAddress] {
		return false
	}

	heap.Push(&q.heap, &Job{
		TokenAddress: tokenAddress,
		Priority:     PriorityFor(category),
		Category:     category,
		EnqueuedAt:   time.Now(),
	})
	q.enqueued[tokenAddress] = true
	q.cond.Signal()
	return true
}

// Dequeue blocks until a job is available or the queue is closed (in
// which case ok is false).
func (q *Queue) Dequeue() (job *Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.heap) == 0 {
		return nil, false
	}

	job = heap.Pop(&q.heap).(*Job)
	delete(q.enqueued, job.TokenAddress)
	return job, true
}

// Close wakes all blocked Dequeue callers, which then return ok=false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the current queue depth, used by the health check to
// detect a backlog.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
