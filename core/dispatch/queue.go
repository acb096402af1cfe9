package dispatch

import "github.com/kilianp07/ridesim/core/model"

// Queue holds waiting request ids in arrival order.
type Queue struct {
	items []model.RequestID
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue appends id to the tail.
func (q *Queue) Enqueue(id model.RequestID) { q.items = append(q.items, id) }

// PushFront puts id back at the head. Used when a dequeued request could not
// be dispatched.
func (q *Queue) PushFront(id model.RequestID) {
	q.items = append([]model.RequestID{id}, q.items...)
}

// DequeueNext pops the head.
func (q *Queue) DequeueNext() (model.RequestID, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, true
}

// RemoveIfPresent deletes id, keeping the order of the remaining entries.
func (q *Queue) RemoveIfPresent(id model.RequestID) bool {
	for i, v := range q.items {
		if v == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is queued.
func (q *Queue) Contains(id model.RequestID) bool {
	for _, v := range q.items {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the queued ids, head first.
func (q *Queue) IDs() []model.RequestID {
	out := make([]model.RequestID, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued ids.
func (q *Queue) Len() int { return len(q.items) }

// Reset empties the queue.
func (q *Queue) Reset() { q.items = nil }
