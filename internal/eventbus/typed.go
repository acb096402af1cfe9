// Package eventbus provides an in-process publish/subscribe bus.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity used by NewTyped.
const DefaultBuffer = 64

// Publisher is the publishing side of a bus.
type Publisher[T any] interface {
	Publish(T)
}

// Subscriber is the subscribing side of a bus.
//
// Subscribe returns a bounded channel that misses events when full.
// SubscribeQueued returns a channel fed from an unbounded queue: every event
// published while subscribed is delivered, in order, and Close drains the
// queue before closing the channel.
type Subscriber[T any] interface {
	Subscribe() <-chan T
	SubscribeQueued() <-chan T
	Unsubscribe(<-chan T)
}

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	queues  []*queue[T]
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// NewTyped creates a new TypedBus with DefaultBuffer sized subscriber channels.
func NewTyped[T any]() *TypedBus[T] { return NewTypedWithBuffer[T](DefaultBuffer) }

// NewTypedWithBuffer creates a TypedBus whose subscriber channels hold n events.
func NewTypedWithBuffer[T any](n int) *TypedBus[T] {
	if n < 0 {
		n = 0
	}
	return &TypedBus[T]{buffer: n}
}

// Publish sends the event to all subscribers. Delivery never blocks; a
// bounded subscriber whose buffer is full misses the event.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
	for _, q := range b.queues {
		q.push(e)
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a bounded subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// SubscribeQueued registers a lossless subscriber and returns its channel.
func (b *TypedBus[T]) SubscribeQueued() <-chan T {
	q := newQueue[T]()
	b.mu.Lock()
	if b.closed {
		q.close()
	}
	b.queues = append(b.queues, q)
	b.mu.Unlock()
	go q.pump()
	return q.out
}

// Unsubscribe removes the subscriber and closes its channel. Events still
// queued for a queued subscriber are discarded.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
	for i, q := range b.queues {
		if q.out == sub {
			b.queues = append(b.queues[:i], b.queues[i+1:]...)
			q.stop()
			return
		}
	}
}

// Close closes the bus and all subscriber channels. Queued subscribers
// receive their pending events first.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	for _, q := range b.queues {
		q.close()
	}
	b.mu.Unlock()
}

type queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []T
	closed   bool
	out      chan T
	quit     chan struct{}
	quitOnce sync.Once
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{out: make(chan T), quit: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue[T]) push(e T) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, e)
		q.cond.Signal()
	}
	q.mu.Unlock()
}

// close lets pump deliver what is queued, then close out.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
}

// stop makes pump return without delivering the rest.
func (q *queue[T]) stop() {
	q.quitOnce.Do(func() { close(q.quit) })
	q.close()
}

func (q *queue[T]) pump() {
	defer close(q.out)
	var zero T
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		e := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- e:
		case <-q.quit:
			return
		}
	}
}
