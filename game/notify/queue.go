package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the flush interval used when none is configured.
const DefaultDelay = 500 * time.Millisecond

var ErrAlreadyRunning = errors.New("notification queue already running")

// Item is one pending outbound notification: a method invocation destined
// for a set of receivers.
type Item struct {
	Receivers []string
	Method    string
	Payload   any
}

// FlushFunc receives each drained batch. It runs on the queue's loop
// goroutine; implementations should hand work off rather than block.
type FlushFunc func(batch []Item)

// Queue buffers outbound notifications and flushes them periodically.
type Queue struct {
	mu      sync.Mutex
	items   []Item
	delay   time.Duration
	flush   FlushFunc
	running bool
}

// NewQueue creates a queue flushing every delay through fn. A non-positive
// delay falls back to DefaultDelay.
func NewQueue(delay time.Duration, fn FlushFunc) *Queue {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Queue{
		delay: delay,
		flush: fn,
	}
}

// Enqueue appends an item. It never blocks on the flush loop.
func (q *Queue) Enqueue(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Start launches the flush loop. It fails with ErrAlreadyRunning if the
// loop is already live; the loop runs until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return ErrAlreadyRunning
	}
	q.running = true
	q.mu.Unlock()

	go q.loop(ctx)
	return nil
}

// Running reports whether the flush loop is live.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *Queue) loop(ctx context.Context) {
	ticker := time.NewTicker(q.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			return
		case <-ticker.C:
			if batch := q.drain(); len(batch) > 0 {
				q.flush(batch)
			}
		}
	}
}

// drain atomically takes everything queued so far.
func (q *Queue) drain() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.items
	q.items = nil
	return batch
}
