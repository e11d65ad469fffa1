package gesture

import (
	"context"
	"sync"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ChannelListener is a Listener that queues events for a consumer running on
// another goroutine. Queuing never blocks the frame: when the queue is full the
// oldest subject update is discarded. Lost events are only discarded in favour
// of a newer Lost event, so a consumer always observes every loss that is
// followed by a subject update.
type ChannelListener struct {
	mu       sync.Mutex
	queue    []Event
	capacity int
	dropped  uint64
	ready    chan struct{}
}

// NewChannelListener creates a ChannelListener holding at most capacity events.
func NewChannelListener(capacity int) *ChannelListener {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelListener{
		queue:    make([]Event, 0, capacity),
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// OnTrackedSubject queues a subject event.
func (c *ChannelListener) OnTrackedSubject(body *skeleton.Body) {
	c.push(Event{Kind: EventSubject, Body: body})
}

// OnTrackingLost queues a lost event.
func (c *ChannelListener) OnTrackingLost() {
	c.push(Event{Kind: EventLost})
}

func (c *ChannelListener) push(ev Event) {
	c.mu.Lock()
	if len(c.queue) == c.capacity {
		if !c.dropOldest(ev.Kind) {
			c.dropped++
			c.mu.Unlock()
			return
		}
		c.dropped++
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// dropOldest removes the oldest subject event, or the oldest lost event when
// the incoming event is itself a loss. Reports whether room was made.
func (c *ChannelListener) dropOldest(incoming EventKind) bool {
	victim := -1
	for i, ev := range c.queue {
		if ev.Kind == EventSubject {
			victim = i
			break
		}
	}
	if victim < 0 && incoming == EventLost {
		victim = 0
	}
	if victim < 0 {
		return false
	}
	c.queue = append(c.queue[:victim], c.queue[victim+1:]...)
	return true
}

// Next blocks until an event is queued or ctx is done.
func (c *ChannelListener) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := c.TryNext(); ok {
			return ev, nil
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-c.ready:
		}
	}
}

// TryNext returns the oldest queued event without blocking.
func (c *ChannelListener) TryNext() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return Event{}, false
	}
	ev := c.queue[0]
	c.queue = c.queue[1:]
	return ev, true
}

// Len returns the number of queued events.
func (c *ChannelListener) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Dropped returns how many events were discarded because the queue was full.
func (c *ChannelListener) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
