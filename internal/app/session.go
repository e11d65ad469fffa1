package app

import (
	"context"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultSessionBuffer is the number of selector events that may wait for the
// database before the oldest subject updates are dropped.
const DefaultSessionBuffer = 64

// SessionStore persists tracking sessions.
type SessionStore interface {
	Start(trackingID uint64, at time.Time) (int64, error)
	End(id int64, at time.Time, frames int, reason string) error
}

// SessionTracker turns selector events into tracking session rows. It is a
// gesture.Listener called on the frame goroutine; events are queued on a
// gesture.ChannelListener and written on the tracker's own goroutine, so a
// slow disk never delays a frame. Under pressure subject updates are dropped
// before losses, which can undercount frames but never misses an end.
type SessionTracker struct {
	store  SessionStore
	queue  *gesture.ChannelListener
	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}

	// set by Stop before cancel, read by run after the context is done
	stopReason string

	// run goroutine state
	current uint64
	open    int64
	frames  int
}

// NewSessionTracker creates a SessionTracker buffering up to buffer events.
func NewSessionTracker(s SessionStore, buffer int) *SessionTracker {
	if buffer < 1 {
		buffer = DefaultSessionBuffer
	}
	return &SessionTracker{
		store: s,
		queue: gesture.NewChannelListener(buffer),
		now:   time.Now,
		done:  make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (t *SessionTracker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.run(ctx)
}

// Stop writes every queued event, ends the current session with reason and
// waits for the writer to exit. The tracker cannot be used afterwards.
func (t *SessionTracker) Stop(reason string) {
	t.stopReason = reason
	t.cancel()
	<-t.done
}

// OnTrackedSubject queues a subject update.
func (t *SessionTracker) OnTrackedSubject(body *skeleton.Body) {
	t.queue.OnTrackedSubject(body)
}

// OnTrackingLost queues a loss.
func (t *SessionTracker) OnTrackingLost() {
	t.queue.OnTrackingLost()
}

// Dropped returns the number of events discarded because the queue was full.
func (t *SessionTracker) Dropped() uint64 {
	return t.queue.Dropped()
}

func (t *SessionTracker) run(ctx context.Context) {
	defer close(t.done)

	for {
		ev, err := t.queue.Next(ctx)
		if err != nil {
			break
		}
		t.handle(ev)
	}

	for {
		ev, ok := t.queue.TryNext()
		if !ok {
			break
		}
		t.handle(ev)
	}
	t.end(t.stopReason)
}

func (t *SessionTracker) handle(ev gesture.Event) {
	switch ev.Kind {
	case gesture.EventSubject:
		if ev.Body.TrackingID != t.current {
			t.end(store.EndReasonReplaced)
			t.begin(ev.Body.TrackingID)
		}
		t.frames++
	case gesture.EventLost:
		t.end(store.EndReasonLost)
	}
}

func (t *SessionTracker) begin(trackingID uint64) {
	t.current = trackingID
	t.frames = 0

	id, err := t.store.Start(trackingID, t.now())
	if err != nil {
		log.Printf("Error starting session for body %d: %v", trackingID, err)
		return
	}
	t.open = id
}

func (t *SessionTracker) end(reason string) {
	if t.current == 0 {
		return
	}
	if t.open != 0 {
		if err := t.store.End(t.open, t.now(), t.frames, reason); err != nil {
			log.Printf("Error ending session %d: %v", t.open, err)
		}
	}
	t.current, t.open, t.frames = 0, 0, 0
}
