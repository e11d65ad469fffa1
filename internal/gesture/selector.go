// Package gesture selects the controlling body from each sensor frame and
// classifies its hand gestures.
package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/skeleton"
)

// noLostFrameTrack marks the lost-frame counter as not counting.
const noLostFrameTrack = -1

// EventKind identifies what a processed frame produced.
type EventKind int

const (
	// EventNone means the frame changed nothing downstream consumers see.
	EventNone EventKind = iota
	// EventSubject carries the body selected as the active subject.
	EventSubject
	// EventLost reports that the active subject has been dropped.
	EventLost
)

func (k EventKind) String() string {
	switch k {
	case EventSubject:
		return "subject"
	case EventLost:
		return "lost"
	default:
		return "none"
	}
}

// Event is the outcome of processing one frame.
type Event struct {
	Kind     EventKind
	Sequence uint64
	Body     *skeleton.Body
}

// Listener receives the events emitted by a Selector. Calls are made
// synchronously from ProcessFrame, so a slow listener delays the next frame.
type Listener interface {
	OnTrackedSubject(body *skeleton.Body)
	OnTrackingLost()
}

// ListenerFuncs adapts a pair of functions to the Listener interface.
// Nil functions are skipped.
type ListenerFuncs struct {
	Subject func(body *skeleton.Body)
	Lost    func()
}

func (l ListenerFuncs) OnTrackedSubject(body *skeleton.Body) {
	if l.Subject != nil {
		l.Subject(body)
	}
}

func (l ListenerFuncs) OnTrackingLost() {
	if l.Lost != nil {
		l.Lost()
	}
}

// Selector decides, frame by frame, which body is the active subject.
//
// A subject is acquired by raising a hand; among candidates the body whose
// head is nearest to the sensor wins. The subject is kept while it stays
// visible, survives up to LossTolerance missing frames, and is put up for
// reselection after HandsDownTimeout frames with both hands down.
//
// A Selector is not safe for concurrent use. ProcessFrame, SetConfig and Reset
// must be called from the goroutine delivering frames, one frame at a time.
type Selector struct {
	cfg      Config
	geometry Geometry
	listener Listener

	activeID       uint64
	handDownFrames int
	lostFrames     int
}

// NewSelector creates a Selector with nobody tracked. l may be nil.
func NewSelector(cfg Config, l Listener) *Selector {
	return &Selector{
		cfg:        cfg,
		geometry:   cfg.Geometry(),
		listener:   l,
		lostFrames: noLostFrameTrack,
	}
}

// Config returns the configuration in use.
func (s *Selector) Config() Config {
	return s.cfg
}

// Geometry returns the gesture geometry derived from the configuration.
func (s *Selector) Geometry() Geometry {
	return s.geometry
}

// SetConfig replaces the thresholds. The tracking state is kept.
func (s *Selector) SetConfig(cfg Config) {
	s.cfg = cfg
	s.geometry = cfg.Geometry()
}

// ActiveTrackingID returns the tracking id of the subject, or 0 if nobody is tracked.
func (s *Selector) ActiveTrackingID() uint64 {
	return s.activeID
}

// Reset drops the subject without emitting an event.
func (s *Selector) Reset() {
	s.activeID = 0
	s.handDownFrames = 0
	s.lostFrames = noLostFrameTrack
}

// ProcessFrame advances the tracking state by one frame and emits at most one
// event to the listener. The same event is returned.
func (s *Selector) ProcessFrame(f skeleton.Frame) Event {
	var subject *skeleton.Body

	if s.activeID != 0 && s.handDownFrames < s.cfg.HandsDownTimeout {
		if body := f.FindBody(s.activeID); body != nil {
			subject = body
			if s.geometry.AnyHandLiftedUpward(&body.Joints) {
				s.handDownFrames = 0
			} else {
				s.handDownFrames++
			}
		}
	}

	if subject == nil {
		if body := s.nearestCandidate(f); body != nil {
			subject = body
			s.activeID = body.TrackingID
			s.handDownFrames = 0
		}
	}

	if subject == nil {
		if s.lostFrames != noLostFrameTrack {
			s.lostFrames++
			if s.lostFrames > s.cfg.LossTolerance {
				s.Reset()
				if s.listener != nil {
					s.listener.OnTrackingLost()
				}
				return Event{Kind: EventLost, Sequence: f.Sequence}
			}
		}
		return Event{Kind: EventNone, Sequence: f.Sequence}
	}

	s.lostFrames = 0
	if s.listener != nil {
		s.listener.OnTrackedSubject(subject)
	}
	return Event{Kind: EventSubject, Sequence: f.Sequence, Body: subject}
}

// nearestCandidate returns the tracked body with a raised hand whose head is
// closest to the sensor. Ties go to the earlier slot; a head without a finite
// depth is never closest.
func (s *Selector) nearestCandidate(f skeleton.Frame) *skeleton.Body {
	var best *skeleton.Body
	bestZ := math.Inf(1)

	for _, body := range f.Bodies {
		if body == nil || !body.Tracked || body.TrackingID == 0 {
			continue
		}
		if !s.geometry.AnyHandLiftedUpward(&body.Joints) {
			continue
		}
		z := body.Joints[skeleton.Head].Position.Z
		if z < bestZ {
			best = body
			bestZ = z
		}
	}

	return best
}
