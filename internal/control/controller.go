package control

import (
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/skeleton"
)

// CommandKind identifies a cursor command.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandPress
	CommandRelease
	CommandGesture
	CommandLost
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandPress:
		return "press"
	case CommandRelease:
		return "release"
	case CommandGesture:
		return "gesture"
	case CommandLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Gesture names emitted with CommandGesture and CommandLost.
const (
	GestureSpread = "spread"
	GesturePinch  = "pinch"
	GestureLost   = "lost"
)

// Command is one instruction for the host cursor.
type Command struct {
	Kind    CommandKind `json:"kind"`
	X       int         `json:"x"`
	Y       int         `json:"y"`
	Hand    string      `json:"hand,omitempty"`
	Gesture string      `json:"gesture,omitempty"`
}

// Sink accepts commands without blocking. Submit reports whether the command
// was accepted.
type Sink interface {
	Submit(cmd Command) bool
}

// Status is a snapshot of what the controller is doing.
type Status struct {
	Tracking        bool      `json:"tracking"`
	TrackingID      uint64    `json:"tracking_id"`
	Mode            string    `json:"mode"`
	Hand            string    `json:"hand,omitempty"`
	X               int       `json:"x"`
	Y               int       `json:"y"`
	Pressed         bool      `json:"pressed"`
	TwoHandDistance float64   `json:"two_hand_distance"`
	LastGesture     string    `json:"last_gesture,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Controller drives the cursor from the active subject. It implements
// gesture.Listener and is called on the frame goroutine; commands are handed
// to a Sink so no I/O happens on that goroutine.
type Controller struct {
	mu       sync.Mutex
	settings Settings
	mapper   CursorMapper
	geometry gesture.Geometry
	sink     Sink

	status     Status
	activeHand skeleton.Hand
	hasHand    bool
	zoomRef    float64
	hasZoomRef bool
}

// NewController creates a Controller. sink may be nil.
func NewController(settings Settings, geometry gesture.Geometry, sink Sink) *Controller {
	return &Controller{
		settings: settings,
		mapper:   NewCursorMapper(settings),
		geometry: geometry,
		sink:     sink,
		status:   Status{Mode: settings.Mode.String()},
	}
}

// SetSettings replaces the settings. A held button is released when the
// controller is disabled.
func (c *Controller) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings = s
	c.mapper = NewCursorMapper(s)
	c.status.Mode = s.Mode.String()
	if s.Mode == ModeDisabled {
		c.release()
		c.hasHand = false
		c.status.Hand = ""
	}
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetGeometry replaces the gesture thresholds.
func (c *Controller) SetGeometry(g gesture.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geometry = g
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnTrackedSubject updates the cursor from the subject's hands.
func (c *Controller) OnTrackedSubject(body *skeleton.Body) {
	if body == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.Tracking = true
	c.status.TrackingID = body.TrackingID
	c.status.UpdatedAt = time.Now()

	if c.settings.Mode == ModeDisabled {
		return
	}

	j := &body.Joints
	leftUp := c.geometry.IsHandLiftedUpward(j, skeleton.HandLeft)
	rightUp := c.geometry.IsHandLiftedUpward(j, skeleton.HandRight)

	c.trackTwoHands(j, leftUp && rightUp)

	if !leftUp && !rightUp {
		c.release()
		c.hasHand = false
		c.status.Hand = ""
		return
	}

	hand := skeleton.HandLeft
	if rightUp {
		hand = skeleton.HandRight
	}
	if c.hasHand && hand != c.activeHand {
		c.release()
	}
	c.activeHand = hand
	c.hasHand = true
	c.status.Hand = hand.String()

	x, y := c.mapper.Map(c.geometry.HandRelativePosition(j, hand))
	if x != c.status.X || y != c.status.Y {
		c.status.X, c.status.Y = x, y
		c.submit(Command{Kind: CommandMove, X: x, Y: y, Hand: hand.String()})
	}

	var down bool
	switch c.settings.Mode {
	case ModeGrip:
		down = body.HandState(hand) == skeleton.HandClosed
	case ModeLift:
		down = c.geometry.IsHandLiftedForward(j, hand)
	}

	if down && !c.status.Pressed {
		c.status.Pressed = true
		c.submit(Command{Kind: CommandPress, X: x, Y: y, Hand: hand.String()})
	} else if !down {
		c.release()
	}
}

// OnTrackingLost releases a held button and reports the loss.
func (c *Controller) OnTrackingLost() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.release()
	c.hasHand = false
	c.hasZoomRef = false
	c.status.Tracking = false
	c.status.TrackingID = 0
	c.status.Hand = ""
	c.status.TwoHandDistance = 0
	c.status.LastGesture = GestureLost
	c.status.UpdatedAt = time.Now()
	c.submit(Command{Kind: CommandLost, Gesture: GestureLost})
}

// trackTwoHands emits spread and pinch gestures while both hands are up.
func (c *Controller) trackTwoHands(j *skeleton.Joints, bothUp bool) {
	if !bothUp {
		c.hasZoomRef = false
		c.status.TwoHandDistance = 0
		return
	}

	d := gesture.TwoHandDistance(j)
	c.status.TwoHandDistance = d
	if !c.hasZoomRef {
		c.zoomRef = d
		c.hasZoomRef = true
		return
	}

	var name string
	switch {
	case d-c.zoomRef > c.settings.ZoomStep:
		name = GestureSpread
	case c.zoomRef-d > c.settings.ZoomStep:
		name = GesturePinch
	default:
		return
	}
	c.zoomRef = d
	c.status.LastGesture = name
	c.submit(Command{Kind: CommandGesture, Gesture: name})
}

// release lifts a held button. Callers hold c.mu.
func (c *Controller) release() {
	if !c.status.Pressed {
		return
	}
	c.status.Pressed = false
	c.submit(Command{Kind: CommandRelease, X: c.status.X, Y: c.status.Y, Hand: c.activeHand.String()})
}

func (c *Controller) submit(cmd Command) {
	if c.sink != nil {
		c.sink.Submit(cmd)
	}
}
