// Package skeleton defines the body-tracking data delivered by the depth sensor:
// joints, bodies and frames.
package skeleton

import "fmt"

// Joint indices following the depth sensor body model.
const (
	SpineBase JointType = iota
	SpineMid
	Neck
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeftJoint
	ShoulderRight
	ElbowRight
	WristRight
	HandRightJoint
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight
	SpineShoulder
	HandTipLeft
	ThumbLeft
	HandTipRight
	ThumbRight
	JointCount = 25
)

// MaxBodies is the number of bodies the sensor can observe at the same time.
const MaxBodies = 6

// JointType identifies a skeletal landmark.
type JointType int

var jointNames = [JointCount]string{
	"SpineBase", "SpineMid", "Neck", "Head",
	"ShoulderLeft", "ElbowLeft", "WristLeft", "HandLeft",
	"ShoulderRight", "ElbowRight", "WristRight", "HandRight",
	"HipLeft", "KneeLeft", "AnkleLeft", "FootLeft",
	"HipRight", "KneeRight", "AnkleRight", "FootRight",
	"SpineShoulder", "HandTipLeft", "ThumbLeft", "HandTipRight", "ThumbRight",
}

func (j JointType) String() string {
	if j < 0 || int(j) >= JointCount {
		return fmt.Sprintf("JointType(%d)", int(j))
	}
	return jointNames[j]
}

// Valid reports whether j indexes a joint of the body model.
func (j JointType) Valid() bool {
	return j >= 0 && int(j) < JointCount
}

// TrackingState is the confidence the sensor reports for a joint.
type TrackingState int

const (
	NotTracked TrackingState = iota
	Inferred
	Tracked
)

var trackingStateNames = []string{"not_tracked", "inferred", "tracked"}

func (s TrackingState) String() string {
	if s < 0 || int(s) >= len(trackingStateNames) {
		return fmt.Sprintf("TrackingState(%d)", int(s))
	}
	return trackingStateNames[s]
}

// MarshalText encodes the state by name.
func (s TrackingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name. Unknown names decode as NotTracked.
func (s *TrackingState) UnmarshalText(text []byte) error {
	*s = NotTracked
	for i, name := range trackingStateNames {
		if name == string(text) {
			*s = TrackingState(i)
			break
		}
	}
	return nil
}

// HandState is the hand shape reported by the sensor.
type HandState int

const (
	HandUnknown HandState = iota
	HandNotTracked
	HandOpen
	HandClosed
	HandLasso
)

var handStateNames = []string{"unknown", "not_tracked", "open", "closed", "lasso"}

func (s HandState) String() string {
	if s < 0 || int(s) >= len(handStateNames) {
		return fmt.Sprintf("HandState(%d)", int(s))
	}
	return handStateNames[s]
}

// MarshalText encodes the hand state by name.
func (s HandState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a hand state name. Unknown names decode as HandUnknown.
func (s *HandState) UnmarshalText(text []byte) error {
	*s = HandUnknown
	for i, name := range handStateNames {
		if name == string(text) {
			*s = HandState(i)
			break
		}
	}
	return nil
}

// Hand selects the left or right hand of a body.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

// Joint returns the joint type of the hand.
func (h Hand) Joint() JointType {
	if h == HandLeft {
		return HandLeftJoint
	}
	return HandRightJoint
}

func (h Hand) String() string {
	if h == HandLeft {
		return "left"
	}
	return "right"
}

// Point3D is a position in camera space, in meters.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Joint is a landmark position together with its tracking confidence.
type Joint struct {
	Position Point3D       `json:"position"`
	State    TrackingState `json:"state"`
}

// Joints holds every joint of one body, indexed by JointType.
type Joints [JointCount]Joint

// Positions is the reduced joint-position array without confidence tags.
type Positions [JointCount]Point3D

// Get returns the joint of type t, or the zero Joint for an invalid type.
func (j *Joints) Get(t JointType) Joint {
	if j == nil || !t.Valid() {
		return Joint{}
	}
	return j[t]
}

// Positions extracts the joint positions.
func (j *Joints) Positions() Positions {
	var p Positions
	if j == nil {
		return p
	}
	for i := range j {
		p[i] = j[i].Position
	}
	return p
}

// Body is one person observed in a frame.
type Body struct {
	TrackingID     uint64    `json:"tracking_id"`
	Tracked        bool      `json:"tracked"`
	Joints         Joints    `json:"joints"`
	HandLeftState  HandState `json:"hand_left_state"`
	HandRightState HandState `json:"hand_right_state"`
}

// HandState returns the reported shape of the given hand.
func (b *Body) HandState(h Hand) HandState {
	if b == nil {
		return HandUnknown
	}
	if h == HandLeft {
		return b.HandLeftState
	}
	return b.HandRightState
}

// Frame is the set of bodies captured in one sensor tick.
// Bodies has at most MaxBodies entries; nil entries are unoccupied slots.
type Frame struct {
	Sequence  uint64  `json:"sequence"`
	Timestamp int64   `json:"timestamp"`
	Bodies    []*Body `json:"bodies"`
}

// FindBody returns the first body with the given tracking id, or nil.
func (f Frame) FindBody(trackingID uint64) *Body {
	for _, b := range f.Bodies {
		if b != nil && b.TrackingID == trackingID {
			return b
		}
	}
	return nil
}

// TrackedCount returns the number of bodies flagged as tracked.
func (f Frame) TrackedCount() int {
	n := 0
	for _, b := range f.Bodies {
		if b != nil && b.Tracked {
			n++
		}
	}
	return n
}
