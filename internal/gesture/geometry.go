package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Vector2 is a position in the 2D control plane.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func toVector2(p skeleton.Point3D) Vector2 {
	return Vector2{X: p.X, Y: p.Y}
}

// Geometry derives hand gestures from a single joint snapshot.
// All methods are pure; a nil snapshot never counts as a gesture.
type Geometry struct {
	HandLiftZDistance float64
	HandUpYDistance   float64
	LeftHandOffset    Vector2
	RightHandOffset   Vector2
}

// IsHandLiftedForward reports whether the hand is closer to the sensor than the
// spine base by more than HandLiftZDistance. Joint confidence is not checked.
func (g Geometry) IsHandLiftedForward(j *skeleton.Joints, hand skeleton.Hand) bool {
	if j == nil {
		return false
	}
	handZ := j[hand.Joint()].Position.Z
	baseZ := j[skeleton.SpineBase].Position.Z
	return handZ-baseZ < -g.HandLiftZDistance
}

// IsHandLiftedUpward reports whether a tracked hand is higher than the spine base
// by more than HandUpYDistance. Inferred and untracked hands are never lifted.
func (g Geometry) IsHandLiftedUpward(j *skeleton.Joints, hand skeleton.Hand) bool {
	if j == nil {
		return false
	}
	h := j[hand.Joint()]
	if h.State != skeleton.Tracked {
		return false
	}
	return h.Position.Y-j[skeleton.SpineBase].Position.Y > g.HandUpYDistance
}

// AnyHandLiftedUpward reports whether either hand is lifted upward.
func (g Geometry) AnyHandLiftedUpward(j *skeleton.Joints) bool {
	return g.IsHandLiftedUpward(j, skeleton.HandLeft) || g.IsHandLiftedUpward(j, skeleton.HandRight)
}

// HandRelativePosition maps the hand into the control plane: its XY offset from
// the spine base plus the calibration offset of that hand.
func (g Geometry) HandRelativePosition(j *skeleton.Joints, hand skeleton.Hand) Vector2 {
	if j == nil {
		return Vector2{}
	}
	p := j.Positions()
	return g.SmoothedHandRelativePosition(&p, hand)
}

// SmoothedHandRelativePosition is HandRelativePosition over a bare position
// array, as produced by an upstream joint filter.
func (g Geometry) SmoothedHandRelativePosition(p *skeleton.Positions, hand skeleton.Hand) Vector2 {
	if p == nil {
		return Vector2{}
	}
	rel := toVector2(p[hand.Joint()]).Sub(toVector2(p[skeleton.SpineBase]))
	return rel.Add(g.offset(hand))
}

func (g Geometry) offset(hand skeleton.Hand) Vector2 {
	if hand == skeleton.HandLeft {
		return g.LeftHandOffset
	}
	return g.RightHandOffset
}

// TwoHandDistance returns the XY distance between the hands. The result is
// negative when the left hand is further right than the right hand.
func TwoHandDistance(j *skeleton.Joints) float64 {
	if j == nil {
		return 0
	}
	left := j[skeleton.HandLeftJoint].Position
	right := j[skeleton.HandRightJoint].Position

	dx := left.X - right.X
	dy := left.Y - right.Y
	d := math.Sqrt(dx*dx + dy*dy)
	if dx > 0 {
		return -d
	}
	return d
}
