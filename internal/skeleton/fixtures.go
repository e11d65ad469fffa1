package skeleton

// Preset poses for tests and demos. Coordinates follow camera space: the user
// faces the sensor, so the left hand has the smaller X.

// Standing pose relative to the head, in meters.
var neutralPose = map[JointType]Point3D{
	Head:           {X: 0, Y: 0.45, Z: 0},
	Neck:           {X: 0, Y: 0.30, Z: 0},
	SpineShoulder:  {X: 0, Y: 0.25, Z: 0},
	SpineMid:       {X: 0, Y: 0.00, Z: 0.02},
	SpineBase:      {X: 0, Y: -0.30, Z: 0.03},
	ShoulderLeft:   {X: -0.18, Y: 0.22, Z: 0.02},
	ElbowLeft:      {X: -0.25, Y: -0.02, Z: 0.03},
	WristLeft:      {X: -0.27, Y: -0.25, Z: 0.02},
	HandLeftJoint:  {X: -0.27, Y: -0.33, Z: 0.01},
	HandTipLeft:    {X: -0.27, Y: -0.41, Z: 0.01},
	ThumbLeft:      {X: -0.24, Y: -0.34, Z: -0.01},
	ShoulderRight:  {X: 0.18, Y: 0.22, Z: 0.02},
	ElbowRight:     {X: 0.25, Y: -0.02, Z: 0.03},
	WristRight:     {X: 0.27, Y: -0.25, Z: 0.02},
	HandRightJoint: {X: 0.27, Y: -0.33, Z: 0.01},
	HandTipRight:   {X: 0.27, Y: -0.41, Z: 0.01},
	ThumbRight:     {X: 0.24, Y: -0.34, Z: -0.01},
	HipLeft:        {X: -0.09, Y: -0.36, Z: 0.03},
	KneeLeft:       {X: -0.10, Y: -0.80, Z: 0.05},
	AnkleLeft:      {X: -0.10, Y: -1.20, Z: 0.07},
	FootLeft:       {X: -0.11, Y: -1.25, Z: -0.03},
	HipRight:       {X: 0.09, Y: -0.36, Z: 0.03},
	KneeRight:      {X: 0.10, Y: -0.80, Z: 0.05},
	AnkleRight:     {X: 0.10, Y: -1.20, Z: 0.07},
	FootRight:      {X: 0.11, Y: -1.25, Z: -0.03},
}

// NeutralBody returns a tracked body standing with both hands down.
// headZ is the distance of the head from the sensor.
func NeutralBody(trackingID uint64, headZ float64) *Body {
	b := &Body{
		TrackingID:     trackingID,
		Tracked:        true,
		HandLeftState:  HandOpen,
		HandRightState: HandOpen,
	}
	for t, p := range neutralPose {
		b.Joints[t] = Joint{
			Position: Point3D{X: p.X, Y: p.Y, Z: headZ + p.Z},
			State:    Tracked,
		}
	}
	return b
}

// RaisedHandBody returns a tracked body holding one hand above the spine base.
func RaisedHandBody(trackingID uint64, headZ float64, hand Hand) *Body {
	b := NeutralBody(trackingID, headZ)
	Raise(b, hand)
	return b
}

// BothHandsRaisedBody returns a tracked body holding both hands up.
func BothHandsRaisedBody(trackingID uint64, headZ float64) *Body {
	b := NeutralBody(trackingID, headZ)
	Raise(b, HandLeft)
	Raise(b, HandRight)
	return b
}

// Raise lifts the hand to chest height, half a meter above the spine base.
func Raise(b *Body, hand Hand) {
	base := b.Joints[SpineBase].Position
	j := &b.Joints[hand.Joint()]
	j.Position.Y = base.Y + 0.5
	j.State = Tracked
}

// PushForward moves the hand 0.45m in front of the spine base, toward the sensor.
func PushForward(b *Body, hand Hand) {
	base := b.Joints[SpineBase].Position
	b.Joints[hand.Joint()].Position.Z = base.Z - 0.45
}

// NewFrame builds a frame padded with empty slots up to MaxBodies.
func NewFrame(sequence uint64, bodies ...*Body) Frame {
	n := len(bodies)
	if n < MaxBodies {
		n = MaxBodies
	}
	slots := make([]*Body, n)
	copy(slots, bodies)
	return Frame{Sequence: sequence, Bodies: slots}
}
