package skeleton

// Bone connects two joints of the body model.
type Bone struct {
	From JointType
	To   JointType
}

// Bones lists the segments of the body model, torso first.
var Bones = []Bone{
	{Head, Neck},
	{Neck, SpineShoulder},
	{SpineShoulder, SpineMid},
	{SpineMid, SpineBase},
	{SpineShoulder, ShoulderRight},
	{SpineShoulder, ShoulderLeft},
	{SpineBase, HipRight},
	{SpineBase, HipLeft},

	{ShoulderRight, ElbowRight},
	{ElbowRight, WristRight},
	{WristRight, HandRightJoint},
	{HandRightJoint, HandTipRight},
	{WristRight, ThumbRight},

	{ShoulderLeft, ElbowLeft},
	{ElbowLeft, WristLeft},
	{WristLeft, HandLeftJoint},
	{HandLeftJoint, HandTipLeft},
	{WristLeft, ThumbLeft},

	{HipRight, KneeRight},
	{KneeRight, AnkleRight},
	{AnkleRight, FootRight},

	{HipLeft, KneeLeft},
	{KneeLeft, AnkleLeft},
	{AnkleLeft, FootLeft},
}
