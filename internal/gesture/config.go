package gesture

import (
	"errors"
	"fmt"
)

// Default tracking parameters.
const (
	// DefaultHandLiftZDistance is how far in front of the spine base, in meters,
	// a hand must be to count as pushed forward.
	DefaultHandLiftZDistance = 0.3
	// DefaultHandUpYDistance is how far above the spine base, in meters, a hand
	// must be to count as raised.
	DefaultHandUpYDistance = 0.2
	// DefaultGestureXOffset and DefaultGestureYOffset center a resting hand in
	// the control plane. The X offset is mirrored for the right hand.
	DefaultGestureXOffset = 0.185
	DefaultGestureYOffset = -0.65
	// DefaultHandsDownTimeout is the number of consecutive hands-down frames
	// after which the active subject must be selected again.
	DefaultHandsDownTimeout = 300
	// DefaultLossTolerance is the number of frames the subject may be missing
	// before tracking is reported lost.
	DefaultLossTolerance = 5
)

// ErrInvalidConfig is returned when a Config holds out-of-range values.
var ErrInvalidConfig = errors.New("invalid tracking config")

// Config holds the tunable thresholds of body selection and gesture detection.
type Config struct {
	HandLiftZDistance float64 `json:"hand_lift_z_distance"`
	HandUpYDistance   float64 `json:"hand_up_y_distance"`
	LeftHandOffset    Vector2 `json:"left_hand_offset"`
	RightHandOffset   Vector2 `json:"right_hand_offset"`
	HandsDownTimeout  int     `json:"hands_down_timeout"`
	LossTolerance     int     `json:"loss_tolerance"`
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		HandLiftZDistance: DefaultHandLiftZDistance,
		HandUpYDistance:   DefaultHandUpYDistance,
		LeftHandOffset:    Vector2{X: DefaultGestureXOffset, Y: DefaultGestureYOffset},
		RightHandOffset:   Vector2{X: -DefaultGestureXOffset, Y: DefaultGestureYOffset},
		HandsDownTimeout:  DefaultHandsDownTimeout,
		LossTolerance:     DefaultLossTolerance,
	}
}

// Geometry returns the gesture geometry configured by c.
func (c Config) Geometry() Geometry {
	return Geometry{
		HandLiftZDistance: c.HandLiftZDistance,
		HandUpYDistance:   c.HandUpYDistance,
		LeftHandOffset:    c.LeftHandOffset,
		RightHandOffset:   c.RightHandOffset,
	}
}

// Validate checks that distances and frame counts are not negative.
func (c Config) Validate() error {
	switch {
	case c.HandLiftZDistance < 0:
		return fmt.Errorf("%w: hand lift distance %v is negative", ErrInvalidConfig, c.HandLiftZDistance)
	case c.HandUpYDistance < 0:
		return fmt.Errorf("%w: hand up distance %v is negative", ErrInvalidConfig, c.HandUpYDistance)
	case c.HandsDownTimeout < 0:
		return fmt.Errorf("%w: hands down timeout %d is negative", ErrInvalidConfig, c.HandsDownTimeout)
	case c.LossTolerance < 0:
		return fmt.Errorf("%w: loss tolerance %d is negative", ErrInvalidConfig, c.LossTolerance)
	}
	return nil
}
