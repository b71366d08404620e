// Package avatar drives the decorative pulsing sphere. It shares nothing
// with the dialogue; frames only flow out to connected viewers.
package avatar

import "math"

// AngleStep is how far the pulse advances per tick.
const AngleStep = 0.05

// Frame is one sample of the sphere: color channels in [0, 1] and the
// vertical offset of its center.
type Frame struct {
	Step int     `json:"step"`
	R    float64 `json:"r"`
	G    float64 `json:"g"`
	B    float64 `json:"b"`
	Y    float64 `json:"y"`
}

func FrameAt(step int) Frame {
	a := AngleStep * float64(step)
	return Frame{
		Step: step,
		R:    math.Abs(math.Sin(a)),
		G:    0.8,
		B:    1 - math.Abs(math.Cos(a)),
		Y:    0.2 * math.Sin(a),
	}
}
