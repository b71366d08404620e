package audio

import (
	"errors"
	"math"
)

var ErrWaitTimeout = errors.New("timed out waiting for speech")

// segmenter cuts one utterance out of a stream of fixed-size frames. It waits
// at most waitFrames for speech to start, then keeps everything until
// hangFrames of consecutive silence or maxFrames of speech.
type segmenter struct {
	threshold  float64
	waitFrames int
	hangFrames int
	maxFrames  int

	speaking bool
	waited   int
	silent   int
	frames   int
	out      []int16
}

// push feeds one frame. It reports done once the utterance is complete, or
// ErrWaitTimeout if speech never started.
func (s *segmenter) push(frame []int16) (bool, error) {
	loud := frameRMS(frame) > s.threshold

	if !s.speaking {
		if !loud {
			s.waited++
			if s.waited >= s.waitFrames {
				return true, ErrWaitTimeout
			}
			return false, nil
		}
		s.speaking = true
	}

	s.out = append(s.out, frame...)
	s.frames++

	if loud {
		s.silent = 0
	} else {
		s.silent++
	}

	return s.silent >= s.hangFrames || s.frames >= s.maxFrames, nil
}

// frameRMS is the root mean square of a frame, normalized to [0, 1].
func frameRMS(f []int16) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		v := float64(x) / 32768
		s += v * v
	}
	return math.Sqrt(s / float64(len(f)))
}
