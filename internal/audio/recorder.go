package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = time.Second * frameSize / SampleRate

	defaultThreshold = 0.015
	ambientFactor    = 1.5
	silenceHang      = 600 * time.Millisecond
)

type Recorder struct {
	threshold   float64
	phraseLimit time.Duration
}

func NewRecorder(phraseLimit time.Duration) *Recorder {
	if phraseLimit <= 0 {
		phraseLimit = 10 * time.Second
	}
	return &Recorder{threshold: defaultThreshold, phraseLimit: phraseLimit}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func (r *Recorder) Threshold() float64 { return r.threshold }

// Calibrate listens to the room for d and lifts the speech threshold above
// the measured noise floor.
func (r *Recorder) Calibrate(d time.Duration) error {
	buf := make([]int16, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	var (
		sum    float64
		frames = int(d / frameDur)
	)
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		sum += frameRMS(buf)
	}

	r.threshold = ambientThreshold(sum / float64(frames))
	log.Debug("Calibrated", "threshold", r.threshold)

	return nil
}

func ambientThreshold(noise float64) float64 {
	return max(defaultThreshold, noise*ambientFactor)
}

// Capture records one utterance from the default input device. If speech
// does not start within wait it returns ErrWaitTimeout.
func (r *Recorder) Capture(ctx context.Context, wait time.Duration) ([]int16, error) {
	buf := make([]int16, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	seg := r.segmenter(wait)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		done, err := seg.push(buf)
		if err != nil {
			return nil, err
		}
		if done {
			return seg.out, nil
		}
	}
}

func (r *Recorder) segmenter(wait time.Duration) *segmenter {
	return &segmenter{
		threshold:  r.threshold,
		waitFrames: max(1, int(wait/frameDur)),
		hangFrames: int(silenceHang / frameDur),
		maxFrames:  max(1, int(r.phraseLimit/frameDur)),
	}
}
