package notify

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// The speaker is a process-wide device; everything plays through it at one rate.
const playbackRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	})
	return speakerErr
}

// Play blocks until s has been played or ctx is done.
func Play(ctx context.Context, s beep.Streamer, rate beep.SampleRate) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	if rate != playbackRate {
		s = beep.Resample(4, rate, playbackRate, s)
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		close(done)
	}))}
	speaker.Play(ctrl)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
		return ctx.Err()
	}
}

// Chime is the short cue played before each listening window.
type Chime struct {
	buf *beep.Buffer
}

// NewChime loads an mp3 cue from path, or synthesizes a short tone when path
// is empty.
func NewChime(path string) (*Chime, error) {
	if path == "" {
		return toneChime()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chime: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return &Chime{buf: buf}, nil
}

func toneChime() (*Chime, error) {
	tone, err := generators.SinTone(playbackRate, 880)
	if err != nil {
		return nil, err
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: playbackRate, NumChannels: 1, Precision: 2})
	buf.Append(beep.Take(playbackRate.N(120*time.Millisecond), tone))
	return &Chime{buf: buf}, nil
}

func (c *Chime) Duration() time.Duration {
	return c.buf.Format().SampleRate.D(c.buf.Len())
}

func (c *Chime) Play(ctx context.Context) error {
	return Play(ctx, c.buf.Streamer(0, c.buf.Len()), c.buf.Format().SampleRate)
}
