package assistant

import (
	"context"
	"errors"
	"io"
	log "log/slog"
	"strings"
	"time"

	"neo/internal/audio"
	"neo/pkg/stt"
)

// ErrInputClosed means a finite input source has no more utterances.
var ErrInputClosed = errors.New("input closed")

type Kind int

const (
	Text Kind = iota
	Timeout
	Unintelligible
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Unintelligible:
		return "unintelligible"
	default:
		return "text"
	}
}

// Heard is the result of one listening window. Text is only set for Kind Text.
type Heard struct {
	Kind Kind
	Text string
}

type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (Heard, error)
}

type Capturer interface {
	Capture(ctx context.Context, wait time.Duration) ([]int16, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []int16) (string, error)
}

type Cue interface {
	Play(ctx context.Context) error
}

// VoiceListener records an utterance and sends it to the speech gateway.
type VoiceListener struct {
	capture    Capturer
	transcribe Transcriber
	cue        Cue
}

// NewVoiceListener wires capture to transcription. cue may be nil.
func NewVoiceListener(c Capturer, t Transcriber, cue Cue) *VoiceListener {
	return &VoiceListener{capture: c, transcribe: t, cue: cue}
}

func (v *VoiceListener) Listen(ctx context.Context, timeout time.Duration) (Heard, error) {
	if v.cue != nil {
		if err := v.cue.Play(ctx); err != nil {
			log.Debug("Failed to play cue", "err", err)
		}
	}

	pcm, err := v.capture.Capture(ctx, timeout)
	switch {
	case errors.Is(err, audio.ErrWaitTimeout):
		return Heard{Kind: Timeout}, nil
	case errors.Is(err, io.EOF):
		return Heard{}, ErrInputClosed
	case err != nil:
		return Heard{}, err
	}

	log.Debug("Recorded", "samples", len(pcm))

	text, err := v.transcribe.Transcribe(ctx, pcm)
	switch {
	case errors.Is(err, stt.ErrNoSpeech):
		return Heard{Kind: Unintelligible}, nil
	case err != nil:
		return Heard{}, err
	}

	return Heard{Kind: Text, Text: strings.ToLower(strings.TrimSpace(text))}, nil
}
