// Package tts holds the speech sinks. Every Speak blocks until playback of
// the whole text has finished.
package tts

import (
	"context"
	"fmt"
	log "log/slog"
)

type Engine interface {
	Speak(ctx context.Context, text string) error
	Name() string
	Close() error
}

type Options struct {
	Rate            int    // words per minute
	Voice           string // espeak voice name, or Google voice name
	Language        string // Google language code
	CredentialsFile string
}

func New(ctx context.Context, backend string, opt Options) (Engine, error) {
	switch backend {
	case "espeak":
		e, err := NewEspeak(opt.Voice, opt.Rate)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "google":
		g, err := NewGoogle(ctx, opt)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "none":
		return Silent{}, nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", backend)
	}
}

// Silent drops everything; the console transcript is all that remains.
type Silent struct{}

func (Silent) Speak(_ context.Context, text string) error {
	log.Debug("No tts configured, skipping", "text", text)
	return nil
}

func (Silent) Name() string { return "none" }

func (Silent) Close() error { return nil }
