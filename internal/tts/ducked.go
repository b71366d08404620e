package tts

import (
	"context"
	log "log/slog"
)

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Ducked lowers other audio for the duration of each Speak. Ducking failures
// are logged and never keep the text from being spoken.
type Ducked struct {
	Engine
	ducker Ducker
}

func WithDucking(e Engine, d Ducker) *Ducked {
	return &Ducked{Engine: e, ducker: d}
}

func (d *Ducked) Speak(ctx context.Context, text string) error {
	if err := d.ducker.Duck(ctx); err != nil {
		log.Warn("Failed to duck audio", "err", err)
	}
	defer func() {
		if err := d.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to restore audio", "err", err)
		}
	}()

	return d.Engine.Speak(ctx, text)
}
