package avatar

import (
	"context"
	"time"
)

const DefaultRate = 60

// Sink receives frames. Publish must not block.
type Sink interface {
	Publish(Frame)
}

type Renderer struct {
	sink     Sink
	interval time.Duration
}

// NewRenderer ticks fps times per second; fps <= 0 uses DefaultRate.
func NewRenderer(sink Sink, fps int) *Renderer {
	if fps <= 0 {
		fps = DefaultRate
	}
	return &Renderer{sink: sink, interval: time.Second / time.Duration(fps)}
}

// Run publishes a frame per tick until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sink.Publish(FrameAt(step))
		}
	}
}
