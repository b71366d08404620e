package audio

import (
	"context"
	"io"
	log "log/slog"
	"time"

	"neo/pkg/audioconv"
)

// FileSource replays recorded utterances, one file per Capture, in place of
// the microphone. After the last file it returns io.EOF.
type FileSource struct {
	paths       []string
	next        int
	phraseLimit time.Duration
}

func NewFileSource(paths []string, phraseLimit time.Duration) *FileSource {
	return &FileSource{
		paths:       append([]string(nil), paths...),
		phraseLimit: phraseLimit,
	}
}

func (f *FileSource) Capture(ctx context.Context, _ time.Duration) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.next >= len(f.paths) {
		return nil, io.EOF
	}

	path := f.paths[f.next]
	f.next++

	var opt audioconv.Options
	if f.phraseLimit > 0 {
		opt.MaxSamples = int(f.phraseLimit.Seconds() * SampleRate)
	}

	pcm, err := audioconv.DecodeFile(path, opt)
	if err != nil {
		return nil, err
	}

	log.Debug("Loaded input", "path", path, "samples", len(pcm))

	if len(pcm) == 0 {
		return nil, ErrWaitTimeout
	}
	return pcm, nil
}
