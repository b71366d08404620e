package assistant

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// TextListener reads one utterance per line, for running without a
// microphone. A blank line counts as no input.
type TextListener struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	err   error
}

func NewTextListener(r io.Reader) *TextListener {
	return &TextListener{r: r, lines: make(chan string)}
}

func (t *TextListener) start() {
	go func() {
		defer close(t.lines)
		sc := bufio.NewScanner(t.r)
		for sc.Scan() {
			t.lines <- sc.Text()
		}
		t.err = sc.Err()
	}()
}

func (t *TextListener) Listen(ctx context.Context, timeout time.Duration) (Heard, error) {
	t.once.Do(t.start)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Heard{}, ctx.Err()
	case <-timer.C:
		return Heard{Kind: Timeout}, nil
	case line, ok := <-t.lines:
		if !ok {
			if t.err != nil {
				return Heard{}, t.err
			}
			return Heard{}, ErrInputClosed
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			return Heard{Kind: Timeout}, nil
		}
		return Heard{Kind: Text, Text: line}, nil
	}
}
