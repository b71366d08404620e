// Package assistant runs the spoken dialogue: greet, then listen, dispatch
// and answer until the user asks to leave.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"time"

	"neo/internal/nlu"
)

const (
	Farewell      = "Goodbye!"
	NoInput       = "No input detected."
	NotUnderstood = "Sorry, I couldn't understand."
)

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, utterance string) (nlu.Result, error)
}

// Observer is told about every listening window and every dispatched turn.
type Observer interface {
	ListenOutcome(outcome string)
	Turn(intent string, took time.Duration, err error)
}

type Config struct {
	Persona       string
	ListenTimeout time.Duration
	Transcript    io.Writer // nil discards
	Observer      Observer  // nil ignores
}

type Loop struct {
	cfg        Config
	listener   Listener
	dispatcher Dispatcher
	speaker    Speaker
}

func New(cfg Config, l Listener, d Dispatcher, s Speaker) *Loop {
	if cfg.Transcript == nil {
		cfg.Transcript = io.Discard
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = 10 * time.Second
	}
	return &Loop{cfg: cfg, listener: l, dispatcher: d, speaker: s}
}

func Greeting(persona string) string {
	return fmt.Sprintf("Hello! I am %s, your 3-D assistant. How can I help you?", persona)
}

func errorMessage(err error) string {
	return "An error occurred: " + err.Error()
}

// Run blocks until an exit phrase is heard, the input source is exhausted or
// ctx is cancelled. Per-turn failures are spoken, never returned.
func (l *Loop) Run(ctx context.Context) error {
	l.say(ctx, Greeting(l.cfg.Persona))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := l.turn(ctx)
		if err != nil || done {
			return err
		}
	}
}

func (l *Loop) turn(ctx context.Context) (bool, error) {
	log.Info("Listening… (say 'exit' to quit)")

	heard, err := l.listener.Listen(ctx, l.cfg.ListenTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		if errors.Is(err, ErrInputClosed) {
			log.Info("Input closed")
			return true, nil
		}
		l.cfg.Observer.ListenOutcome("error")
		log.Error("Failed to listen", "err", err)
		l.say(ctx, errorMessage(err))
		return false, nil
	}

	l.cfg.Observer.ListenOutcome(heard.Kind.String())

	switch heard.Kind {
	case Timeout:
		l.say(ctx, NoInput)
		return false, nil
	case Unintelligible:
		l.say(ctx, NotUnderstood)
		return false, nil
	}

	fmt.Fprintf(l.cfg.Transcript, "You: %s\n", heard.Text)

	start := time.Now()
	res, err := l.dispatcher.Dispatch(ctx, heard.Text)
	l.cfg.Observer.Turn(res.Intent.String(), time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		log.Error("Failed to dispatch", "intent", res.Intent, "err", err)
		l.say(ctx, errorMessage(err))
		return false, nil
	}

	if res.Terminate {
		l.say(ctx, Farewell)
		return true, nil
	}

	l.say(ctx, res.Reply)
	return false, nil
}

func (l *Loop) say(ctx context.Context, text string) {
	fmt.Fprintf(l.cfg.Transcript, "%s: %s\n", l.cfg.Persona, text)

	if err := l.speaker.Speak(ctx, text); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

type nopObserver struct{}

func (nopObserver) ListenOutcome(string) {}

func (nopObserver) Turn(string, time.Duration, error) {}
