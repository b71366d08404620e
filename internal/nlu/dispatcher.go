package nlu

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

// Completer is the chat-completion gateway used for delegated utterances.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Result is the outcome of one dispatch. When Terminate is set Reply is empty
// and the caller should say goodbye and stop.
type Result struct {
	Intent    Intent
	Terminate bool
	Reply     string
}

type Dispatcher struct {
	persona string
	chat    Completer
	now     func() time.Time
}

type Option func(*Dispatcher)

// WithClock replaces time.Now for the time query.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(persona string, chat Completer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		persona: persona,
		chat:    chat,
		now:     time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) SystemPrompt() string {
	return fmt.Sprintf("You are %s, a helpful virtual assistant.", d.persona)
}

// Dispatch produces exactly one reply for an utterance, or a termination.
// Only the delegated path touches the network; its error is returned as is.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string) (Result, error) {
	intent := Classify(utterance)

	switch intent {
	case Exit:
		return Result{Intent: intent, Terminate: true}, nil
	case QueryName:
		return Result{
			Intent: intent,
			Reply:  fmt.Sprintf("I am %s, your 3-D virtual assistant.", d.persona),
		}, nil
	case QueryTime:
		return Result{
			Intent: intent,
			Reply:  "The current time is " + d.now().Format("15:04:05"),
		}, nil
	}

	log.Debug("Delegating to chat", "utterance", utterance)

	reply, err := d.chat.Complete(ctx, d.SystemPrompt(), utterance)
	if err != nil {
		return Result{Intent: intent}, err
	}

	return Result{Intent: intent, Reply: strings.TrimSpace(reply)}, nil
}
