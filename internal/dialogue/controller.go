// Package dialogue runs the per-chat trip questionnaire: it fills slots one
// by one from user text and hands the chat over to the completion service
// once every slot is known.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/travelbot/core/logger"
	"github.com/m3rciful/travelbot/internal/slots"
)

// DefaultAcknowledgement precedes the first completion after the last slot is filled.
const DefaultAcknowledgement = "Отлично, все данные собраны! Подбираю варианты..."

// ErrCompletion wraps failures of the Completer.
var ErrCompletion = errors.New("dialogue: completion failed")

// Completer generates a reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Phase tells where a turn left the chat.
type Phase string

const (
	// PhaseCollecting: a slot is still missing.
	PhaseCollecting Phase = "collecting"
	// PhaseCompleted: this turn filled the last slot.
	PhaseCompleted Phase = "completed"
	// PhaseChat: the questionnaire was already done; text went to the completer as is.
	PhaseChat Phase = "chat"
)

// Turn is the outcome of one inbound message.
type Turn struct {
	Text  string
	Phase Phase
	// Next is the slot the bot is asking about, nil outside PhaseCollecting.
	Next *slots.Definition
	// Filled is the slot this turn filled, empty if none.
	Filled slots.Key
}

// Option configures a Controller.
type Option func(*Controller)

// WithSchema replaces the default slot schema.
func WithSchema(s slots.Schema) Option {
	return func(c *Controller) { c.schema = s }
}

// WithLogger sets the logger for turn events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithAcknowledgement replaces DefaultAcknowledgement. An empty text drops the prefix.
func WithAcknowledgement(text string) Option {
	return func(c *Controller) { c.ack = text }
}

// Controller is the single entry point for chat turns.
type Controller struct {
	store     Store
	completer Completer
	schema    slots.Schema
	ack       string
	log       *slog.Logger
	locks     *chatLocks
}

// New builds a Controller over store and completer.
func New(store Store, completer Completer, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		completer: completer,
		schema:    slots.Default(),
		ack:       DefaultAcknowledgement,
		locks:     newChatLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schema returns the slot schema in use.
func (c *Controller) Schema() slots.Schema { return c.schema }

// HandleTurn processes one message and returns the text to send back.
// On a completion failure the error wraps ErrCompletion and the text holds
// whatever precedes the completion (the acknowledgement, possibly empty).
func (c *Controller) HandleTurn(ctx context.Context, chatID int64, text string) (string, error) {
	t, err := c.Handle(ctx, chatID, text)
	return t.Text, err
}

// Handle is HandleTurn with the full turn outcome.
func (c *Controller) Handle(ctx context.Context, chatID int64, text string) (Turn, error) {
	start := time.Now()
	unlock := c.locks.lock(chatID)
	defer unlock()

	conv, err := c.store.GetOrCreate(ctx, chatID)
	if err != nil {
		return Turn{}, fmt.Errorf("dialogue: load conversation: %w", err)
	}
	ctx = logger.WithConversation(ctx, conv.ID)

	q, pending := c.schema.NextUnfilled(conv.Slots)
	if !pending {
		unlock()
		if strings.TrimSpace(text) == "" {
			c.logTurn(ctx, start, PhaseChat, "", "", len(conv.Slots), nil)
			return Turn{Phase: PhaseChat}, nil
		}
		reply, err := c.complete(ctx, text)
		c.logTurn(ctx, start, PhaseChat, "", "", len(conv.Slots), err)
		if err != nil {
			return Turn{Phase: PhaseChat}, err
		}
		return Turn{Text: reply, Phase: PhaseChat}, nil
	}

	value, ok := q.Extract(text)
	if !ok {
		unlock()
		c.logTurn(ctx, start, PhaseCollecting, "", q.Key, len(conv.Slots), nil)
		return Turn{Text: q.Prompt, Phase: PhaseCollecting, Next: &q}, nil
	}

	conv.Slots[q.Key] = value
	if err := c.store.Update(ctx, conv); err != nil {
		return Turn{}, fmt.Errorf("dialogue: save conversation: %w", err)
	}
	next, more := c.schema.NextUnfilled(conv.Slots)
	filled := len(conv.Slots)
	unlock()

	if more {
		c.logTurn(ctx, start, PhaseCollecting, q.Key, next.Key, filled, nil)
		return Turn{Text: next.Prompt, Phase: PhaseCollecting, Next: &next, Filled: q.Key}, nil
	}

	reply, err := c.complete(ctx, ComposePrompt(c.schema, conv.Slots))
	c.logTurn(ctx, start, PhaseCompleted, q.Key, "", filled, err)
	turn := Turn{Text: c.ack, Phase: PhaseCompleted, Filled: q.Key}
	if err != nil {
		return turn, err
	}
	turn.Text = joinReply(c.ack, reply)
	return turn, nil
}

func (c *Controller) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	return reply, nil
}

func (c *Controller) logTurn(ctx context.Context, start time.Time, phase Phase, filledKey, nextKey slots.Key, filled int, err error) {
	log := c.log
	if log == nil {
		log = logger.DLG
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("phase", string(phase)),
		slog.Int("filled", filled),
		slog.Duration("duration", logger.Took(start)),
	}
	if filledKey != "" {
		attrs = append(attrs, slog.String("slot", string(filledKey)))
	}
	if nextKey != "" {
		attrs = append(attrs, slog.String("next_slot", string(nextKey)))
	}
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	} else if phase == PhaseCompleted {
		level = slog.LevelInfo
	}
	logger.LogEvent(ctx, log, level, "turn.handled", attrs...)
}

func joinReply(prefix, reply string) string {
	switch {
	case prefix == "":
		return reply
	case reply == "":
		return prefix
	}
	return prefix + "\n\n" + reply
}

// ComposePrompt turns collected slots into the completion request.
// Lines follow schema order; missing slots are skipped.
func ComposePrompt(schema slots.Schema, collected map[slots.Key]string) string {
	var b strings.Builder
	b.WriteString("Пользователь заполнил анкету для подбора путешествия:\n")
	for _, key := range schema.Keys() {
		v, ok := collected[key]
		if !ok {
			continue
		}
		b.WriteString(string(key))
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.WriteString("Подбери подходящие варианты туров по этим параметрам и дай короткие практические советы по поездке.")
	return b.String()
}
