package ui

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/travelbot/core/telegram/helpers"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands or text handling.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	NonText() tele.HandlerFunc
}

// StaticFallbacks answers unmatched updates with fixed texts.
// An empty text leaves the corresponding handler nil.
type StaticFallbacks struct {
	UnknownTextReply string
	NonTextReply     string
}

// UnknownText implements FallbackProvider.
func (f StaticFallbacks) UnknownText() tele.HandlerFunc {
	return reply(f.UnknownTextReply)
}

// NonText implements FallbackProvider.
func (f StaticFallbacks) NonText() tele.HandlerFunc {
	return reply(f.NonTextReply)
}

func reply(text string) tele.HandlerFunc {
	if text == "" {
		return nil
	}
	return func(c tele.Context) error {
		return tghelpers.SendText(c, text)
	}
}
