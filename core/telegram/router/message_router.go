package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/travelbot/core/telegram"
	"github.com/m3rciful/travelbot/core/telegram/ui"
)

// TextOptions controls fallback behaviour for updates no handler claims.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// NonText answers photos, stickers, voice and other non-text messages.
	NonText tele.HandlerFunc
}

// TextOptionsFrom builds TextOptions from a fallback provider.
func TextOptionsFrom(p ui.FallbackProvider) TextOptions {
	if p == nil {
		return TextOptions{}
	}
	return TextOptions{UnknownText: p.UnknownText(), NonText: p.NonText()}
}

// TextRoutes builds the handlers for free text and non-text messages.
// Text is routed to a registered command first, then to the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && len(text) > 0 && text[0] == '/' {
				return handleWithSummary(c, handlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		summary{handler: "unknown_text", start: start, status: "skip"}.log(c, nil)
		return nil
	}

	nonText := func(c tele.Context) error {
		start := time.Now()
		if opts.NonText != nil {
			return handleWithSummary(c, "non_text", start, func() error {
				return opts.NonText(c)
			})
		}
		summary{handler: "non_text", start: start, status: "skip"}.log(c, nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
	for _, ep := range []string{tele.OnPhoto, tele.OnDocument, tele.OnSticker, tele.OnVoice, tele.OnVideo, tele.OnAudio} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: nonText})
	}
	return routes
}
