package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/travelbot/core/buildinfo"
	"github.com/m3rciful/travelbot/core/logger"
	tghelpers "github.com/m3rciful/travelbot/core/telegram/helpers"
	"github.com/m3rciful/travelbot/core/telegram/keyboard"
	"github.com/m3rciful/travelbot/internal/completion"
	"github.com/m3rciful/travelbot/internal/dialogue"
)

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, textWelcome)
}

func (a *App) handleCommandPrompt(cp commandPrompt) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		tghelpers.Typing(c)
		reply, err := a.completer.CompleteCommand(ctx, cp.Prompt)
		if err != nil {
			reply = completion.Fallback(err)
		}
		return tghelpers.SendText(c, reply)
	}
}

// handleText feeds free text into the questionnaire.
func (a *App) handleText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	tk := a.order.ticket(chat.ID)
	defer tk.release()
	tghelpers.Typing(c)

	turn, err := a.dialogue.Handle(ctx, chat.ID, c.Text())
	tk.wait(ctx)
	text := turn.Text
	switch {
	case err == nil:
	case errors.Is(err, dialogue.ErrCompletion):
		text = joinNonEmpty(text, completion.Fallback(err))
		err = nil
	default:
		logger.Error(ctx, logger.CompDialogue, "turn.fail",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if sendErr := tghelpers.SendText(c, completion.FallbackDefault); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return err
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}
	var markup *tele.ReplyMarkup
	switch {
	case turn.Next != nil && len(turn.Next.Options) > 0:
		markup = keyboard.ReplyButtons(keyboard.ChunkLabels(turn.Next.Options, 2)...)
	case turn.Filled != "":
		markup = keyboard.RemoveKeyboard()
	}
	return tghelpers.SendWithMarkup(c, text, markup)
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sessions, err := a.sessions.Count(ctx)
	if err != nil {
		return err
	}
	info := buildinfo.Current()
	msg := fmt.Sprintf("Диалогов: %d\nАптайм: %s\nМодель: %s\nХранилище: %s\nВерсия: %s (%s)",
		sessions,
		time.Since(a.started).Round(time.Second),
		a.completer.Model(),
		a.cfg.Storage.Driver,
		info.Version, info.Commit,
	)
	return tghelpers.SendText(c, msg)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
