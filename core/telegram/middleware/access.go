package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/travelbot/core/logger"
)

// AccessOptions restricts the bot to a set of Telegram user IDs.
type AccessOptions struct {
	// Allowed is the allow-list; empty denies everyone.
	Allowed []int64
	// Open disables the check.
	Open     bool
	OnReject tele.HandlerFunc
}

// AccessMiddleware rejects updates from senders outside the allow-list.
func AccessMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(opts.Allowed))
	for _, id := range opts.Allowed {
		allowed[id] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if opts.Open {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil {
				if _, ok := allowed[user.ID]; ok {
					return next(c)
				}
			}
			attrs := []any{
				slog.String("event", "tg.access"),
				slog.String("status", "denied"),
			}
			if user != nil {
				attrs = append(attrs, slog.Int64("user_id", user.ID))
			}
			logger.TG.Warn("access denied", attrs...)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
// A zero AdminID disables the handler for everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if user := c.Sender(); opts.AdminID != 0 && user != nil && user.ID == opts.AdminID {
				return next(c)
			}
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
