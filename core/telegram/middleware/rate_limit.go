package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/travelbot/core/logger"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
// Interval enforces a minimum gap between two updates of a user;
// WindowRequests/Window caps the number of updates in any sliding window.
// Either limit is disabled when zero.
type RateLimitOptions struct {
	Interval       time.Duration
	WindowRequests int
	Window         time.Duration
	Exclude        map[string]struct{}
	OnLimited      tele.HandlerFunc
}

// RateLimitMiddleware returns a middleware that throttles updates per user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiter := newRateLimiter(opts)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if limiter.allow(user.ID) {
				return next(c)
			}

			attrs := []any{
				slog.String("event", "tg.rate_limit"),
				slog.String("status", "rate_limited"),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.Warn("rate limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

type rateLimiter struct {
	interval time.Duration
	limit    int
	window   time.Duration
	now      func() time.Time
	// seen holds a *userHits per user; idle users expire after the longest limit.
	seen     *gocache.Cache
}

// userHits is the accepted-update history of one user.
type userHits struct {
	mu    sync.Mutex
	last  time.Time
	times []time.Time
}

func newRateLimiter(opts RateLimitOptions) *rateLimiter {
	idle := opts.Window
	if opts.Interval > idle {
		idle = opts.Interval
	}
	if idle <= 0 {
		idle = time.Minute
	}
	return &rateLimiter{
		interval: opts.Interval,
		limit:    opts.WindowRequests,
		window:   opts.Window,
		now:      time.Now,
		seen:     gocache.New(idle, 2*idle),
	}
}

func (l *rateLimiter) hits(id string) *userHits {
	if v, ok := l.seen.Get(id); ok {
		h := v.(*userHits)
		l.seen.Set(id, h, gocache.DefaultExpiration)
		return h
	}
	h := &userHits{}
	if err := l.seen.Add(id, h, gocache.DefaultExpiration); err != nil {
		if v, ok := l.seen.Get(id); ok {
			return v.(*userHits)
		}
	}
	return h
}

// allow records a hit for userID and reports whether it fits both limits.
// The window slides: a hit counts for exactly Window after it was accepted.
// Rejected hits are not recorded.
func (l *rateLimiter) allow(userID int64) bool {
	now := l.now()
	h := l.hits(strconv.FormatInt(userID, 10))
	h.mu.Lock()
	defer h.mu.Unlock()

	if l.interval > 0 && !h.last.IsZero() && now.Sub(h.last) < l.interval {
		return false
	}
	if l.limit > 0 && l.window > 0 {
		live := h.times[:0]
		for _, t := range h.times {
			if now.Sub(t) < l.window {
				live = append(live, t)
			}
		}
		h.times = live
		if len(h.times) >= l.limit {
			return false
		}
		h.times = append(h.times, now)
	}
	h.last = now
	return true
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
