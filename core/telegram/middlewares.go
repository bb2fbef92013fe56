package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/travelbot/core/config"
	"github.com/m3rciful/travelbot/core/telegram/middleware"
)

// MiddlewareHooks supplies user-facing replies for rejected updates.
type MiddlewareHooks struct {
	OnDenied  tele.HandlerFunc
	OnLimited tele.HandlerFunc
}

// DefaultMiddlewares builds the shared middleware chain for bots.
// Order: recover, logger, metrics, access, rate limit.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks MiddlewareHooks) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
	if cfg == nil {
		return mws
	}

	mws = append(mws, Middleware{
		Name: "access",
		Use: middleware.AccessMiddleware(middleware.AccessOptions{
			Allowed:  cfg.Access.AllowedUserIDs,
			Open:     cfg.Access.Open,
			OnReject: hooks.OnDenied,
		}),
	})

	rl := cfg.RateLimit
	interval := time.Duration(rl.IntervalMS) * time.Millisecond
	if interval > 0 || rl.WindowRequests > 0 {
		ex := make(map[string]struct{}, len(rl.ExcludeUpdates))
		for _, t := range rl.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:       interval,
				WindowRequests: rl.WindowRequests,
				Window:         time.Duration(rl.WindowSeconds) * time.Second,
				Exclude:        ex,
				OnLimited:      hooks.OnLimited,
			}),
		})
	}

	return mws
}
