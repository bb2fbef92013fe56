// Package app wires the travel assistant: configuration, storage, the
// dialogue controller, the completion client and the Telegram routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/travelbot/core/bootstrap"
	corecmd "github.com/m3rciful/travelbot/core/cmd"
	"github.com/m3rciful/travelbot/core/health"
	"github.com/m3rciful/travelbot/core/logger"
	coretelegram "github.com/m3rciful/travelbot/core/telegram"
	"github.com/m3rciful/travelbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/travelbot/core/telegram/helpers"
	"github.com/m3rciful/travelbot/core/telegram/router"
	"github.com/m3rciful/travelbot/core/telegram/state"
	"github.com/m3rciful/travelbot/core/telegram/ui"
	"github.com/m3rciful/travelbot/internal/completion"
	"github.com/m3rciful/travelbot/internal/dialogue"
	"github.com/m3rciful/travelbot/migrations"
)

// Completer is the part of the completion client the bot needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteCommand(ctx context.Context, prompt string) (string, error)
	Model() string
}

// App holds the wired bot.
type App struct {
	cfg       *Config
	infra     *bootstrap.Result
	sessions  state.Store
	completer Completer
	dialogue  *dialogue.Controller
	order     *replyOrder
	started   time.Time
}

// Bootstrap is the core/cmd bootstrap hook.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg)
}

// New initializes logging and storage, then builds the dialogue stack.
func New(ctx context.Context, cfg *Config) (*App, error) {
	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.Storage.Driver == StoragePostgres {
		cfg.Database.Source = migrations.FS
		opts.Database = &cfg.Database
	}
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	client, err := completion.New(cfg.DeepSeek.CompletionConfig())
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	var sessions state.Store
	if infra.DB != nil {
		sessions = state.NewPostgresStore(infra.DB)
	} else {
		sessions = state.NewMemoryStore(cfg.Storage.IdleTTL())
	}

	a := newApp(cfg, sessions, client)
	a.infra = infra

	switch {
	case cfg.AccessOpen():
		logger.L.With("component", logger.CompApp).Warn("access check disabled, bot is open to everyone",
			slog.String("event", "access.open"),
		)
	case cfg.AccessClosed():
		logger.L.With("component", logger.CompApp).Warn("access list is empty, every user will be denied",
			slog.String("event", "access.closed"),
		)
	}
	logger.L.With("component", logger.CompApp).Info("app wired",
		slog.String("event", "wired"),
		slog.String("status", "ok"),
		slog.String("store", cfg.Storage.Driver),
		slog.String("model", client.Model()),
		slog.Int("allowed_users", len(cfg.Access.AllowedUserIDs)),
	)
	return a, nil
}

func newApp(cfg *Config, sessions state.Store, completer Completer) *App {
	return &App{
		cfg:       cfg,
		sessions:  sessions,
		completer: completer,
		dialogue: dialogue.New(
			dialogue.SessionStore(sessions),
			completer,
			dialogue.WithLogger(logger.DLG),
		),
		order:   newReplyOrder(),
		started: time.Now(),
	}
}

// Registry registers all bot commands.
func (a *App) Registry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Начать работу с ботом",
	})
	for _, cp := range commandPrompts {
		reg.RegisterCommand(cp.Name, commands.Command{
			Handler:     a.handleCommandPrompt(cp),
			Description: cp.Description,
		})
	}
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Статистика бота",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.SetTextFallback(a.handleText)
	return reg
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := a.Registry()
	fallbacks := ui.StaticFallbacks{NonTextReply: textNonText}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: replyText(textAdminOnly),
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptionsFrom(fallbacks))...)

	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, coretelegram.MiddlewareHooks{
			OnDenied:  replyText(textDenied),
			OnLimited: replyText(textRateLimited),
		}),
		Routes: routes,
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

// BackgroundServices implements cmd.BackgroundApp.
func (a *App) BackgroundServices() []corecmd.BackgroundService {
	if a.cfg.HTTP.Listen == "" {
		return nil
	}
	srv := health.NewServer(health.Options{
		Listen: a.cfg.HTTP.Listen,
		Model:  a.completer.Model(),
		Probes: map[string]health.Probe{
			"sessions": func(ctx context.Context) (any, error) {
				return a.sessions.Count(ctx)
			},
		},
	})
	return []corecmd.BackgroundService{{Name: "health", Run: srv.Run}}
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Close()
}

func replyText(text string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, text)
	}
}
