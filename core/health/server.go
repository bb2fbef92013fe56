// Package health serves the liveness endpoints of the bot process.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/travelbot/core/buildinfo"
	"github.com/m3rciful/travelbot/core/logger"
)

const shutdownTimeout = 5 * time.Second

// Probe reports an extra named check, e.g. the number of stored sessions.
type Probe func(ctx context.Context) (any, error)

// Options configures the health server.
type Options struct {
	// Listen is a host:port pair.
	Listen string
	// Model is reported by /health.
	Model  string
	Probes map[string]Probe
	// Now is used for timestamps and uptime; defaults to time.Now.
	Now func() time.Time
}

// Server exposes GET / and GET /health.
type Server struct {
	opts    Options
	started time.Time
	srv     *http.Server
}

// NewServer builds a Server; call Run to start listening.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts, started: opts.Now()}
	s.srv = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	return r
}

// Run serves until ctx is done, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.HTTP.Info("http listening",
			slog.String("event", "http.listen"),
			slog.String("status", "ok"),
			slog.String("listen", s.opts.Listen),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health: shutdown: %w", err)
	}
	return nil
}

type rootResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type healthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Model         string         `json:"model,omitempty"`
	Build         buildinfo.Info `json:"build"`
	Checks        map[string]any `json:"checks,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Status:  "running",
		Message: "Telegram bot working!",
		Time:    s.opts.Now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(s.opts.Now().Sub(s.started).Seconds()),
		Model:         s.opts.Model,
		Build:         buildinfo.Current(),
	}
	code := http.StatusOK
	if len(s.opts.Probes) > 0 {
		resp.Checks = make(map[string]any, len(s.opts.Probes))
		for name, probe := range s.opts.Probes {
			v, err := probe(r.Context())
			if err != nil {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				resp.Checks[name] = map[string]string{"error": err.Error()}
				continue
			}
			resp.Checks[name] = v
		}
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		ctx := logger.WithRID(r.Context(), chimiddleware.GetReqID(r.Context()))
		status := "ok"
		if ww.Status() >= http.StatusInternalServerError {
			status = "fail"
		}
		logger.Debug(ctx, logger.CompHTTP, "http.request",
			slog.String("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}
