package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/m3rciful/travelbot/core/logger"
	"github.com/m3rciful/travelbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the lane is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer of each lane.
	QueueSize int
	// Workers is the number of lanes; a chat always maps to the same lane.
	Workers int
	// MaxRetries <= 0 selects the default of two retries.
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o *Options) setDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Jobs of one chat run on a single lane, so replies keep their order.
type Dispatcher struct {
	opts  Options
	lanes []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the lane workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts.setDefaults()
	d := &Dispatcher{
		opts:  opts,
		lanes: make([]chan job, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.QueueSize)
		go d.worker(d.lanes[i])
	}
	return d
}

func (d *Dispatcher) lane(ctx context.Context) chan job {
	id := logger.ChatIDFrom(ctx)
	if id < 0 {
		id = -id
	}
	return d.lanes[id%int64(len(d.lanes))]
}

// Enqueue schedules run on the lane of the chat found in ctx.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.lane(ctx) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits until queued ones are processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, l := range d.lanes {
		close(l)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	// Delivery outlives the handler that enqueued it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := uint(d.opts.MaxRetries + 1)
	var attempt uint
	err := retry.Do(
		func() error {
			attempt++
			return j.run()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			if wait := netutil.RetryAfter(err); wait > 0 {
				return wait
			}
			return d.opts.RetryBackoff * time.Duration(n+1)
		}),
		retry.RetryIf(netutil.ShouldRetry),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug(j.ctx, logger.CompSender, "send.retry",
				append(j.attrs(),
					slog.Int("attempt", int(n)+1),
					slog.String("err", sanitizeErrorMessage(err)),
				)...,
			)
		}),
		retry.LastErrorOnly(true),
	)

	attrs := append(j.attrs(), slog.Duration("duration", time.Since(start)))
	if attempt > 1 {
		attrs = append(attrs, slog.Int("attempts", int(attempt)))
	}
	if err != nil {
		d.errs.Add(1)
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", sanitizeErrorMessage(err)),
			slog.String("err_kind", classifyError(err)),
		)
		logger.Error(j.ctx, logger.CompSender, "send.fail", attrs...)
		return
	}
	logger.Debug(j.ctx, logger.CompSender, "send.done", append(attrs, slog.String("status", "ok"))...)
}

// attrs carries the job identity; rid and chat come from ctx in the handler.
func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
