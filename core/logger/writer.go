package logger

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// sink is an output destination. When filtered is set, lines below minLevel are skipped.
type sink struct {
	w        io.Writer
	minLevel slog.Level
	filtered bool
}

func (s sink) accepts(level slog.Level) bool {
	return !s.filtered || level >= s.minLevel
}

// entry is a formatted line, or a flush barrier when ack is set.
type entry struct {
	level slog.Level
	data  []byte
	ack   chan error
}

// asyncWriter moves sink I/O off the logging goroutines. Lines keep their order.
type asyncWriter struct {
	queue chan entry
	done  chan struct{}
	sinks []sink

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(sinks []sink, queueSize int) *asyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	w := &asyncWriter{
		queue: make(chan entry, queueSize),
		done:  make(chan struct{}),
	}
	for _, s := range sinks {
		if s.w != nil {
			w.sinks = append(w.sinks, s)
		}
	}
	go w.loop()
	return w
}

func writerSinks(writers ...io.Writer) []sink {
	out := make([]sink, 0, len(writers))
	for _, w := range writers {
		out = append(out, sink{w: w})
	}
	return out
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for e := range w.queue {
		if e.ack != nil {
			e.ack <- w.firstErr()
			continue
		}
		for _, s := range w.sinks {
			if !s.accepts(e.level) {
				continue
			}
			if _, err := s.w.Write(e.data); err != nil {
				w.setErr(err)
			}
		}
	}
}

// Write enqueues a copy of p. It blocks while the queue is full so no line is dropped.
func (w *asyncWriter) Write(level slog.Level, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := w.firstErr(); err != nil {
		return err
	}
	return w.enqueue(entry{level: level, data: append([]byte(nil), p...)})
}

// Flush returns once every line queued before it reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	if err := w.enqueue(entry{ack: ack}); err != nil {
		return err
	}
	return <-ack
}

// Close drains the queue and reports the first write error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) enqueue(e entry) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- e
	return nil
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
