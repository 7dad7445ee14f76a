package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"learnhub/pkg/requestcontext"
)

const drainTimeout = 5 * time.Second

const (
	dropQueueFull   = "queue_full"
	dropCircuitOpen = "circuit_open"
)

var droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "learnhub_audit_dropped_total",
	Help: "Audit events dropped before reaching the downstream sink",
}, []string{"reason"})

// Queue decouples request handling from slow sinks. Emit never blocks; when
// the buffer is full the event is dropped and counted.
type Queue struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewQueue(size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{inbox: make(chan Event, size), logger: logger}
}

func (q *Queue) Emit(ctx context.Context, ev Event) error {
	select {
	case q.inbox <- ev:
	default:
		droppedTotal.WithLabelValues(dropQueueFull).Inc()
		q.logger.WarnContext(ctx, "audit queue full, event dropped",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(ev.Action),
		)
	}
	return nil
}

// Worker drains a Queue into a downstream publisher.
type Worker struct {
	sink    Publisher
	inbox   <-chan Event
	logger  *slog.Logger
	breaker *breaker
	now     func() time.Time
}

type WorkerOption func(*Worker)

// WithCircuitBreaker drops events without calling the sink for cooldown
// once threshold consecutive deliveries have failed.
func WithCircuitBreaker(threshold int, cooldown time.Duration) WorkerOption {
	return func(w *Worker) {
		w.breaker = newBreaker(threshold, cooldown, func() time.Time { return w.now() })
	}
}

func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		w.now = now
	}
}

func NewWorker(q *Queue, sink Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{sink: sink, inbox: q.inbox, logger: q.logger, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run delivers events until ctx is cancelled, then flushes what is already
// buffered within drainTimeout. Delivery errors are logged, not returned.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case ev := <-w.inbox:
			w.deliver(ctx, ev)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-w.inbox:
			w.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ev Event) {
	if w.breaker != nil && !w.breaker.allow() {
		droppedTotal.WithLabelValues(dropCircuitOpen).Inc()
		return
	}
	err := w.sink.Emit(ctx, ev)
	if err != nil {
		w.logger.ErrorContext(ctx, "audit delivery failed",
			"request_id", ev.RequestID,
			"action", string(ev.Action),
			"error", err,
		)
	}
	if w.breaker != nil && w.breaker.record(err) {
		w.logger.WarnContext(ctx, "audit sink circuit opened",
			"cooldown", w.breaker.cooldown.String(),
		)
	}
}
