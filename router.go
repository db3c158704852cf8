/*
File: router.go
Description: The Uncertainty Router (UR, §4.7) — emits a best-effort
             analyzer task when DF marks a decision uncertain. The
             default implementation is a bounded channel with the
             teacher's drop-and-count-on-full non-blocking-send pattern
             (ml_guard_process.go's scoreCh), paced with a token bucket
             the way the teacher's limiter.go paces client QPS.
*/

package scorecore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// AnalyzerTask is the message UR emits (§4.7/§6).
type AnalyzerTask struct {
	DecisionID string
	Domain     string
	URL        string
	Features   FeatureVector
	EnqueuedAt time.Time
}

// AnalyzerQueue is the minimal interface UR depends on. The core ships
// a bounded in-process implementation; redisqueue binds this to Redis
// LPUSH for an actual external broker.
type AnalyzerQueue interface {
	Enqueue(ctx context.Context, task AnalyzerTask) error
}

// ChannelAnalyzerQueue is the default AnalyzerQueue: a bounded channel
// drained by a caller-supplied consumer. A full channel drops the
// message and increments a counter rather than blocking the caller,
// mirroring §5's "the hot path never blocks on observability."
type ChannelAnalyzerQueue struct {
	ch      chan AnalyzerTask
	dropped atomic.Int64
	metrics *Metrics
}

func NewChannelAnalyzerQueue(capacity int) *ChannelAnalyzerQueue {
	return &ChannelAnalyzerQueue{
		ch: make(chan AnalyzerTask, capacity),
	}
}

// WithMetrics attaches a Metrics sink that RecordAnalyzerDrop observes
// on every drop, in addition to the queue's own counter.
func (q *ChannelAnalyzerQueue) WithMetrics(m *Metrics) *ChannelAnalyzerQueue {
	q.metrics = m
	return q
}

func (q *ChannelAnalyzerQueue) Enqueue(ctx context.Context, task AnalyzerTask) error {
	select {
	case q.ch <- task:
		return nil
	default:
		q.dropped.Add(1)
		if q.metrics != nil {
			q.metrics.RecordAnalyzerDrop()
		}
		return newError(ErrSinkBackpressure, "uncertainty_router", "analyzer queue full", nil)
	}
}

// Tasks exposes the channel for a consumer goroutine to drain.
func (q *ChannelAnalyzerQueue) Tasks() <-chan AnalyzerTask { return q.ch }

// Dropped returns the number of tasks dropped due to backpressure.
func (q *ChannelAnalyzerQueue) Dropped() int64 { return q.dropped.Load() }

// UncertaintyRouter paces best-effort enqueues to the configured
// AnalyzerQueue so a burst of uncertain decisions cannot flood the
// external broker (§4.7).
type UncertaintyRouter struct {
	queue   AnalyzerQueue
	limiter *rate.Limiter
	logger  componentLoggerFunc
	metrics *Metrics
}

// componentLoggerFunc is the narrow logging surface UR calls from its
// hot path, bound once at construction to a component-tagged
// *slog.Logger (see logger.go) so Route itself never touches slog
// directly.
type componentLoggerFunc func(msg string, args ...any)

// NewUncertaintyRouter constructs a router pacing enqueues at ratePerSec
// with the given burst, backed by queue. baseLogger may be nil; it
// defaults to the package logger (logger.go). Metrics are attached
// separately with WithMetrics.
func NewUncertaintyRouter(queue AnalyzerQueue, ratePerSec float64, burst int, baseLogger *slog.Logger) *UncertaintyRouter {
	log := componentLogger(baseLogger, "uncertainty_router")
	return &UncertaintyRouter{
		queue:   queue,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  func(msg string, args ...any) { LogWarn(log, msg, args...) },
	}
}

// WithMetrics attaches a Metrics sink that RecordAnalyzerDrop observes
// when the rate limiter itself drops a task (before it ever reaches
// the queue).
func (r *UncertaintyRouter) WithMetrics(m *Metrics) *UncertaintyRouter {
	r.metrics = m
	return r
}

// Route emits task if the decision was marked uncertain. Failure to
// enqueue (backpressure, rate limit) is logged but never returned to
// the caller as a hard error — UR is best-effort by contract (§4.7).
func (r *UncertaintyRouter) Route(ctx context.Context, task AnalyzerTask) {
	if !r.limiter.Allow() {
		r.logger("uncertainty router: rate limited, dropping task", "domain", task.Domain)
		if r.metrics != nil {
			r.metrics.RecordAnalyzerDrop()
		}
		return
	}
	if err := r.queue.Enqueue(ctx, task); err != nil {
		r.logger("uncertainty router: enqueue failed", "domain", task.Domain, "error", err)
	}
}
