// Package relay projects notices on a bounded worker pool and hands the
// resulting payloads to sinks.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyaneshwarpardhi/noticed/internal/config"
	"github.com/gyaneshwarpardhi/noticed/internal/metrics"
	"github.com/gyaneshwarpardhi/noticed/internal/notice"
	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

const defaultProjectTimeout = 2 * time.Second

var (
	ErrQueueFull = errors.New("relay queue full")
	ErrTimeout   = errors.New("projection timed out")
)

// Result is the outcome of projecting a single notice.
type Result struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	DurationMs float64         `json:"duration_ms"`
	Projection *projection.Map `json:"projection,omitempty"`
	Delivered  []string        `json:"delivered,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Relay owns the worker pool and the sinks.
type Relay struct {
	opts    atomic.Pointer[projection.Options]
	pool    *workerPool[*work]
	sinks   []Sink
	log     zerolog.Logger
	timeout time.Duration
	depth   int
}

type work struct {
	id       string
	n        *notice.Notice
	received time.Time
	resultC  chan *Result
}

// New creates a Relay using conf and starts its workers. opts are the
// service-wide projection defaults; reduction is always applied on top.
func New(ctx context.Context, conf config.RelayConf, opts projection.Options, log zerolog.Logger, sinks ...Sink) *Relay {
	r := &Relay{
		sinks:   sinks,
		log:     log.With().Str("component", "relay").Logger(),
		timeout: conf.ProjectTimeout(),
		depth:   conf.QueueDepth,
	}
	if r.timeout <= 0 {
		r.timeout = defaultProjectTimeout
	}
	r.SetOptions(opts)
	r.pool = newWorkerPool[*work](ctx, conf.Workers, conf.QueueDepth, r.process)
	return r
}

// SetOptions atomically replaces the projection defaults (used on hot-reload).
func (r *Relay) SetOptions(opts projection.Options) {
	r.opts.Store(&opts)
}

// Options returns the current projection defaults.
func (r *Relay) Options() projection.Options {
	return *r.opts.Load()
}

// Sinks returns the names of the configured sinks.
func (r *Relay) Sinks() []string {
	out := make([]string, len(r.sinks))
	for i, s := range r.sinks {
		out[i] = s.Name()
	}
	return out
}

// Project projects n on the pool, delivers it and waits for the result.
// The relay owns n until Project returns.
func (r *Relay) Project(ctx context.Context, n *notice.Notice) (*Result, error) {
	w := &work{id: uuid.NewString(), n: n, received: time.Now(), resultC: make(chan *Result, 1)}
	if !r.pool.Submit(w) {
		metrics.NoticesDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, r.depth)
	}
	metrics.NoticesEnqueued.Inc()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case res := <-w.resultC:
		return res, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrTimeout, r.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatch enqueues n for background projection and delivery. It returns
// the assigned id, or false if the queue is full. The relay owns n from
// then on.
func (r *Relay) Dispatch(n *notice.Notice) (string, bool) {
	w := &work{id: uuid.NewString(), n: n, received: time.Now()}
	if !r.pool.Submit(w) {
		metrics.NoticesDropped.Inc()
		return "", false
	}
	metrics.NoticesEnqueued.Inc()
	return w.id, true
}

// QueueUtilization returns queue used / capacity (0–1).
func (r *Relay) QueueUtilization() float64 {
	if r.pool.QueueCap() == 0 {
		return 0
	}
	return float64(r.pool.QueueLen()) / float64(r.pool.QueueCap())
}

// Shutdown drains the pool.
func (r *Relay) Shutdown() {
	r.pool.Drain()
}

func (r *Relay) process(ctx context.Context, w *work) {
	res := r.project(ctx, w)
	res.DurationMs = float64(time.Since(w.received).Microseconds()) / 1000
	metrics.ProjectionDuration.Observe(res.DurationMs)
	if w.resultC != nil {
		w.resultC <- res
	}
}

func (r *Relay) project(ctx context.Context, w *work) *Result {
	res := &Result{ID: w.id, Type: w.n.Type}
	opts := r.Options()

	m, err := w.n.ToArray(nil, opts)
	if err != nil {
		return r.fail(res, err)
	}
	payload, err := m.MarshalJSON()
	if err != nil {
		return r.fail(res, err)
	}
	res.Projection = m
	metrics.NoticesProjected.Inc()
	metrics.FieldsReduced.Add(float64(reducedCount(w.n, opts, m)))

	r.log.Debug().Str("id", w.id).Str("type", w.n.Type).Int("fields", m.Len()).Msg("projected")

	d := Delivery{ID: w.id, Type: w.n.Type, Payload: payload, ReceivedAt: w.received}
	for _, s := range r.sinks {
		if err := s.Deliver(ctx, d); err != nil {
			metrics.Deliveries.WithLabelValues(s.Name(), "error").Inc()
			r.log.Error().Err(err).Str("sink", s.Name()).Str("id", w.id).Msg("delivery failed")
			continue
		}
		metrics.Deliveries.WithLabelValues(s.Name(), "success").Inc()
		res.Delivered = append(res.Delivered, s.Name())
	}
	return res
}

func (r *Relay) fail(res *Result, err error) *Result {
	metrics.ProjectionErrors.Inc()
	r.log.Warn().Err(err).Str("id", res.ID).Str("type", res.Type).Msg("projection failed")
	res.Error = err.Error()
	return res
}

// reducedCount returns how many fields were dropped by reduction rather
// than by Skip.
func reducedCount(n *notice.Notice, opts projection.Options, m *projection.Map) int {
	count := 0
	for _, f := range n.Fields() {
		if m.Has(f.Name) {
			continue
		}
		skipped := false
		for _, s := range opts.Skip {
			if s == f.Name {
				skipped = true
				break
			}
		}
		if !skipped {
			count++
		}
	}
	return count
}
