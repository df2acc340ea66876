package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "intranet-approval/internal/domain/notify"
	"intranet-approval/internal/infrastructure/metrics"

	"github.com/rs/zerolog"
)

var _ domain.Emitter = (*Dispatcher)(nil)

const defaultDeliveryTimeout = 5 * time.Second

// Dispatcher fans events out to a Notifier on a single background worker.
// Emit never blocks: when the queue is full the event is dropped.
type Dispatcher struct {
	notifier domain.Notifier
	queue    chan domain.Event
	metrics  *metrics.Workflow
	log      zerolog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type DispatcherOption func(*Dispatcher)

func WithDispatchMetrics(m *metrics.Workflow) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithDispatchLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

func WithDeliveryTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

func NewDispatcher(n domain.Notifier, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		notifier: n,
		queue:    make(chan domain.Event, queueSize),
		log:      zerolog.Nop(),
		timeout:  defaultDeliveryTimeout,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

func (d *Dispatcher) Emit(_ context.Context, events ...domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range events {
		if d.closed {
			d.drop(e, "dispatcher closed")
			continue
		}
		select {
		case d.queue <- e:
		default:
			d.drop(e, "queue full")
		}
	}
}

func (d *Dispatcher) drop(e domain.Event, reason string) {
	d.metrics.NotifyDropped()
	d.log.Warn().
		Str("event_type", string(e.Type)).
		Str("request_id", e.RequestID).
		Str("reason", reason).
		Msg("notification dropped")
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e domain.Event) {
	payload := make(map[string]any, len(e.Payload)+3)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload["request_id"] = e.RequestID
	if e.LineID != "" {
		payload["line_id"] = e.LineID
	}
	payload["occurred_at"] = e.OccurredAt

	for _, target := range e.Targets {
		if err := d.notify(target, e.Type, payload); err != nil {
			d.metrics.NotifyFailed(string(e.Type))
			d.log.Warn().Err(err).
				Str("event_type", string(e.Type)).
				Str("target", target).
				Str("request_id", e.RequestID).
				Msg("notification delivery failed")
		}
	}
}

// notify runs one delivery; a panicking notifier is reported as an error so
// the worker keeps draining the queue.
func (d *Dispatcher) notify(target string, typ domain.EventType, payload map[string]any) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, target, typ, payload)
}

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notify: queue not drained"), ctx.Err())
	}
}
