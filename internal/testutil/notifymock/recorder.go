package notifymock

import (
	"context"
	"sync"

	"intranet-approval/internal/domain/notify"
)

var (
	_ notify.Emitter  = (*Recorder)(nil)
	_ notify.Notifier = (*Recorder)(nil)
)

// Delivery is one Notify call.
type Delivery struct {
	Target  string
	Type    notify.EventType
	Payload map[string]any
}

// Recorder captures emitted events and notifier deliveries. Safe for
// concurrent use. Err, when set, is returned from every Notify call.
type Recorder struct {
	mu         sync.Mutex
	events     []notify.Event
	deliveries []Delivery
	Err        error
}

func (r *Recorder) Emit(_ context.Context, events ...notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Notify(_ context.Context, target string, eventType notify.EventType, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, Delivery{Target: target, Type: eventType, Payload: payload})
	return r.Err
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}

// OfType filters emitted events by type.
func (r *Recorder) OfType(t notify.EventType) []notify.Event {
	var out []notify.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.deliveries = nil
}
