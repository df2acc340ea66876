package notify

import (
	"context"
	"time"
)

type EventType string

const (
	EventRequested   EventType = "approval.requested"
	EventLineDecided EventType = "approval.line_decided"
	EventApproved    EventType = "approval.approved"
	EventRejected    EventType = "approval.rejected"
)

// Event is one workflow occurrence, fanned out to every target.
type Event struct {
	Type       EventType
	Targets    []string
	RequestID  string
	LineID     string
	Payload    map[string]any
	OccurredAt time.Time
}

// Notifier delivers a single event to a single target. Delivery is
// fire-and-forget from the workflow's point of view.
type Notifier interface {
	Notify(ctx context.Context, target string, eventType EventType, payload map[string]any) error
}

// Emitter accepts events after a commit. Implementations must not block the
// caller on delivery and never report failures back.
type Emitter interface {
	Emit(ctx context.Context, events ...Event)
}
