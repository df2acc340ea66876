// Package notify delivers workflow events. Deliveries are fire-and-forget:
// the dispatcher runs them off the request path and only logs failures.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "intranet-approval/internal/domain/notify"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// SubjectPrefix is followed by the event type, e.g.
// notifications.approval.approval.line_decided.
const SubjectPrefix = "notifications.approval."

// Publishing stops for breakerCooldown after breakerTrip consecutive failures.
const (
	breakerTrip     = 5
	breakerCooldown = 30 * time.Second
)

// publisher is the subset of *nats.Conn the notifier needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

// Message is the JSON published for every delivery.
type Message struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	Target     string         `json:"target"`
	RequestID  string         `json:"request_id,omitempty"`
	LineID     string         `json:"line_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type NATSNotifier struct {
	conn    publisher
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
	now     func() time.Time
}

func NewNATSNotifier(conn publisher, log zerolog.Logger) *NATSNotifier {
	return &NATSNotifier{
		conn: conn,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "nats-notify",
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= breakerTrip },
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("notify breaker state changed")
			},
		}),
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Notify publishes one message per target. request_id, line_id and
// occurred_at are lifted out of the payload into the envelope.
func (n *NATSNotifier) Notify(ctx context.Context, target string, eventType domain.EventType, payload map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Message{
		EventID:    uuid.NewString(),
		EventType:  string(eventType),
		Target:     target,
		OccurredAt: n.now(),
		Payload:    make(map[string]any, len(payload)),
	}
	for k, v := range payload {
		switch k {
		case "request_id":
			msg.RequestID, _ = v.(string)
		case "line_id":
			msg.LineID, _ = v.(string)
		case "occurred_at":
			if t, ok := v.(time.Time); ok {
				msg.OccurredAt = t
			}
		default:
			msg.Payload[k] = v
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: marshal %s: %w", eventType, err)
	}
	subject := SubjectPrefix + string(eventType)
	_, err = n.breaker.Execute(func() (any, error) {
		return nil, n.conn.Publish(subject, data)
	})
	if err != nil {
		return fmt.Errorf("notify: publish %s: %w", subject, err)
	}

	n.log.Debug().
		Str("subject", subject).
		Str("target", target).
		Str("request_id", msg.RequestID).
		Msg("notification published")
	return nil
}

// ConnectNATS dials the server and keeps reconnecting for the life of the process.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("intranet-approval"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}
