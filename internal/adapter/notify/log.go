package notify

import (
	"context"

	domain "intranet-approval/internal/domain/notify"

	"github.com/rs/zerolog"
)

// LogNotifier writes every delivery to the log. Used when no broker is configured.
type LogNotifier struct{ log zerolog.Logger }

func NewLogNotifier(log zerolog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Notify(_ context.Context, target string, eventType domain.EventType, payload map[string]any) error {
	n.log.Info().
		Str("event_type", string(eventType)).
		Str("target", target).
		Fields(payload).
		Msg("notification")
	return nil
}
