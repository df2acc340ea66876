package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	domain "intranet-approval/internal/domain/notify"
	"intranet-approval/internal/infrastructure/metrics"
	"intranet-approval/internal/testutil/notifymock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu    sync.Mutex
	msgs  []published
	err   error
	calls int
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subj, data: data})
	return nil
}

func TestNATSNotifier_Envelope(t *testing.T) {
	conn := &fakeConn{}
	n := NewNATSNotifier(conn, zerolog.Nop())
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	err := n.Notify(context.Background(), "E002", domain.EventLineDecided, map[string]any{
		"request_id":  "r1",
		"line_id":     "l1",
		"occurred_at": at,
		"outcome":     "approved",
	})
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "notifications.approval.approval.line_decided", conn.msgs[0].subject)

	var msg Message
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &msg))
	assert.Len(t, msg.EventID, 36)
	assert.Equal(t, "approval.line_decided", msg.EventType)
	assert.Equal(t, "E002", msg.Target)
	assert.Equal(t, "r1", msg.RequestID)
	assert.Equal(t, "l1", msg.LineID)
	assert.True(t, msg.OccurredAt.Equal(at))
	assert.Equal(t, map[string]any{"outcome": "approved"}, msg.Payload)
}

func TestNATSNotifier_Errors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	n := NewNATSNotifier(conn, zerolog.Nop())
	err := n.Notify(context.Background(), "E1", domain.EventApproved, nil)
	assert.ErrorContains(t, err, "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewNATSNotifier(&fakeConn{}, zerolog.Nop()).Notify(ctx, "E1", domain.EventApproved, nil), context.Canceled)
}

func TestNATSNotifier_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: no servers available")}
	n := NewNATSNotifier(conn, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < breakerTrip; i++ {
		assert.ErrorContains(t, n.Notify(ctx, "E1", domain.EventApproved, nil), "no servers")
	}
	require.Equal(t, breakerTrip, conn.calls)

	err := n.Notify(ctx, "E1", domain.EventApproved, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, breakerTrip, conn.calls, "open breaker must not reach the connection")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	require.NoError(t, n.Notify(context.Background(), "E001", domain.EventRequested, map[string]any{"request_id": "r9"}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "approval.requested", line["event_type"])
	assert.Equal(t, "E001", line["target"])
	assert.Equal(t, "r9", line["request_id"])
}

func TestDispatcher_FansOutToTargets(t *testing.T) {
	rec := &notifymock.Recorder{}
	d := NewDispatcher(rec, 8)

	d.Emit(context.Background(),
		domain.Event{Type: domain.EventLineDecided, Targets: []string{"req", "b"}, RequestID: "r1", LineID: "l1"},
		domain.Event{Type: domain.EventApproved, Targets: []string{"req"}, RequestID: "r1"},
	)
	require.NoError(t, d.Close(context.Background()))

	got := rec.Deliveries()
	require.Len(t, got, 3)
	assert.Equal(t, "req", got[0].Target)
	assert.Equal(t, "b", got[1].Target)
	assert.Equal(t, domain.EventApproved, got[2].Type)
	assert.Equal(t, "r1", got[0].Payload["request_id"])
	assert.Equal(t, "l1", got[0].Payload["line_id"])
	_, hasLine := got[2].Payload["line_id"]
	assert.False(t, hasLine)
}

func TestDispatcher_FailuresAreCountedNotReturned(t *testing.T) {
	m := metrics.NewWorkflow(prometheus.NewRegistry())
	rec := &notifymock.Recorder{Err: errors.New("down")}
	d := NewDispatcher(rec, 4, WithDispatchMetrics(m))

	d.Emit(context.Background(), domain.Event{Type: domain.EventRejected, Targets: []string{"a", "b"}})
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("approval.rejected")))
}

// panickyNotifier panics for one target and records the rest.
type panickyNotifier struct {
	notifymock.Recorder
	bad string
}

func (p *panickyNotifier) Notify(ctx context.Context, target string, t domain.EventType, payload map[string]any) error {
	if target == p.bad {
		panic("nil subscriber")
	}
	return p.Recorder.Notify(ctx, target, t, payload)
}

func TestDispatcher_PanickingNotifierDoesNotStopWorker(t *testing.T) {
	m := metrics.NewWorkflow(prometheus.NewRegistry())
	pn := &panickyNotifier{bad: "boom"}
	d := NewDispatcher(pn, 4, WithDispatchMetrics(m))

	d.Emit(context.Background(),
		domain.Event{Type: domain.EventApproved, Targets: []string{"boom", "req"}, RequestID: "r1"},
		domain.Event{Type: domain.EventRejected, Targets: []string{"req"}, RequestID: "r2"},
	)
	require.NoError(t, d.Close(context.Background()))

	got := pn.Deliveries()
	require.Len(t, got, 2, "targets after the panic and later events are still delivered")
	assert.Equal(t, domain.EventApproved, got[0].Type)
	assert.Equal(t, domain.EventRejected, got[1].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("approval.approved")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("approval.rejected")))
}

// blockingNotifier holds the worker until released.
type blockingNotifier struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingNotifier) Notify(context.Context, string, domain.EventType, map[string]any) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	m := metrics.NewWorkflow(prometheus.NewRegistry())
	bn := &blockingNotifier{release: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(bn, 1, WithDispatchMetrics(m))

	ev := domain.Event{Type: domain.EventRequested, Targets: []string{"a"}}
	d.Emit(context.Background(), ev)
	<-bn.started // worker holds the first event

	d.Emit(context.Background(), ev) // fills the queue
	d.Emit(context.Background(), ev) // dropped
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDrop))

	close(bn.release)
	require.NoError(t, d.Close(context.Background()))

	// emitting after close drops instead of panicking
	d.Emit(context.Background(), ev)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDrop))
}

func TestDispatcher_CloseHonoursContext(t *testing.T) {
	bn := &blockingNotifier{release: make(chan struct{}), started: make(chan struct{})}
	d := NewDispatcher(bn, 2)
	d.Emit(context.Background(), domain.Event{Type: domain.EventRequested, Targets: []string{"a"}})
	<-bn.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(bn.release)
	require.NoError(t, d.Close(context.Background()))
}
