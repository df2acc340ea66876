package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Workflow holds the approval workflow instruments. A nil *Workflow is valid
// and records nothing, which keeps tests free of registries.
type Workflow struct {
	RequestsSubmitted   *prometheus.CounterVec
	LinesAppended       prometheus.Counter
	DecisionsTotal      *prometheus.CounterVec
	RequestsFinalized   *prometheus.CounterVec
	DecisionRejections  *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	NotificationsDrop   prometheus.Counter
}

func NewWorkflow(reg prometheus.Registerer) *Workflow {
	m := &Workflow{
		RequestsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "requests_submitted_total",
			Help:      "Approval requests submitted, by category.",
		}, []string{"category"}),
		LinesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "lines_appended_total",
			Help:      "Lines appended to pending requests by administrators.",
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "decisions_total",
			Help:      "Committed line decisions, by outcome.",
		}, []string{"outcome"}),
		RequestsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "requests_finalized_total",
			Help:      "Requests that reached a terminal status.",
		}, []string{"status"}),
		DecisionRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "operation_errors_total",
			Help:      "Workflow operations refused, by operation and error kind.",
		}, []string{"operation", "kind"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "notifications_failed_total",
			Help:      "Notification deliveries that failed, by event type.",
		}, []string{"event_type"}),
		NotificationsDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "approval",
			Name:      "notifications_dropped_total",
			Help:      "Events dropped because the dispatch queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RequestsSubmitted, m.LinesAppended, m.DecisionsTotal, m.RequestsFinalized,
			m.DecisionRejections, m.NotificationsFailed, m.NotificationsDrop,
		)
	}
	return m
}

func (m *Workflow) Submitted(category string) {
	if m == nil {
		return
	}
	m.RequestsSubmitted.WithLabelValues(category).Inc()
}

func (m *Workflow) Appended() {
	if m == nil {
		return
	}
	m.LinesAppended.Inc()
}

func (m *Workflow) Decided(outcome, finalStatus string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
	if finalStatus != "" {
		m.RequestsFinalized.WithLabelValues(finalStatus).Inc()
	}
}

func (m *Workflow) Refused(operation, kind string) {
	if m == nil {
		return
	}
	m.DecisionRejections.WithLabelValues(operation, kind).Inc()
}

func (m *Workflow) NotifyFailed(eventType string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(eventType).Inc()
}

func (m *Workflow) NotifyDropped() {
	if m == nil {
		return
	}
	m.NotificationsDrop.Inc()
}
