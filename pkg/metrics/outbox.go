package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutboxMetrics tracks relay delivery and notification fan-out.
type OutboxMetrics struct {
	delivered     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	factory := promauto.With(reg)
	return &OutboxMetrics{
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "delivered_total",
			Help:      "Outbox rows delivered by event type.",
		}, []string{"event_type"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Outbox delivery failures by event type and terminal flag.",
		}, []string{"event_type", "terminal"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications written by fan-out, by notification type.",
		}, []string{"type"}),
	}
}

func (m *OutboxMetrics) IncDelivered(eventType string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailed(eventType string, terminal bool) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType), strconv.FormatBool(terminal)).Inc()
}

func (m *OutboxMetrics) AddNotifications(notificationType string, n int) {
	if m == nil || m.notifications == nil || n <= 0 {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(notificationType)).Add(float64(n))
}
