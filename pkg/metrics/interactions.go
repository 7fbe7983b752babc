package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InteractionMetrics counts toggle outcomes by kind.
type InteractionMetrics struct {
	toggles *prometheus.CounterVec
}

func NewInteractionMetrics(reg prometheus.Registerer) *InteractionMetrics {
	if reg == nil {
		return &InteractionMetrics{}
	}
	return &InteractionMetrics{toggles: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "interaction",
		Name:      "toggles_total",
		Help:      "Interaction toggles by kind and resulting state.",
	}, []string{"kind", "state"})}
}

func (m *InteractionMetrics) IncToggle(kind string, active bool) {
	if m == nil || m.toggles == nil {
		return
	}
	state := "removed"
	if active {
		state = "added"
	}
	m.toggles.WithLabelValues(normalizeLabel(kind), state).Inc()
}
