package statesync

import "github.com/prometheus/client_golang/prometheus"

const (
	resultApplied = "applied"
	resultIgnored = "ignored"
)

type Metrics struct {
	sent    *prometheus.CounterVec
	folded  *prometheus.CounterVec
	stale   prometheus.Counter
	winners prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "sync", Name: "sent_total",
			Help: "State messages sent to peers.",
		}, []string{"type"}),
		folded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "sync", Name: "folded_total",
			Help: "State messages received by type and result.",
		}, []string{"type", "result"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "sync", Name: "stale_fields_total",
			Help: "Field values dropped as older than the applied ones.",
		}),
		winners: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "sync", Name: "winners_total",
			Help: "Winners seen.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sent, m.folded, m.stale, m.winners)
	}
	return m
}

func (m *Metrics) fold(t, result string) { m.folded.WithLabelValues(t, result).Inc() }
