package mesh

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	links     prometheus.Gauge
	connected prometheus.Counter
	frames    *prometheus.CounterVec

	// negotiation payloads dropped because the rendezvous was gone
	lostSignals prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kingball", Subsystem: "mesh", Name: "links",
			Help: "Current peer links.",
		}),
		connected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "mesh", Name: "connections_total",
			Help: "Peer links that reached the connected state.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "mesh", Name: "frames_total",
			Help: "Peer frames by direction and type.",
		}, []string{"dir", "type"}),
		lostSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "mesh", Name: "lost_signals_total",
			Help: "Signals not sent while the rendezvous was closed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.links, m.connected, m.frames, m.lostSignals)
	}
	return m
}

func (m *Metrics) sent(t string, n int) {
	if n > 0 {
		m.frames.WithLabelValues("out", t).Add(float64(n))
	}
}

func (m *Metrics) received(t string) { m.frames.WithLabelValues("in", t).Inc() }
