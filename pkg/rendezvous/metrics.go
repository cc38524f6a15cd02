package rendezvous

import (
	"github.com/kingball/kingball/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	users   prometheus.Gauge
	rooms   prometheus.Gauge
	packets *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kingball", Subsystem: "rendezvous", Name: "users",
			Help: "Connected signaling clients.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kingball", Subsystem: "rendezvous", Name: "rooms",
			Help: "Rooms with at least one member.",
		}),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "rendezvous", Name: "packets_total",
			Help: "Received packets by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.users, m.rooms, m.packets)
	}
	return m
}

func (m *Metrics) connected(n int) { m.users.Add(float64(n)) }
func (m *Metrics) packet(t api.PT) {
	switch t {
	case api.JoinRoom, api.LeaveRoom, api.Signal, api.Broadcast:
	default:
		t = "unknown"
	}
	m.packets.WithLabelValues(t.String()).Inc()
}
