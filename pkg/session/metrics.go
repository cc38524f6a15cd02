package session

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	frames  prometheus.Counter
	steps   prometheus.Counter
	players prometheus.Gauge
	score   prometheus.Gauge
	kings   prometheus.Counter
	pushes  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "session", Name: "frames_total",
			Help: "Game loop frames.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "session", Name: "physics_steps_total",
			Help: "Fixed physics steps run by the game loop.",
		}),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kingball", Subsystem: "session", Name: "players",
			Help: "Players in the replica.",
		}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kingball", Subsystem: "session", Name: "local_score",
			Help: "Score of the local player.",
		}),
		kings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "session", Name: "king_changes_total",
			Help: "King zone transitions seen locally.",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kingball", Subsystem: "session", Name: "pushes_total",
			Help: "Pushes by origin.",
		}, []string{"origin"}),
	}
	if reg != nil {
		reg.MustRegister(m.frames, m.steps, m.players, m.score, m.kings, m.pushes)
	}
	return m
}
