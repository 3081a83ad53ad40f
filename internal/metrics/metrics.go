package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	startTime = time.Now()

	Uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "labyrinth_uptime_seconds",
			Help: "Server uptime in seconds",
		}, func() float64 {
			return time.Since(startTime).Seconds()
		})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "labyrinth_active_sessions",
			Help: "Current number of open client connections",
		},
	)

	TotalSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "labyrinth_sessions_total",
			Help: "Total number of client connections ever accepted",
		},
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labyrinth_session_duration_seconds",
			Help:    "Duration of client connections in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	Authentications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_authentications_total",
			Help: "Total number of successful sign-ins by kind (login, register)",
		},
		[]string{"kind"},
	)

	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_commands_total",
			Help: "Total number of handled commands by command and status code",
		},
		[]string{"command", "status"},
	)

	CommandLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labyrinth_command_latency_seconds",
			Help:    "Time spent handling a command, including the processing delay",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labyrinth_moves_total",
			Help: "Total number of movement attempts by outcome",
		},
		[]string{"outcome"},
	)

	Escapes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "labyrinth_escapes_total",
			Help: "Total number of walks that reached the exit",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors in the default registry. Calling it more
// than once is a no-op.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			Uptime,
			ActiveSessions,
			TotalSessions,
			SessionDuration,
			Authentications,
			Commands,
			CommandLatency,
			Moves,
			Escapes,
		)
	})
}
