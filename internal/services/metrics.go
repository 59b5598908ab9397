package services

import "github.com/prometheus/client_golang/prometheus"

var (
	levelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasuki_level_ups_total",
			Help: "Trust level increases observed after a chat turn, by new level.",
		},
		[]string{"level"},
	)
	unlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasuki_unlocks_total",
			Help: "Characters unlocked through NFC tags.",
		},
	)
	sendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasuki_chat_send_failures_total",
			Help: "Chat turns that ended with the failed-to-send system message.",
		},
	)
)

func init() {
	prometheus.MustRegister(levelUps, unlocks, sendFailures)
}
