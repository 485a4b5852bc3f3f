package chat

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyojeong_chat_turns_total",
		Help: "Chat turns by mode (sync, stream) and outcome (ok, error, abandoned).",
	}, []string{"mode", "outcome"})

	turnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gyojeong_chat_turn_duration_seconds",
		Help:    "Wall time of a chat turn.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"mode"})
)

func observeTurn(mode string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrEmit):
		outcome = "abandoned"
	default:
		outcome = "error"
	}
	turnsTotal.WithLabelValues(mode, outcome).Inc()
	turnDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
