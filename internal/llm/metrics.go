package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gyojeong_llm_requests_total",
		Help: "LLM calls by mode (complete, stream) and outcome (ok, error).",
	}, []string{"mode", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gyojeong_llm_request_duration_seconds",
		Help:    "LLM call latency; for streams, until the last chunk.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"mode"})
)

func observe(mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(mode, outcome).Inc()
	requestDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
