package policy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "policy",
		Subsystem: "decisions",
		Name:      "requests_total",
		Help:      "Total number of policy decisions broken down by action and result.",
	}, []string{"action", "result"})

	decisionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "policy",
		Subsystem: "decisions",
		Name:      "latency_seconds",
		Help:      "Latency distribution for policy decisions.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
			0.2, 0.5, 1, 2,
		},
	}, []string{"action", "result"})

	depthCapHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "policy",
		Subsystem: "hierarchy",
		Name:      "depth_cap_hits_total",
		Help:      "Hierarchy traversals truncated by the depth cap, indicating cyclic manager data.",
	}, []string{"direction"})
)

func recordDecisionMetrics(action Action, allowed bool, latency time.Duration) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	labels := prometheus.Labels{
		"action": string(action),
		"result": result,
	}
	decisionRequests.With(labels).Inc()
	decisionLatency.With(labels).Observe(latency.Seconds())
}

func recordDepthCapHit(direction string) {
	depthCapHits.With(prometheus.Labels{"direction": direction}).Inc()
}
