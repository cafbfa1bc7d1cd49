package latches

import "github.com/prometheus/client_golang/prometheus"

var (
	waitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ember",
			Subsystem: "latches",
			Name:      "waits_count",
			Help:      "Counter of latch acquisitions that had to wait.",
		}, []string{"result"})

	waitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ember",
			Subsystem: "latches",
			Name:      "wait_duration_seconds",
			Help:      "Bucketed histogram of time (s) spent waiting for a latch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 13),
		})
)

func init() {
	prometheus.MustRegister(waitCounter)
	prometheus.MustRegister(waitDuration)
}
