package journal

import "github.com/prometheus/client_golang/prometheus"

var (
	entryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ember",
			Subsystem: "journal",
			Name:      "entries_count",
			Help:      "Counter of entries appended to the journal.",
		}, []string{"opcode"})

	bytesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ember",
			Subsystem: "journal",
			Name:      "bytes_total",
			Help:      "Total serialized bytes appended to the journal.",
		})
)

func init() {
	prometheus.MustRegister(entryCounter)
	prometheus.MustRegister(bytesCounter)
}
