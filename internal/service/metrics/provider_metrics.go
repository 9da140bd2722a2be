package metrics

import (
    "strconv"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ProviderLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "stockbrief",
            Subsystem: "provider",
            Name:      "latency_seconds",
            Help:      "Latency of calls to external providers",
            Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
        },
        []string{"provider"},
    )

    ProviderRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "stockbrief",
            Subsystem: "provider",
            Name:      "requests_total",
            Help:      "Calls to external providers by status code (0 = transport error)",
        },
        []string{"provider", "code"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(ProviderLatency, ProviderRequests)
    })
}

// Observe matches pkg/http.Observer so it can be handed to every provider client.
func Observe(provider string, status int, elapsed time.Duration, _ error) {
    ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
    ProviderRequests.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}
