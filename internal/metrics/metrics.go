package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medium_upstream_attempts_total",
			Help: "Total number of HTTP attempts against the Medium API",
		},
		[]string{"call", "outcome"}, // outcome: success|retryable|terminal
	)

	PublishResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medium_publish_results_total",
			Help: "Total number of publish invocations by result",
		},
		[]string{"result"}, // result: success|failure
	)

	Announcements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medium_announcements_total",
			Help: "Total number of post announcements by target",
		},
		[]string{"target", "status"}, // status: success|error
	)
)

func init() {
	prometheus.MustRegister(UpstreamAttempts, PublishResults, Announcements)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
