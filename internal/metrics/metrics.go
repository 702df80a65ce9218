package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czone_http_requests_total",
		Help: "HTTP requests served, by route pattern, method and status",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "czone_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	geocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czone_geocode_requests_total",
		Help: "Calls to the geocoding provider, by kind (forward, reverse) and outcome",
	}, []string{"kind", "outcome"})
)

func ObserveRequest(route, method, status string, d time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func ObserveGeocode(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	geocodeRequests.WithLabelValues(kind, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
