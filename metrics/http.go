// Package metrics has prometheus metric variables/functions shared between
// packages.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricHTTPServer = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "addrlist_httpserver_request_duration_seconds",
		Help:    "HTTP server requests, by handler, method, code and result.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5, 10},
	},
	[]string{
		"handler",
		"method",
		"code",
		"result",
	},
)

// HTTPResult returns the result label for an HTTP status code.
func HTTPResult(statusCode int) string {
	switch statusCode / 100 {
	case 2, 3:
		return "ok"
	case 4:
		return "usererror"
	case 5:
		return "servererror"
	}
	return "other"
}

// HTTPServerObserve tracks a handled HTTP request in a metric.
func HTTPServerObserve(handler, method string, statusCode int, start time.Time) {
	metricHTTPServer.WithLabelValues(handler, method, fmt.Sprintf("%d", statusCode), HTTPResult(statusCode)).Observe(float64(time.Since(start)) / float64(time.Second))
}
