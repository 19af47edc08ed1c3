// Package metrics defines the portal's Prometheus metrics. They are registered with the
// default registry on package init and served by Handler.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrimech"

// AuthAttemptsTotal counts login attempts.
// Labels:
//   - principal: "user" or "admin"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by principal and result.",
	},
	[]string{"principal", "result"},
)

// WebinarRegistrationsTotal counts webinar registration outcomes.
// Label:
//   - result: "success" or the error kind (e.g. "full", "already_registered")
var WebinarRegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webinar_registrations_total",
		Help:      "Total number of webinar registration attempts, by result.",
	},
	[]string{"result"},
)

// EmailsTotal counts processed email jobs.
var EmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Total number of email deliveries, by email type and status.",
	},
	[]string{"type", "status"},
)

// ResourceDownloadsTotal counts served downloads.
// Label:
//   - kind: "webinar_resource", "library_resource" or "recording"
var ResourceDownloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_downloads_total",
		Help:      "Total number of resource downloads and recording views.",
	},
	[]string{"kind"},
)

// HTTPRequestDuration measures request latency by route template.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Result is a label helper: "success" for ok, otherwise the given failure label.
func Result(ok bool, failure string) string {
	if ok {
		return "success"
	}
	return failure
}

// Middleware observes HTTPRequestDuration. Unmatched routes are grouped under "unmatched".
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
