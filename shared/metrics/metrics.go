package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealer_api"

var (
	// LoginAttemptCounter counts logins by outcome
	LoginAttemptCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"result"},
	)

	// AuthDeniedCounter counts requests rejected by the auth middleware
	AuthDeniedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_denied_total",
			Help:      "Total number of requests rejected by authentication or authorization",
		},
		[]string{"reason"},
	)

	// VisitCounter counts recorded tracking-link visits
	VisitCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_recorded_total",
			Help:      "Total number of tracking link visits by store",
		},
		[]string{"store", "result"},
	)

	// EventsDroppedCounter counts visit events dropped because the queue was full
	EventsDroppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "visit_events_dropped_total",
		Help:      "Total number of visit events dropped before publishing",
	})

	// RequestDurationHistogram tracks request latency
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APIErrorCounter counts responses with an error status
	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware tracks request metrics
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
			"status": status,
		}

		RequestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			APIErrorCounter.With(labels).Inc()
		}
	}
}

// Handler serves the Prometheus scrape endpoint
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordLogin(result string) {
	LoginAttemptCounter.With(prometheus.Labels{"result": result}).Inc()
}

func RecordDenied(reason string) {
	AuthDeniedCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

func RecordVisit(store string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	VisitCounter.With(prometheus.Labels{"store": store, "result": result}).Inc()
}
