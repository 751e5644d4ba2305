package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Accounts created",
	})
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warbler_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	messagesPostedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_messages_posted_total",
		Help: "Messages created",
	})
	likesToggledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warbler_likes_toggled_total",
			Help: "Like toggles by outcome",
		},
		[]string{"outcome"},
	)
)

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		// label values outlive the request, so they must not alias its buffers
		method := utils.CopyString(c.Method())
		// route pattern such as /users/:id<int>
		path := utils.CopyString(c.Route().Path)
		statusStr := strconv.Itoa(statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
