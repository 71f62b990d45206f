package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard_client",
			Name:      "requests_total",
			Help:      "HTTP exchanges by method and status; status 0 is a network failure.",
		},
		[]string{"method", "status"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard_client",
			Name:      "refresh_total",
			Help:      "Token refresh network calls by outcome.",
		},
		[]string{"outcome"},
	)

	refreshWaitersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dashboard_client",
			Name:      "refresh_waiters_total",
			Help:      "Callers that attached to an in-flight refresh instead of starting one.",
		},
	)
)

func observeRequest(method string, status int) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
