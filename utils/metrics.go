package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// handler is the endpoint or component, type the error class
	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)

	JaapsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_jaaps_recorded_total",
			Help: "Total jaaps recorded across all accounts",
		},
	)

	SecondsTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_time_tracked_seconds_total",
			Help: "Total seconds of app usage recorded",
		},
	)

	AccountSwitches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_account_switches_total",
			Help: "Total account context switches",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(ReqCount, ReqDuration, ErrorCount, JaapsRecorded, SecondsTracked, AccountSwitches)
}
