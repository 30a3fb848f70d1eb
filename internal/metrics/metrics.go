package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_api_requests_total",
		Help: "Calls to the external ticketing API by operation and outcome",
	}, []string{"operation", "outcome"})

	APIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_api_request_duration_seconds",
		Help:    "Latency of calls to the external ticketing API",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_sessions_created_total",
		Help: "Booking sessions written before the payment redirect",
	})

	Materializations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_materializations_total",
		Help: "Materialization attempts by final session status",
	}, []string{"status"})

	PassengerBookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_passenger_bookings_total",
		Help: "Per-passenger booking calls by result (confirmed, stale, failed, skipped)",
	}, []string{"result"})
)
