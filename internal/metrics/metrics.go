package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestay_bookings_created_total",
		Help: "The total number of bookings created",
	})
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homestay_booking_conflicts_total",
		Help: "The total number of booking attempts rejected because the dates overlap",
	})
	BookingsVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_bookings_verified_total",
		Help: "The total number of bookings confirmed through a verification credential",
	}, []string{"credential"})
	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_payment_transitions_total",
		Help: "The total number of payment status transitions by target status",
	}, []string{"status"})
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestay_notification_failures_total",
		Help: "The total number of notifications that could not be dispatched",
	}, []string{"kind"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homestay_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
