package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AppointmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "barbridge_appointments_created_total", Help: "Total appointments created"},
	)
	AppointmentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "barbridge_appointments_confirmed_total", Help: "Total appointments confirmed"},
	)
	AppointmentsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "barbridge_appointments_cancelled_total", Help: "Total appointments cancelled, declined, or ignored"},
	)
	CalendarSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "barbridge_calendar_syncs_total", Help: "Calendar sync attempts by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	NotificationsQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "barbridge_notifications_queued_total", Help: "Notification deliveries queued by channel"},
		[]string{"channel"},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(AppointmentsCreated, AppointmentsConfirmed, AppointmentsCancelled,
		CalendarSyncs, NotificationsQueued)
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
