package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling core.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal prometheus.Counter
	provisionerLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Appointment cancellations",
		}),
		provisionerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scheduling",
			Subsystem: "meeting",
			Name:      "provision_latency_seconds",
			Help:      "Latency of meeting link provisioning",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancellationsTotal, m.provisionerLatency)
	return m
}

// Booking outcomes.
const (
	OutcomeBooked         = "booked"
	OutcomeConflict       = "conflict"
	OutcomeDoctorNotFound = "doctor_not_found"
	OutcomeError          = "error"
)

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *BookingMetrics) ObserveProvisionLatency(seconds float64) {
	if m == nil {
		return
	}
	m.provisionerLatency.Observe(seconds)
}
