package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())

	m.ObserveBooking(OutcomeBooked)
	m.ObserveBooking(OutcomeConflict)
	m.ObserveBooking(OutcomeDoctorNotFound)
	m.ObserveBooking(OutcomeError)
	m.ObserveCancellation()
	m.ObserveProvisionLatency(0.25)
}

func TestBookingMetricsGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking(OutcomeBooked)
	m.ObserveBooking(OutcomeBooked)
	m.ObserveCancellation()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"scheduling_booking_attempts_total",
		"scheduling_booking_cancellations_total",
	} {
		if !found[name] {
			t.Errorf("expected metric family %s to be registered", name)
		}
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics

	// All observers must be no-ops on a nil receiver.
	m.ObserveBooking(OutcomeBooked)
	m.ObserveCancellation()
	m.ObserveProvisionLatency(1.0)
}
