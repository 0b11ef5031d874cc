package api

import (
	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduling/internal/scheduling"
)

type BookRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	Mode      string `json:"consultation_mode"`
}

type BookResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Status        string    `json:"status"`
	MeetingLink   *string   `json:"meeting_link,omitempty"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

type AvailabilityResponse struct {
	Doctor         DoctorResponse `json:"doctor"`
	AvailableSlots []string       `json:"available_slots"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type StatusUpdateRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	Status             string    `json:"status"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	MeetingLink        *string   `json:"meeting_link,omitempty"`
}

type RegisterPatientRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Age              int    `json:"age"`
	Gender           string `json:"gender"`
	Phone            string `json:"phone,omitempty"`
	HealthConditions string `json:"health_conditions,omitempty"`
}

type PatientResponse struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
}

type RecordsResponse struct {
	Records []scheduling.RecordEntry `json:"records"`
}

type LabBookRequest struct {
	PatientID string `json:"patient_id"`
	TestName  string `json:"test_name"`
}

type LabResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type OTCOrderRequest struct {
	PatientID string `json:"patient_id"`
}

type PrescriptionResponse struct {
	ID     uuid.UUID `json:"id"`
	Item   string    `json:"item"`
	Status string    `json:"status"`
}

// DashboardRow is the shared row shape for the staff dashboards.
type DashboardRow struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Date     string    `json:"date"`
	Time     string    `json:"time,omitempty"`
	Status   string    `json:"status"`
	Extra    string    `json:"extra,omitempty"`
}

type DashboardResponse struct {
	Records []DashboardRow `json:"records"`
	Role    string         `json:"role"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
