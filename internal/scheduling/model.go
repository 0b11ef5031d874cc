package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "Scheduled"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"
)

type ConsultationMode string

const (
	ModeInPerson ConsultationMode = "in-person"
	ModeVideo    ConsultationMode = "video"
)

type LabStatus string

const (
	LabScheduled  LabStatus = "Scheduled"
	LabInProgress LabStatus = "In Progress"
	LabCompleted  LabStatus = "Completed"
)

type PrescriptionStatus string

const (
	RxOrdered    PrescriptionStatus = "Ordered"
	RxProcessing PrescriptionStatus = "Processing"
	RxReady      PrescriptionStatus = "Ready for Pickup"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patient carries both the internal id (foreign keys) and the public-facing
// patient code (PID-xxxxx) that the dialogue layer hands around.
type Patient struct {
	ID               uuid.UUID
	Code             string
	Name             string
	Email            string
	Phone            string
	Age              int
	Gender           string
	HealthConditions *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailabilitySlot is the atomic bookable unit. Date is YYYY-MM-DD and
// StartTime is HH:MM; both are kept as validated strings end to end since
// slots are calendar-local and never arithmetic on.
type AvailabilitySlot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	StartTime string
	Booked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID                 uuid.UUID
	PatientID          uuid.UUID
	DoctorID           uuid.UUID
	SlotID             uuid.UUID
	Reason             string
	Mode               ConsultationMode
	MeetingLink        *string
	Status             AppointmentStatus
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type LabRequest struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	TestName    string
	Status      LabStatus
	RequestedOn string
	CreatedAt   time.Time
}

type Prescription struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	Item           string
	Status         PrescriptionStatus
	PharmacistNote *string
	CreatedAt      time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AppointmentDetail is an appointment hydrated with its slot and parties,
// used by the dashboards and the patient record projection.
type AppointmentDetail struct {
	Appointment
	Slot    *AvailabilitySlot
	Patient *Patient
	Doctor  *Doctor
}

// LabRequestDetail and PrescriptionDetail hydrate the dashboard rows with the
// owning patient.
type LabRequestDetail struct {
	LabRequest
	Patient *Patient
}

type PrescriptionDetail struct {
	Prescription
	Patient *Patient
}

// RecordEntry is one line of the consolidated patient record.
type RecordEntry struct {
	Type   string  `json:"type"`
	Detail string  `json:"detail"`
	Date   string  `json:"date"`
	Time   string  `json:"time,omitempty"`
	Status string  `json:"status"`
	Link   *string `json:"link,omitempty"`
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD calendar date and returns its canonical form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return t.Format(dateLayout), nil
}

// ParseTimeOfDay validates an HH:MM time of day and returns its canonical form.
// Seconds are tolerated on input and truncated.
func ParseTimeOfDay(s string) (string, error) {
	if len(s) > 5 {
		s = s[:5]
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: time %q must be HH:MM", ErrValidation, s)
	}
	return t.Format(timeLayout), nil
}

// SlotKey identifies a bookable tuple for locking purposes.
func SlotKey(doctorID uuid.UUID, date, startTime string) string {
	return fmt.Sprintf("%s:%s:%s", doctorID, date, startTime)
}

func (m ConsultationMode) Valid() bool {
	return m == ModeInPerson || m == ModeVideo
}
