package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrLabRequestNotFound   = errors.New("lab request not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNoDoctors            = errors.New("no doctors exist")
	ErrEmailTaken           = errors.New("email already registered")
	ErrSlotTaken            = errors.New("slot already reserved")
	ErrValidation           = errors.New("validation failed")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Doctors (read-only from the core's perspective)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	FirstDoctor(ctx context.Context) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error)

	// Patients
	GetPatientByCode(ctx context.Context, code string) (*Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	// EnsurePatient resolves a patient by public code, creating the given
	// guest record when none exists. Safe under concurrent callers.
	EnsurePatient(ctx context.Context, guest Patient) (*Patient, error)

	// Slots. ReserveSlot is the critical section: it creates the slot already
	// reserved, or flips an open slot to reserved, as one atomic statement.
	// Returns ErrSlotTaken when the slot is already reserved.
	ListFreeSlotTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
	ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, startTime string) (uuid.UUID, error)
	ReserveSlotByID(ctx context.Context, slotID uuid.UUID) error
	ReleaseSlot(ctx context.Context, slotID uuid.UUID) error
	EnsureOpenSlots(ctx context.Context, doctorID uuid.UUID, date string, startTimes []string) (int, error)

	// Appointments
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus, cancellationReason *string) (*Appointment, error)
	SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error
	// CancelAppointment marks the appointment cancelled and releases its slot
	// in one transaction, so the booked flag and the appointment can never
	// disagree.
	CancelAppointment(ctx context.Context, id uuid.UUID, reason *string) (*Appointment, error)
	// ReinstateAppointment re-reserves the bound slot and moves a cancelled
	// appointment to the given status, clearing the cancellation reason.
	// Returns ErrSlotTaken when another booking claimed the slot meanwhile.
	ReinstateAppointment(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error)

	// Projections
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error)

	// Lab requests
	CreateLabRequest(ctx context.Context, patientID uuid.UUID, testName string) (*LabRequest, error)
	UpdateLabStatus(ctx context.Context, id uuid.UUID, status LabStatus) error
	ListLabRequestsByPatient(ctx context.Context, patientID uuid.UUID) ([]LabRequest, error)
	ListLabRequests(ctx context.Context) ([]LabRequestDetail, error)

	// Prescriptions
	CreatePrescription(ctx context.Context, patientID uuid.UUID, item string, status PrescriptionStatus) (*Prescription, error)
	UpdatePrescriptionStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error
	ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Prescription, error)
	ListPrescriptions(ctx context.Context) ([]PrescriptionDetail, error)

	// Audit log
	InsertEvent(ctx context.Context, ev EventLog) error
}
