package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduling/internal/meeting"
	"github.com/carebridge/patient-scheduling/internal/metrics"
	redisclient "github.com/carebridge/patient-scheduling/internal/redis"
)

const (
	EventAppointmentBooked     = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled  = "APPOINTMENT_CANCELLED"
	EventAppointmentReinstated = "APPOINTMENT_REINSTATED"
	EventStatusChanged         = "APPOINTMENT_STATUS_CHANGED"
)

var (
	ErrSlotContended = errors.New("slot is currently being booked, please retry")
)

// Guest patient defaults, applied when an external patient code shows up
// without a prior registration.
const (
	guestName   = "Guest User"
	guestPhone  = "000"
	guestGender = "U"
)

type Service struct {
	repo        Repository
	locker      redisclient.Locker
	provisioner meeting.Provisioner
	metrics     *metrics.BookingMetrics
	provTimeout time.Duration
}

func NewService(repo Repository, locker redisclient.Locker, prov meeting.Provisioner, m *metrics.BookingMetrics, provTimeout time.Duration) *Service {
	if provTimeout <= 0 {
		provTimeout = 5 * time.Second
	}
	return &Service{
		repo:        repo,
		locker:      locker,
		provisioner: prov,
		metrics:     m,
		provTimeout: provTimeout,
	}
}

// ListFreeSlots returns the open times for a doctor on a date, ascending.
// When the doctor id is unknown it falls back to an arbitrary existing doctor
// and reports which one was used; only an empty doctor table is an error.
func (s *Service) ListFreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*Doctor, []string, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, nil, err
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if errors.Is(err, ErrDoctorNotFound) {
		doctor, err = s.repo.FirstDoctor(ctx)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve doctor: %w", err)
	}

	times, err := s.repo.ListFreeSlotTimes(ctx, doctor.ID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("list free slots: %w", err)
	}
	return doctor, times, nil
}

type BookingRequest struct {
	PatientCode string
	DoctorID    uuid.UUID
	Date        string
	StartTime   string
	Reason      string
	Mode        ConsultationMode
}

type BookingResult struct {
	Appointment *Appointment
	MeetingLink *string
}

// Book reserves the (doctor, date, time) slot and creates the appointment.
// The reservation is the critical section: it runs under the per-slot Redis
// lock, and the underlying conditional upsert guarantees a single winner even
// if the lock is unavailable. Meeting provisioning happens afterwards and can
// only degrade the link, never the booking.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	startTime, err := ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = ModeInPerson
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: mode %q must be in-person or video", ErrValidation, req.Mode)
	}
	if strings.TrimSpace(req.PatientCode) == "" {
		return nil, fmt.Errorf("%w: patient code is required", ErrValidation)
	}

	// Strict doctor check: booking must never be routed to a substitute
	// physician the way availability lookups are.
	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			s.metrics.ObserveBooking(metrics.OutcomeDoctorNotFound)
			return nil, err
		}
		s.metrics.ObserveBooking(metrics.OutcomeError)
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	patient, err := s.repo.EnsurePatient(ctx, Patient{
		Code:   req.PatientCode,
		Name:   guestName,
		Email:  fmt.Sprintf("%s@guest.com", req.PatientCode),
		Phone:  guestPhone,
		Gender: guestGender,
	})
	if err != nil {
		s.metrics.ObserveBooking(metrics.OutcomeError)
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, SlotKey(doctor.ID, date, startTime), func(lockCtx context.Context) error {
		slotID, err := s.repo.ReserveSlot(lockCtx, doctor.ID, date, startTime)
		if err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			SlotID:    slotID,
			Reason:    req.Reason,
			Mode:      req.Mode,
			Status:    StatusScheduled,
		})
		if err != nil {
			// Best effort: free the slot again so a failed insert does not
			// strand a reservation.
			if relErr := s.repo.ReleaseSlot(lockCtx, slotID); relErr != nil {
				log.Printf("release slot %s after failed appointment insert: %v", slotID, relErr)
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":    doctor.ID.String(),
			"patient_code": patient.Code,
			"date":         date,
			"time":         startTime,
			"mode":         string(req.Mode),
		})
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.metrics.ObserveBooking(metrics.OutcomeConflict)
			return nil, ErrSlotContended
		case errors.Is(err, ErrSlotTaken):
			s.metrics.ObserveBooking(metrics.OutcomeConflict)
			return nil, err
		default:
			s.metrics.ObserveBooking(metrics.OutcomeError)
			return nil, err
		}
	}

	result := &BookingResult{Appointment: created}

	if req.Mode == ModeVideo {
		link := s.provisionLink(ctx, doctor, date, startTime)
		if err := s.repo.SetMeetingLink(ctx, created.ID, link); err != nil {
			log.Printf("store meeting link for appointment %s: %v", created.ID, err)
		}
		created.MeetingLink = &link
		result.MeetingLink = &link
	}

	s.metrics.ObserveBooking(metrics.OutcomeBooked)
	return result, nil
}

// provisionLink asks the external provisioner for a join link, bounded by a
// short timeout. Any failure degrades to the fallback link.
func (s *Service) provisionLink(ctx context.Context, doctor *Doctor, date, startTime string) string {
	startAt, err := time.Parse("2006-01-02 15:04", date+" "+startTime)
	if err != nil {
		// Both parts were validated already; keep the booking alive regardless.
		startAt = time.Now()
	}

	provCtx, cancel := context.WithTimeout(ctx, s.provTimeout)
	defer cancel()

	topic := "Consultation with Dr. " + stripDoctorPrefix(doctor.Name)

	begin := time.Now()
	link, err := s.provisioner.CreateLink(provCtx, topic, startAt)
	s.metrics.ObserveProvisionLatency(time.Since(begin).Seconds())
	if err != nil {
		log.Printf("meeting provisioner failed, using fallback link: %v", err)
		return meeting.FallbackLink
	}
	return link
}

// Cancel moves an appointment to Cancelled and frees its slot. Cancelling an
// already-cancelled appointment is a no-op success.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason *string) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status == StatusCancelled {
		return nil
	}

	if _, err := s.repo.CancelAppointment(ctx, id, reason); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.metrics.ObserveCancellation()
	payload := map[string]any{}
	if reason != nil {
		payload["reason"] = *reason
	}
	s.logEvent(ctx, id, EventAppointmentCancelled, payload)
	return nil
}

// SetStatus generalizes cancellation to arbitrary transitions. Moving away
// from Cancelled re-reserves the slot and fails with ErrSlotTaken when another
// booking claimed it in the interim; moving to Cancelled releases the slot.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus, reason *string) (*Appointment, error) {
	if strings.TrimSpace(string(status)) == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case status == StatusCancelled:
		if appt.Status == StatusCancelled {
			return appt, nil
		}
		updated, err := s.repo.CancelAppointment(ctx, id, reason)
		if err != nil {
			return nil, fmt.Errorf("cancel appointment: %w", err)
		}
		s.metrics.ObserveCancellation()
		s.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{})
		return updated, nil

	case appt.Status == StatusCancelled:
		updated, err := s.repo.ReinstateAppointment(ctx, id, status)
		if err != nil {
			return nil, err
		}
		s.logEvent(ctx, id, EventAppointmentReinstated, map[string]any{"status": string(status)})
		return updated, nil

	default:
		// Plain transition between non-cancelled states; the slot stays
		// reserved and no cancellation reason applies.
		updated, err := s.repo.UpdateAppointmentStatus(ctx, id, status, nil)
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
		s.logEvent(ctx, id, EventStatusChanged, map[string]any{"status": string(status)})
		return updated, nil
	}
}

// PatientRecord merges appointments, lab requests and prescriptions for a
// patient, newest first within each type. Unknown patients yield an empty
// record rather than an error.
func (s *Service) PatientRecord(ctx context.Context, code string) ([]RecordEntry, error) {
	patient, err := s.repo.GetPatientByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return []RecordEntry{}, nil
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	appts, err := s.repo.ListAppointmentsByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	labs, err := s.repo.ListLabRequestsByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("list lab requests: %w", err)
	}
	scripts, err := s.repo.ListPrescriptionsByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}

	entries := make([]RecordEntry, 0, len(appts)+len(labs)+len(scripts))
	for _, a := range appts {
		docName := "Doctor"
		if a.Doctor != nil {
			docName = stripDoctorPrefix(a.Doctor.Name)
		}
		entry := RecordEntry{
			Type:   "Appointment",
			Detail: fmt.Sprintf("Dr. %s (%s)", docName, a.Reason),
			Status: string(a.Status),
			Link:   a.MeetingLink,
		}
		if a.Slot != nil {
			entry.Date = a.Slot.Date
			entry.Time = a.Slot.StartTime
		}
		entries = append(entries, entry)
	}
	for _, l := range labs {
		entries = append(entries, RecordEntry{
			Type:   "Lab Test",
			Detail: l.TestName,
			Date:   l.RequestedOn,
			Status: string(l.Status),
		})
	}
	for _, rx := range scripts {
		entries = append(entries, RecordEntry{
			Type:   "Medicine Order",
			Detail: rx.Item,
			Date:   rx.CreatedAt.Format("2006-01-02"),
			Status: string(rx.Status),
		})
	}
	return entries, nil
}

type RegisterPatientParams struct {
	Name             string
	Email            string
	Age              int
	Gender           string
	Phone            string
	HealthConditions string
}

// RegisterPatient creates a patient with a fresh public code. Duplicate
// emails surface as ErrEmailTaken.
func (s *Service) RegisterPatient(ctx context.Context, p RegisterPatientParams) (*Patient, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", ErrValidation, p.Email)
	}
	if p.Phone == "" {
		p.Phone = "0000000000"
	}
	if p.HealthConditions == "" {
		p.HealthConditions = "None"
	}

	created, err := s.repo.CreatePatient(ctx, Patient{
		Code:             newPatientCode(),
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		Age:              p.Age,
		Gender:           p.Gender,
		HealthConditions: &p.HealthConditions,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) LookupPatient(ctx context.Context, email string) (*Patient, error) {
	return s.repo.GetPatientByEmail(ctx, email)
}

func (s *Service) Doctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

// DoctorsBySpecialty matches case-insensitively on a substring; an empty
// match falls back to the full directory so the dialogue layer always has
// choices to present.
func (s *Service) DoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	docs, err := s.repo.ListDoctorsBySpecialty(ctx, specialty)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return s.repo.ListDoctors(ctx)
	}
	return docs, nil
}

// BookLab schedules a lab test. Unlike booking, labs require a registered
// patient.
func (s *Service) BookLab(ctx context.Context, patientCode, testName string) (*LabRequest, error) {
	if strings.TrimSpace(testName) == "" {
		return nil, fmt.Errorf("%w: test name is required", ErrValidation)
	}
	patient, err := s.repo.GetPatientByCode(ctx, patientCode)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateLabRequest(ctx, patient.ID, testName)
}

func (s *Service) SetLabStatus(ctx context.Context, id uuid.UUID, status LabStatus) error {
	return s.repo.UpdateLabStatus(ctx, id, status)
}

// OrderOTC creates an over-the-counter medicine order, auto-provisioning a
// guest patient when the code is unknown.
func (s *Service) OrderOTC(ctx context.Context, patientCode string) (*Prescription, error) {
	if strings.TrimSpace(patientCode) == "" {
		return nil, fmt.Errorf("%w: patient code is required", ErrValidation)
	}
	patient, err := s.repo.EnsurePatient(ctx, Patient{
		Code:   patientCode,
		Name:   guestName,
		Email:  fmt.Sprintf("%s@guest.com", patientCode),
		Phone:  guestPhone,
		Gender: guestGender,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	return s.repo.CreatePrescription(ctx, patient.ID, "OTC Medicines Kit", RxOrdered)
}

func (s *Service) SetPrescriptionStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error {
	return s.repo.UpdatePrescriptionStatus(ctx, id, status)
}

// Dashboards

func (s *Service) DoctorDashboard(ctx context.Context, doctorID uuid.UUID) (*Doctor, []AppointmentDetail, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}
	appts, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return doctor, appts, nil
}

func (s *Service) LabDashboard(ctx context.Context) ([]LabRequestDetail, error) {
	return s.repo.ListLabRequests(ctx)
}

func (s *Service) PharmacyDashboard(ctx context.Context) ([]PrescriptionDetail, error) {
	return s.repo.ListPrescriptions(ctx)
}

// MaintainSchedule tops up open hourly slots for every doctor over the next
// windowDays days. Inserts are idempotent, so it is safe to run repeatedly.
func (s *Service) MaintainSchedule(ctx context.Context, windowDays, startHour, endHour int) (int, error) {
	if windowDays <= 0 || endHour <= startHour {
		return 0, fmt.Errorf("%w: bad schedule window", ErrValidation)
	}

	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return 0, fmt.Errorf("list doctors: %w", err)
	}

	times := make([]string, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		times = append(times, fmt.Sprintf("%02d:00", h))
	}

	today := time.Now()
	created := 0
	for _, doc := range doctors {
		for i := 0; i < windowDays; i++ {
			date := today.AddDate(0, 0, i).Format("2006-01-02")
			n, err := s.repo.EnsureOpenSlots(ctx, doc.ID, date, times)
			created += n
			if err != nil {
				return created, fmt.Errorf("ensure slots for doctor %s: %w", doc.ID, err)
			}
		}
	}
	return created, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}

func newPatientCode() string {
	return fmt.Sprintf("PID-%05d", rand.IntN(90000)+10000)
}

func stripDoctorPrefix(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "Dr. ")
	name = strings.TrimPrefix(name, "Dr.")
	return strings.TrimSpace(name)
}
