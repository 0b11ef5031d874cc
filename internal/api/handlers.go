package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduling/internal/scheduling"
)

// Service is the scheduling surface the HTTP layer depends on. Declared here
// so handler tests can stub it.
type Service interface {
	ListFreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*scheduling.Doctor, []string, error)
	Book(ctx context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error)
	Cancel(ctx context.Context, id uuid.UUID, reason *string) error
	SetStatus(ctx context.Context, id uuid.UUID, status scheduling.AppointmentStatus, reason *string) (*scheduling.Appointment, error)
	PatientRecord(ctx context.Context, code string) ([]scheduling.RecordEntry, error)

	RegisterPatient(ctx context.Context, p scheduling.RegisterPatientParams) (*scheduling.Patient, error)
	LookupPatient(ctx context.Context, email string) (*scheduling.Patient, error)
	Doctors(ctx context.Context) ([]scheduling.Doctor, error)
	DoctorsBySpecialty(ctx context.Context, specialty string) ([]scheduling.Doctor, error)

	BookLab(ctx context.Context, patientCode, testName string) (*scheduling.LabRequest, error)
	SetLabStatus(ctx context.Context, id uuid.UUID, status scheduling.LabStatus) error
	OrderOTC(ctx context.Context, patientCode string) (*scheduling.Prescription, error)
	SetPrescriptionStatus(ctx context.Context, id uuid.UUID, status scheduling.PrescriptionStatus) error

	DoctorDashboard(ctx context.Context, doctorID uuid.UUID) (*scheduling.Doctor, []scheduling.AppointmentDetail, error)
	LabDashboard(ctx context.Context) ([]scheduling.LabRequestDetail, error)
	PharmacyDashboard(ctx context.Context) ([]scheduling.PrescriptionDetail, error)
}

func availabilityHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		doctor, times, err := svc.ListFreeSlots(r.Context(), doctorID, chi.URLParam(r, "date"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		if times == nil {
			times = []string{}
		}
		writeJSON(w, http.StatusOK, AvailabilityResponse{
			Doctor:         toDoctorResponse(*doctor),
			AvailableSlots: times,
		})
	}
}

func bookHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		result, err := svc.Book(r.Context(), scheduling.BookingRequest{
			PatientCode: req.PatientID,
			DoctorID:    doctorID,
			Date:        req.Date,
			StartTime:   req.Time,
			Reason:      req.Reason,
			Mode:        scheduling.ConsultationMode(req.Mode),
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookResponse{
			AppointmentID: result.Appointment.ID,
			Status:        string(result.Appointment.Status),
			MeetingLink:   result.MeetingLink,
		})
	}
}

func cancelHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		if err := svc.Cancel(r.Context(), id, req.Reason); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{
			ID:                 id,
			Status:             string(scheduling.StatusCancelled),
			CancellationReason: req.Reason,
		})
	}
}

func statusUpdateHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.SetStatus(r.Context(), id, scheduling.AppointmentStatus(req.Status), req.Reason)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{
			ID:                 appt.ID,
			Status:             string(appt.Status),
			CancellationReason: appt.CancellationReason,
			MeetingLink:        appt.MeetingLink,
		})
	}
}

func patientRecordHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.PatientRecord(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RecordsResponse{Records: records})
	}
}

func toDoctorResponse(d scheduling.Doctor) DoctorResponse {
	return DoctorResponse{ID: d.ID, Name: d.Name, Specialty: d.Specialty}
}

// handleServiceError maps the scheduling error taxonomy onto HTTP statuses:
// validation 400, missing entities 404, conflicts 409, everything else 500.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrLabRequestNotFound):
		writeError(w, http.StatusNotFound, "lab_request_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, scheduling.ErrNoDoctors):
		writeError(w, http.StatusNotFound, "no_doctors", err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_unavailable", "that time was just taken, please pick a different slot")
	case errors.Is(err, scheduling.ErrSlotContended):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
