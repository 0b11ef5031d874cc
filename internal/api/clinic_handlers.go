package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduling/internal/scheduling"
)

func registerPatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patient, err := svc.RegisterPatient(r.Context(), scheduling.RegisterPatientParams{
			Name:             req.Name,
			Email:            req.Email,
			Age:              req.Age,
			Gender:           req.Gender,
			Phone:            req.Phone,
			HealthConditions: req.HealthConditions,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PatientResponse{
			PatientID: patient.Code,
			Name:      patient.Name,
		})
	}
}

func lookupPatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeError(w, http.StatusBadRequest, "missing_email", "email query parameter is required")
			return
		}

		patient, err := svc.LookupPatient(r.Context(), email)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PatientResponse{
			PatientID: patient.Code,
			Name:      patient.Name,
		})
	}
}

func listDoctorsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.Doctors(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func doctorsBySpecialtyHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.DoctorsBySpecialty(r.Context(), chi.URLParam(r, "specialty"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
	}
}

func toDoctorResponses(doctors []scheduling.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, toDoctorResponse(d))
	}
	return out
}

func bookLabHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LabBookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		lab, err := svc.BookLab(r.Context(), req.PatientID, req.TestName)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, LabResponse{ID: lab.ID, Status: string(lab.Status)})
	}
}

func labStatusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_lab_id", "id must be a valid UUID")
			return
		}

		var req StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.SetLabStatus(r.Context(), id, scheduling.LabStatus(req.Status)); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, LabResponse{ID: id, Status: req.Status})
	}
}

func orderOTCHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OTCOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rx, err := svc.OrderOTC(r.Context(), req.PatientID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PrescriptionResponse{
			ID:     rx.ID,
			Item:   rx.Item,
			Status: string(rx.Status),
		})
	}
}

func prescriptionStatusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		var req StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.SetPrescriptionStatus(r.Context(), id, scheduling.PrescriptionStatus(req.Status)); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PrescriptionResponse{ID: id, Status: req.Status})
	}
}

func doctorDashboardHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		doctor, appts, err := svc.DoctorDashboard(r.Context(), doctorID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		rows := make([]DashboardRow, 0, len(appts))
		for _, a := range appts {
			row := DashboardRow{
				ID:       a.ID,
				Type:     "Appointment",
				Subtitle: "Reason: " + a.Reason,
				Status:   string(a.Status),
				Extra:    string(a.Mode),
			}
			if a.Patient != nil {
				row.Title = fmt.Sprintf("%s (%s)", a.Patient.Name, a.Patient.Code)
			}
			if a.Slot != nil {
				row.Date = a.Slot.Date
				row.Time = a.Slot.StartTime
			}
			rows = append(rows, row)
		}

		writeJSON(w, http.StatusOK, DashboardResponse{Records: rows, Role: "Dr. " + doctor.Name})
	}
}

func labDashboardHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labs, err := svc.LabDashboard(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		rows := make([]DashboardRow, 0, len(labs))
		for _, l := range labs {
			row := DashboardRow{
				ID:       l.ID,
				Type:     "Lab Test",
				Subtitle: l.TestName,
				Date:     l.RequestedOn,
				Status:   string(l.Status),
			}
			if l.Patient != nil {
				row.Title = l.Patient.Name
			}
			rows = append(rows, row)
		}

		writeJSON(w, http.StatusOK, DashboardResponse{Records: rows, Role: "Central Lab"})
	}
}

func pharmacyDashboardHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scripts, err := svc.PharmacyDashboard(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		rows := make([]DashboardRow, 0, len(scripts))
		for _, rx := range scripts {
			row := DashboardRow{
				ID:       rx.ID,
				Type:     "Pharmacy",
				Subtitle: rx.Item,
				Date:     rx.CreatedAt.Format("2006-01-02"),
				Status:   string(rx.Status),
			}
			if rx.Patient != nil {
				row.Title = rx.Patient.Name
			}
			rows = append(rows, row)
		}

		writeJSON(w, http.StatusOK, DashboardResponse{Records: rows, Role: "Pharmacy"})
	}
}
