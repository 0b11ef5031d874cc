package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/patient-scheduling/internal/scheduling"
)

// stubService lets each test plug in just the methods it exercises.
type stubService struct {
	listFreeSlots      func(ctx context.Context, doctorID uuid.UUID, date string) (*scheduling.Doctor, []string, error)
	book               func(ctx context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error)
	cancel             func(ctx context.Context, id uuid.UUID, reason *string) error
	setStatus          func(ctx context.Context, id uuid.UUID, status scheduling.AppointmentStatus, reason *string) (*scheduling.Appointment, error)
	patientRecord      func(ctx context.Context, code string) ([]scheduling.RecordEntry, error)
	registerPatient    func(ctx context.Context, p scheduling.RegisterPatientParams) (*scheduling.Patient, error)
	lookupPatient      func(ctx context.Context, email string) (*scheduling.Patient, error)
	doctors            func(ctx context.Context) ([]scheduling.Doctor, error)
	doctorsBySpecialty func(ctx context.Context, specialty string) ([]scheduling.Doctor, error)
	bookLab            func(ctx context.Context, patientCode, testName string) (*scheduling.LabRequest, error)
	setLabStatus       func(ctx context.Context, id uuid.UUID, status scheduling.LabStatus) error
	orderOTC           func(ctx context.Context, patientCode string) (*scheduling.Prescription, error)
	setRxStatus        func(ctx context.Context, id uuid.UUID, status scheduling.PrescriptionStatus) error
	doctorDashboard    func(ctx context.Context, doctorID uuid.UUID) (*scheduling.Doctor, []scheduling.AppointmentDetail, error)
	labDashboard       func(ctx context.Context) ([]scheduling.LabRequestDetail, error)
	pharmacyDashboard  func(ctx context.Context) ([]scheduling.PrescriptionDetail, error)
}

func (s *stubService) ListFreeSlots(ctx context.Context, doctorID uuid.UUID, date string) (*scheduling.Doctor, []string, error) {
	return s.listFreeSlots(ctx, doctorID, date)
}

func (s *stubService) Book(ctx context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error) {
	return s.book(ctx, req)
}

func (s *stubService) Cancel(ctx context.Context, id uuid.UUID, reason *string) error {
	return s.cancel(ctx, id, reason)
}

func (s *stubService) SetStatus(ctx context.Context, id uuid.UUID, status scheduling.AppointmentStatus, reason *string) (*scheduling.Appointment, error) {
	return s.setStatus(ctx, id, status, reason)
}

func (s *stubService) PatientRecord(ctx context.Context, code string) ([]scheduling.RecordEntry, error) {
	return s.patientRecord(ctx, code)
}

func (s *stubService) RegisterPatient(ctx context.Context, p scheduling.RegisterPatientParams) (*scheduling.Patient, error) {
	return s.registerPatient(ctx, p)
}

func (s *stubService) LookupPatient(ctx context.Context, email string) (*scheduling.Patient, error) {
	return s.lookupPatient(ctx, email)
}

func (s *stubService) Doctors(ctx context.Context) ([]scheduling.Doctor, error) {
	return s.doctors(ctx)
}

func (s *stubService) DoctorsBySpecialty(ctx context.Context, specialty string) ([]scheduling.Doctor, error) {
	return s.doctorsBySpecialty(ctx, specialty)
}

func (s *stubService) BookLab(ctx context.Context, patientCode, testName string) (*scheduling.LabRequest, error) {
	return s.bookLab(ctx, patientCode, testName)
}

func (s *stubService) SetLabStatus(ctx context.Context, id uuid.UUID, status scheduling.LabStatus) error {
	return s.setLabStatus(ctx, id, status)
}

func (s *stubService) OrderOTC(ctx context.Context, patientCode string) (*scheduling.Prescription, error) {
	return s.orderOTC(ctx, patientCode)
}

func (s *stubService) SetPrescriptionStatus(ctx context.Context, id uuid.UUID, status scheduling.PrescriptionStatus) error {
	return s.setRxStatus(ctx, id, status)
}

func (s *stubService) DoctorDashboard(ctx context.Context, doctorID uuid.UUID) (*scheduling.Doctor, []scheduling.AppointmentDetail, error) {
	return s.doctorDashboard(ctx, doctorID)
}

func (s *stubService) LabDashboard(ctx context.Context) ([]scheduling.LabRequestDetail, error) {
	return s.labDashboard(ctx)
}

func (s *stubService) PharmacyDashboard(ctx context.Context) ([]scheduling.PrescriptionDetail, error) {
	return s.pharmacyDashboard(ctx)
}

func newTestRouter(svc Service) http.Handler {
	return NewRouter(RouterConfig{Service: svc, Env: "test", Version: "test"})
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAvailabilityEndpoint(t *testing.T) {
	doc := scheduling.Doctor{ID: uuid.New(), Name: "Sarah Smith", Specialty: "Cardiology"}
	svc := &stubService{
		listFreeSlots: func(_ context.Context, doctorID uuid.UUID, date string) (*scheduling.Doctor, []string, error) {
			assert.Equal(t, doc.ID, doctorID)
			assert.Equal(t, "2025-06-01", date)
			return &doc, []string{"09:00", "10:00"}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/availability/"+doc.ID.String()+"/2025-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[AvailabilityResponse](t, rec)
	assert.Equal(t, "Sarah Smith", resp.Doctor.Name)
	assert.Equal(t, []string{"09:00", "10:00"}, resp.AvailableSlots)
}

func TestAvailabilityRejectsBadDoctorID(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubService{}), http.MethodGet, "/availability/not-a-uuid/2025-06-01", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_doctor_id", resp.Error)
}

func TestAvailabilityEmptySlotsSerializesAsEmptyArray(t *testing.T) {
	doc := scheduling.Doctor{ID: uuid.New(), Name: "Sarah Smith"}
	svc := &stubService{
		listFreeSlots: func(context.Context, uuid.UUID, string) (*scheduling.Doctor, []string, error) {
			return &doc, nil, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/availability/"+doc.ID.String()+"/2025-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available_slots":[]`)
}

func TestBookEndpoint(t *testing.T) {
	apptID := uuid.New()
	doctorID := uuid.New()
	link := "https://example.com/join/abc"

	svc := &stubService{
		book: func(_ context.Context, req scheduling.BookingRequest) (*scheduling.BookingResult, error) {
			assert.Equal(t, "PID-12345", req.PatientCode)
			assert.Equal(t, doctorID, req.DoctorID)
			assert.Equal(t, scheduling.ModeVideo, req.Mode)
			return &scheduling.BookingResult{
				Appointment: &scheduling.Appointment{ID: apptID, Status: scheduling.StatusScheduled},
				MeetingLink: &link,
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments", BookRequest{
		PatientID: "PID-12345",
		DoctorID:  doctorID.String(),
		Date:      "2025-06-01",
		Time:      "09:00",
		Reason:    "checkup",
		Mode:      "video",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[BookResponse](t, rec)
	assert.Equal(t, apptID, resp.AppointmentID)
	assert.Equal(t, "Scheduled", resp.Status)
	require.NotNil(t, resp.MeetingLink)
	assert.Equal(t, link, *resp.MeetingLink)
}

func TestBookErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot taken", scheduling.ErrSlotTaken, http.StatusConflict, "slot_unavailable"},
		{"slot contended", scheduling.ErrSlotContended, http.StatusConflict, "slot_being_booked"},
		{"doctor missing", scheduling.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
		{"validation", scheduling.ErrValidation, http.StatusBadRequest, "validation_error"},
		{"internal", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{
				book: func(context.Context, scheduling.BookingRequest) (*scheduling.BookingResult, error) {
					return nil, tc.err
				},
			}
			rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments", BookRequest{
				PatientID: "PID-1",
				DoctorID:  uuid.NewString(),
				Date:      "2025-06-01",
				Time:      "09:00",
			})
			require.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, tc.wantCode, resp.Error)
		})
	}
}

func TestBookRejectsMalformedInput(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/appointments", BookRequest{
		PatientID: "PID-1",
		DoctorID:  "nope",
		Date:      "2025-06-01",
		Time:      "09:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_doctor_id", resp.Error)
}

func TestCancelEndpointWithoutBody(t *testing.T) {
	apptID := uuid.New()
	var gotReason *string
	called := false

	svc := &stubService{
		cancel: func(_ context.Context, id uuid.UUID, reason *string) error {
			called = true
			assert.Equal(t, apptID, id)
			gotReason = reason
			return nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments/"+apptID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Nil(t, gotReason)

	resp := decodeBody[AppointmentResponse](t, rec)
	assert.Equal(t, "Cancelled", resp.Status)
}

func TestCancelEndpointPassesReason(t *testing.T) {
	apptID := uuid.New()
	var gotReason *string

	svc := &stubService{
		cancel: func(_ context.Context, _ uuid.UUID, reason *string) error {
			gotReason = reason
			return nil
		},
	}

	reason := "feeling better"
	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments/"+apptID.String()+"/cancel", CancelRequest{Reason: &reason})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotReason)
	assert.Equal(t, reason, *gotReason)
}

func TestCancelUnknownAppointmentIs404(t *testing.T) {
	svc := &stubService{
		cancel: func(context.Context, uuid.UUID, *string) error {
			return scheduling.ErrAppointmentNotFound
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/appointments/"+uuid.NewString()+"/cancel", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusUpdateEndpoint(t *testing.T) {
	apptID := uuid.New()
	svc := &stubService{
		setStatus: func(_ context.Context, id uuid.UUID, status scheduling.AppointmentStatus, _ *string) (*scheduling.Appointment, error) {
			assert.Equal(t, scheduling.StatusCompleted, status)
			return &scheduling.Appointment{ID: id, Status: status}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPatch, "/appointments/"+apptID.String()+"/status", StatusUpdateRequest{Status: "Completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[AppointmentResponse](t, rec)
	assert.Equal(t, "Completed", resp.Status)
}

func TestStatusUpdateConflictOnRetakenSlot(t *testing.T) {
	svc := &stubService{
		setStatus: func(context.Context, uuid.UUID, scheduling.AppointmentStatus, *string) (*scheduling.Appointment, error) {
			return nil, scheduling.ErrSlotTaken
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPatch, "/appointments/"+uuid.NewString()+"/status", StatusUpdateRequest{Status: "Scheduled"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPatientRecordEndpoint(t *testing.T) {
	svc := &stubService{
		patientRecord: func(_ context.Context, code string) ([]scheduling.RecordEntry, error) {
			assert.Equal(t, "PID-12345", code)
			return []scheduling.RecordEntry{
				{Type: "Appointment", Detail: "Dr. Sarah Smith (checkup)", Date: "2025-06-01", Time: "09:00", Status: "Scheduled"},
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/patients/PID-12345/record", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[RecordsResponse](t, rec)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Dr. Sarah Smith (checkup)", resp.Records[0].Detail)
}

func TestRegisterPatientEndpoint(t *testing.T) {
	svc := &stubService{
		registerPatient: func(_ context.Context, p scheduling.RegisterPatientParams) (*scheduling.Patient, error) {
			assert.Equal(t, "Ada Lovelace", p.Name)
			return &scheduling.Patient{ID: uuid.New(), Code: "PID-54321", Name: p.Name}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/patients", RegisterPatientRequest{
		Name: "Ada Lovelace", Email: "ada@example.com", Age: 36, Gender: "F",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[PatientResponse](t, rec)
	assert.Equal(t, "PID-54321", resp.PatientID)
}

func TestRegisterPatientDuplicateEmailIs409(t *testing.T) {
	svc := &stubService{
		registerPatient: func(context.Context, scheduling.RegisterPatientParams) (*scheduling.Patient, error) {
			return nil, scheduling.ErrEmailTaken
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/patients", RegisterPatientRequest{
		Name: "Ada Lovelace", Email: "ada@example.com",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "email_taken", resp.Error)
}

func TestLookupPatientRequiresEmail(t *testing.T) {
	rec := doRequest(t, newTestRouter(&stubService{}), http.MethodGet, "/patients/lookup", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &stubService{
		lookupPatient: func(_ context.Context, email string) (*scheduling.Patient, error) {
			assert.Equal(t, "ada@example.com", email)
			return &scheduling.Patient{Code: "PID-54321", Name: "Ada Lovelace"}, nil
		},
	}
	rec = doRequest(t, newTestRouter(svc), http.MethodGet, "/patients/lookup?email=ada%40example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderOTCEndpoint(t *testing.T) {
	svc := &stubService{
		orderOTC: func(_ context.Context, code string) (*scheduling.Prescription, error) {
			assert.Equal(t, "PID-12345", code)
			return &scheduling.Prescription{ID: uuid.New(), Item: "OTC Medicines Kit", Status: scheduling.RxOrdered}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/pharmacy/orders", OTCOrderRequest{PatientID: "PID-12345"})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[PrescriptionResponse](t, rec)
	assert.Equal(t, "OTC Medicines Kit", resp.Item)
	assert.Equal(t, "Ordered", resp.Status)
}

func TestDoctorDashboardEndpoint(t *testing.T) {
	doc := scheduling.Doctor{ID: uuid.New(), Name: "Sarah Smith"}
	patient := scheduling.Patient{ID: uuid.New(), Code: "PID-1", Name: "Ada Lovelace"}
	slot := scheduling.AvailabilitySlot{ID: uuid.New(), Date: "2025-06-01", StartTime: "09:00"}

	svc := &stubService{
		doctorDashboard: func(_ context.Context, doctorID uuid.UUID) (*scheduling.Doctor, []scheduling.AppointmentDetail, error) {
			assert.Equal(t, doc.ID, doctorID)
			return &doc, []scheduling.AppointmentDetail{{
				Appointment: scheduling.Appointment{ID: uuid.New(), Reason: "checkup", Status: scheduling.StatusScheduled, Mode: scheduling.ModeInPerson},
				Slot:        &slot,
				Patient:     &patient,
			}}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/dashboard/doctor/"+doc.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[DashboardResponse](t, rec)
	assert.Equal(t, "Dr. Sarah Smith", resp.Role)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Ada Lovelace (PID-1)", resp.Records[0].Title)
	assert.Equal(t, "Reason: checkup", resp.Records[0].Subtitle)
	assert.Equal(t, "09:00", resp.Records[0].Time)
}
