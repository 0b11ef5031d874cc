package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool the repository needs. It matches
// pgxmock so the repository can be tested without a live database.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgRepository struct {
	db Querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool}
}

// NewPgRepositoryWithQuerier allows injecting pgxmock in tests.
func NewPgRepositoryWithQuerier(q Querier) *PgRepository {
	return &PgRepository{db: q}
}

// Scan helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Age,
		&p.Gender,
		&p.HealthConditions,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.SlotID,
		&a.Reason,
		&a.Mode,
		&a.MeetingLink,
		&a.Status,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

const doctorColumns = `id, name, specialty, created_at, updated_at`

const patientColumns = `id, patient_code, name, email, phone, age, gender, health_conditions, created_at, updated_at`

const appointmentColumns = `id, patient_id, doctor_id, slot_id, reason, consultation_mode, meeting_link, status, cancellation_reason, created_at, updated_at`

// Doctors

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) FirstDoctor(ctx context.Context) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		ORDER BY created_at, id
		LIMIT 1
	`)
	d, err := scanDoctor(row)
	if errors.Is(err, ErrDoctorNotFound) {
		return nil, ErrNoDoctors
	}
	return d, err
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func (r *PgRepository) ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE specialty ILIKE '%' || $1 || '%'
		ORDER BY name
	`, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoctors(rows)
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Patients

func (r *PgRepository) GetPatientByCode(ctx context.Context, code string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE patient_code = $1
	`, code)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE email = $1
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, patient_code, name, email, phone, age, gender, health_conditions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+patientColumns+`
	`, id, p.Code, p.Name, p.Email, p.Phone, p.Age, p.Gender, p.HealthConditions)

	created, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) EnsurePatient(ctx context.Context, guest Patient) (*Patient, error) {
	id := uuid.New()

	// The no-op DO UPDATE makes the statement return the existing row when the
	// code is already registered, so concurrent guest bookings converge on one
	// patient record.
	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, patient_code, name, email, phone, age, gender, health_conditions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (patient_code)
		DO UPDATE SET updated_at = patients.updated_at
		RETURNING `+patientColumns+`
	`, id, guest.Code, guest.Name, guest.Email, guest.Phone, guest.Age, guest.Gender, guest.HealthConditions)

	return scanPatient(row)
}

// Slots

func (r *PgRepository) ListFreeSlotTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(start_time, 'HH24:MI')
		FROM availability_slots
		WHERE doctor_id = $1
		  AND slot_date = $2::date
		  AND NOT is_booked
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

// ReserveSlot creates the slot already reserved, or flips an open slot to
// reserved, in one statement. The conditional DO UPDATE produces no row when
// the slot is reserved, which maps to ErrSlotTaken. This single statement is
// what makes concurrent bookings for the same tuple resolve to one winner.
func (r *PgRepository) ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, startTime string) (uuid.UUID, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO availability_slots (id, doctor_id, slot_date, start_time, is_booked, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4::time, true, now(), now())
		ON CONFLICT ON CONSTRAINT availability_slots_doctor_date_time_key
		DO UPDATE SET is_booked = true, updated_at = now()
		WHERE availability_slots.is_booked = false
		RETURNING id
	`, id, doctorID, date, startTime)

	var slotID uuid.UUID
	if err := row.Scan(&slotID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrSlotTaken
		}
		return uuid.Nil, err
	}
	return slotID, nil
}

func (r *PgRepository) ReserveSlotByID(ctx context.Context, slotID uuid.UUID) error {
	row := r.db.QueryRow(ctx, `
		UPDATE availability_slots
		SET is_booked = true,
		    updated_at = now()
		WHERE id = $1
		  AND is_booked = false
		RETURNING id
	`, slotID)

	var id uuid.UUID
	if err := row.Scan(&id); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// No row: either the slot is gone or someone else holds it.
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM availability_slots WHERE id = $1)
	`, slotID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotTaken
}

func (r *PgRepository) ReleaseSlot(ctx context.Context, slotID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = false,
		    updated_at = now()
		WHERE id = $1
	`, slotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) EnsureOpenSlots(ctx context.Context, doctorID uuid.UUID, date string, startTimes []string) (int, error) {
	created := 0
	for _, st := range startTimes {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO availability_slots (id, doctor_id, slot_date, start_time, is_booked, created_at, updated_at)
			VALUES ($1, $2, $3::date, $4::time, false, now(), now())
			ON CONFLICT ON CONSTRAINT availability_slots_doctor_date_time_key
			DO NOTHING
		`, uuid.New(), doctorID, date, st)
		if err != nil {
			return created, fmt.Errorf("ensure slot %s %s: %w", date, st, err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, reason, consultation_mode, meeting_link, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.DoctorID, a.SlotID, a.Reason, a.Mode, a.MeetingLink, a.Status)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus, cancellationReason *string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status, cancellationReason)
	return scanAppointment(row)
}

func (r *PgRepository) SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET meeting_link = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, link)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) CancelAppointment(ctx context.Context, id uuid.UUID, reason *string) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, StatusCancelled, reason)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = false,
		    updated_at = now()
		WHERE id = $1
	`, appt.SlotID)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) ReinstateAppointment(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reinstate tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var slotID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT slot_id FROM appointments WHERE id = $1
	`, id).Scan(&slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	// Conditional re-reserve: fails when another booking took the slot while
	// this appointment was cancelled.
	var reserved uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE availability_slots
		SET is_booked = true,
		    updated_at = now()
		WHERE id = $1
		  AND is_booked = false
		RETURNING id
	`, slotID).Scan(&reserved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = NULL,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reinstate tx: %w", err)
	}
	return appt, nil
}

// Projections

const appointmentDetailQuery = `
	SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.reason, a.consultation_mode, a.meeting_link, a.status, a.cancellation_reason, a.created_at, a.updated_at,
	       s.id, s.doctor_id, to_char(s.slot_date, 'YYYY-MM-DD'), to_char(s.start_time, 'HH24:MI'), s.is_booked, s.created_at, s.updated_at,
	       p.id, p.patient_code, p.name, p.email, p.phone, p.age, p.gender, p.health_conditions, p.created_at, p.updated_at,
	       d.id, d.name, d.specialty, d.created_at, d.updated_at
	FROM appointments a
	JOIN availability_slots s ON s.id = a.slot_id
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
`

func scanAppointmentDetail(rows pgx.Rows) (*AppointmentDetail, error) {
	var det AppointmentDetail
	var s AvailabilitySlot
	var p Patient
	var d Doctor

	err := rows.Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &det.SlotID, &det.Reason, &det.Mode, &det.MeetingLink, &det.Status, &det.CancellationReason, &det.CreatedAt, &det.UpdatedAt,
		&s.ID, &s.DoctorID, &s.Date, &s.StartTime, &s.Booked, &s.CreatedAt, &s.UpdatedAt,
		&p.ID, &p.Code, &p.Name, &p.Email, &p.Phone, &p.Age, &p.Gender, &p.HealthConditions, &p.CreatedAt, &p.UpdatedAt,
		&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	det.Slot = &s
	det.Patient = &p
	det.Doctor = &d
	return &det, nil
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, appointmentDetailQuery+`
		WHERE a.patient_id = $1
		ORDER BY a.created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointmentDetails(rows)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, appointmentDetailQuery+`
		WHERE a.doctor_id = $1
		ORDER BY a.created_at DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointmentDetails(rows)
}

func collectAppointmentDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	var result []AppointmentDetail
	for rows.Next() {
		det, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Lab requests

func (r *PgRepository) CreateLabRequest(ctx context.Context, patientID uuid.UUID, testName string) (*LabRequest, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO lab_requests (id, patient_id, test_name, status, requested_on, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_DATE, now())
		RETURNING id, patient_id, test_name, status, to_char(requested_on, 'YYYY-MM-DD'), created_at
	`, id, patientID, testName, LabScheduled)

	var lr LabRequest
	err := row.Scan(&lr.ID, &lr.PatientID, &lr.TestName, &lr.Status, &lr.RequestedOn, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *PgRepository) UpdateLabStatus(ctx context.Context, id uuid.UUID, status LabStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE lab_requests SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLabRequestNotFound
	}
	return nil
}

func (r *PgRepository) ListLabRequestsByPatient(ctx context.Context, patientID uuid.UUID) ([]LabRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, test_name, status, to_char(requested_on, 'YYYY-MM-DD'), created_at
		FROM lab_requests
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LabRequest
	for rows.Next() {
		var lr LabRequest
		if err := rows.Scan(&lr.ID, &lr.PatientID, &lr.TestName, &lr.Status, &lr.RequestedOn, &lr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListLabRequests(ctx context.Context) ([]LabRequestDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.patient_id, l.test_name, l.status, to_char(l.requested_on, 'YYYY-MM-DD'), l.created_at,
		       p.id, p.patient_code, p.name, p.email, p.phone, p.age, p.gender, p.health_conditions, p.created_at, p.updated_at
		FROM lab_requests l
		JOIN patients p ON p.id = l.patient_id
		ORDER BY l.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LabRequestDetail
	for rows.Next() {
		var det LabRequestDetail
		var p Patient
		err := rows.Scan(
			&det.ID, &det.PatientID, &det.TestName, &det.Status, &det.RequestedOn, &det.CreatedAt,
			&p.ID, &p.Code, &p.Name, &p.Email, &p.Phone, &p.Age, &p.Gender, &p.HealthConditions, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		det.Patient = &p
		result = append(result, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Prescriptions

func (r *PgRepository) CreatePrescription(ctx context.Context, patientID uuid.UUID, item string, status PrescriptionStatus) (*Prescription, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO prescriptions (id, patient_id, item, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, patient_id, item, status, pharmacist_note, created_at
	`, id, patientID, item, status)

	var rx Prescription
	err := row.Scan(&rx.ID, &rx.PatientID, &rx.Item, &rx.Status, &rx.PharmacistNote, &rx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rx, nil
}

func (r *PgRepository) UpdatePrescriptionStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE prescriptions SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}

func (r *PgRepository) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]Prescription, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, item, status, pharmacist_note, created_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Prescription
	for rows.Next() {
		var rx Prescription
		if err := rows.Scan(&rx.ID, &rx.PatientID, &rx.Item, &rx.Status, &rx.PharmacistNote, &rx.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListPrescriptions(ctx context.Context) ([]PrescriptionDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT x.id, x.patient_id, x.item, x.status, x.pharmacist_note, x.created_at,
		       p.id, p.patient_code, p.name, p.email, p.phone, p.age, p.gender, p.health_conditions, p.created_at, p.updated_at
		FROM prescriptions x
		JOIN patients p ON p.id = x.patient_id
		ORDER BY x.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PrescriptionDetail
	for rows.Next() {
		var det PrescriptionDetail
		var p Patient
		err := rows.Scan(
			&det.ID, &det.PatientID, &det.Item, &det.Status, &det.PharmacistNote, &det.CreatedAt,
			&p.ID, &p.Code, &p.Name, &p.Email, &p.Phone, &p.Age, &p.Gender, &p.HealthConditions, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		det.Patient = &p
		result = append(result, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Audit log

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
