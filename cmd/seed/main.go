package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/patient-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 25)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(context.Background(), pool, doctorIDs, 45); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Cardiology",
		"General Medicine",
		"Dermatology",
		"Pediatrics",
		"Surgery",
		"Orthopedics",
		"Neurology",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			code := fmt.Sprintf("PID-%05d", 10000+i)
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()
			age := gofakeit.Number(18, 90)
			gender := gofakeit.RandomString([]string{"M", "F", "U"})

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, patient_code, name, email, phone, age, gender, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`, id, code, name, email, phone, age, gender)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("patients seeded")
	return nil
}

// seedSlots opens hourly slots 09:00-17:00 for every doctor across the next
// windowDays days, matching what the slot worker maintains afterwards.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, windowDays int) error {
	log.Printf("seeding slots for %d doctors over %d days", len(doctorIDs), windowDays)

	today := time.Now()

	for _, doctorID := range doctorIDs {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for day := 0; day < windowDays; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			for hour := 9; hour < 18; hour++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_slots (id, doctor_id, slot_date, start_time, is_booked, created_at, updated_at)
					VALUES ($1, $2, $3::date, $4::time, false, now(), now())
					ON CONFLICT ON CONSTRAINT availability_slots_doctor_date_time_key
					DO NOTHING
				`, uuid.New(), doctorID, date, fmt.Sprintf("%02d:00", hour))
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("slots seeded")
	return nil
}
