package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduling/internal/db"
)

// simulate hammers the booking endpoint with concurrent workers that fight
// over a small set of (doctor, date, time) tuples, then verifies that every
// tuple produced at most one successful booking.

type simConfig struct {
	apiBaseURL  string
	postgresDSN string
	workers     int
	duration    time.Duration
	slotLimit   int
}

type target struct {
	doctorID uuid.UUID
	date     string
	time     string
}

type counters struct {
	total    int64
	success  int64
	conflict int64
	errors   int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate: url=%s workers=%d duration=%s slots=%d", cfg.apiBaseURL, cfg.workers, cfg.duration, cfg.slotLimit)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	targets, err := loadTargets(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}
	if len(targets) == 0 {
		log.Fatal("no free slots to fight over; run seed first")
	}

	winners := make(map[target]*int64, len(targets))
	for _, t := range targets {
		var n int64
		winners[t] = &n
	}

	var stats counters
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stop := context.WithTimeout(context.Background(), cfg.duration)
	defer stop()

	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for runCtx.Err() == nil {
				t := targets[rng.Intn(len(targets))]
				code := fmt.Sprintf("SIM-%04d", rng.Intn(500))
				outcome := bookOnce(runCtx, client, cfg.apiBaseURL, code, t)
				atomic.AddInt64(&stats.total, 1)
				switch outcome {
				case http.StatusCreated:
					atomic.AddInt64(&stats.success, 1)
					atomic.AddInt64(winners[t], 1)
				case http.StatusConflict:
					atomic.AddInt64(&stats.conflict, 1)
				default:
					atomic.AddInt64(&stats.errors, 1)
				}
			}
		}(w)
	}
	wg.Wait()

	log.Printf("done: total=%d success=%d conflict=%d errors=%d",
		stats.total, stats.success, stats.conflict, stats.errors)

	violations := 0
	for t, n := range winners {
		if *n > 1 {
			violations++
			log.Printf("VIOLATION: slot %s %s %s booked %d times", t.doctorID, t.date, t.time, *n)
		}
	}
	if violations == 0 {
		log.Println("slot exclusivity held: no tuple was booked more than once")
	} else {
		log.Fatalf("slot exclusivity violated for %d tuples", violations)
	}
}

func bookOnce(ctx context.Context, client *http.Client, baseURL, patientCode string, t target) int {
	payload, _ := json.Marshal(map[string]string{
		"patient_id":        patientCode,
		"doctor_id":         t.doctorID.String(),
		"date":              t.date,
		"time":              t.time,
		"reason":            "load test",
		"consultation_mode": "in-person",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(payload))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func loadTargets(ctx context.Context, cfg simConfig) ([]target, error) {
	pool, err := db.ConnectPostgres(ctx, cfg.postgresDSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT doctor_id, to_char(slot_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI')
		FROM availability_slots
		WHERE NOT is_booked
		  AND slot_date >= CURRENT_DATE
		ORDER BY slot_date, start_time
		LIMIT $1
	`, cfg.slotLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.doctorID, &t.date, &t.time); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		apiBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		postgresDSN: os.Getenv("POSTGRES_DSN"),
		workers:     getEnvInt("SIM_WORKERS", 16),
		duration:    time.Duration(getEnvInt("SIM_DURATION_SECONDS", 15)) * time.Second,
		slotLimit:   getEnvInt("SIM_SLOT_LIMIT", 20),
	}
	if cfg.postgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
