package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Service  Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	// Patients
	r.Post("/patients", registerPatientHandler(cfg.Service))
	r.Get("/patients/lookup", lookupPatientHandler(cfg.Service))
	r.Get("/patients/{code}/record", patientRecordHandler(cfg.Service))

	// Doctors and availability
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Get("/doctors/specialty/{specialty}", doctorsBySpecialtyHandler(cfg.Service))
	r.Get("/availability/{doctorID}/{date}", availabilityHandler(cfg.Service))

	// Appointments
	r.Post("/appointments", bookHandler(cfg.Service))
	r.Post("/appointments/{id}/cancel", cancelHandler(cfg.Service))
	r.Patch("/appointments/{id}/status", statusUpdateHandler(cfg.Service))

	// Labs and pharmacy
	r.Post("/labs", bookLabHandler(cfg.Service))
	r.Patch("/labs/{id}/status", labStatusHandler(cfg.Service))
	r.Post("/pharmacy/orders", orderOTCHandler(cfg.Service))
	r.Patch("/prescriptions/{id}/status", prescriptionStatusHandler(cfg.Service))

	// Staff dashboards
	r.Get("/dashboard/doctor/{doctorID}", doctorDashboardHandler(cfg.Service))
	r.Get("/dashboard/lab", labDashboardHandler(cfg.Service))
	r.Get("/dashboard/pharmacy", pharmacyDashboardHandler(cfg.Service))

	return r
}
