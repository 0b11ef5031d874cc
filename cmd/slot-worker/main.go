package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carebridge/patient-scheduling/internal/config"
	"github.com/carebridge/patient-scheduling/internal/db"
	"github.com/carebridge/patient-scheduling/internal/meeting"
	redisclient "github.com/carebridge/patient-scheduling/internal/redis"
	"github.com/carebridge/patient-scheduling/internal/scheduling"
)

// slot-worker keeps each doctor's rolling availability window topped up with
// open hourly slots. Slot creation is idempotent, so overlapping runs are
// harmless.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("slot-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running slot worker in env=%s cron=%q window_days=%d", cfg.Env, cfg.SlotWorkerCron, cfg.SlotWindowDays)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()

	repo := scheduling.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := scheduling.NewService(repo, locker, meeting.NewStatic(""), nil, cfg.ProvisionerTimeout)

	// Run once at startup, then on the cron schedule.
	runOnce(rootCtx, svc, cfg)

	c := cron.New()
	_, err = c.AddFunc(cfg.SlotWorkerCron, func() {
		runOnce(rootCtx, svc, cfg)
	})
	if err != nil {
		log.Fatalf("invalid cron spec %q: %v", cfg.SlotWorkerCron, err)
	}
	c.Start()
	defer c.Stop()

	<-rootCtx.Done()
	log.Println("shutdown signal received, stopping slot worker")
}

func runOnce(ctx context.Context, svc *scheduling.Service, cfg config.Config) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	created, err := svc.MaintainSchedule(runCtx, cfg.SlotWindowDays, cfg.SlotDayStartHour, cfg.SlotDayEndHour)
	if err != nil {
		log.Printf("schedule maintenance error (created %d slots first): %v", created, err)
		return
	}
	log.Printf("schedule maintenance complete: %d new slots in %s", created, time.Since(start))
}
