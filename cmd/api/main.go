package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"securegate.org/internal/auth"
	"securegate.org/internal/config"
	"securegate.org/internal/emergency"
	"securegate.org/internal/feedback"
	"securegate.org/internal/httpapi"
	"securegate.org/internal/obs"
	"securegate.org/internal/report"
	"securegate.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()

	// Domain services: Postgres when a DSN is configured, otherwise the
	// in-memory implementations (dev and smoke-test mode).
	var (
		store       *pg.Store
		users       auth.UserStore
		reports     report.Service
		emergencies emergency.Service
		feedbacks   feedback.Service
	)
	if cfg.PostgresDSN != "" {
		var err error
		store, err = pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		users = store
		reports = store.Reports()
		emergencies = store.Emergencies()
		feedbacks = store.Feedback()
	} else {
		log.Println("SECUREGATE_PG_DSN not set, using in-memory stores")
		users = auth.NewInMemoryUsers()
		reports = report.NewInMemory()
		emergencies = emergency.NewInMemory()
		feedbacks = feedback.NewInMemory()
	}

	accounts := auth.NewService(users, auth.WithTokenTTL(cfg.TokenTTL))

	probe := httpapi.ReadyProbe{}
	if store != nil {
		probe.DB = store.DB()
	}
	api := httpapi.New(probe, version,
		accounts, reports, emergencies, feedbacks,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.MaxBodySize),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting securegate-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}
