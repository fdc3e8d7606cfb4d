package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"caterrides-core/internal/application"
	application_api "caterrides-core/internal/application/api"
	application_db "caterrides-core/internal/application/db"
	"caterrides-core/internal/auth"
	"caterrides-core/internal/config"
	"caterrides-core/internal/database/migrations"
	"caterrides-core/internal/directory"
	directory_api "caterrides-core/internal/directory/api"
	"caterrides-core/internal/kafka"
	"caterrides-core/internal/ledger"
	"caterrides-core/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	// --- PostgreSQL Setup ---
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open Postgres connection: %v", err))
	}
	defer sqldb.Close()

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// Run migrations
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.Run(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied")

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redisClient.Close()

	// --- Kafka Setup ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to ensure topics exist: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
	}

	// --- Auth ---
	verifier, err := auth.NewVerifier(context.Background(), cfg.Auth)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to initialize token verifier: %v", err))
	}

	// --- Initialize Services ---
	vacancyCache := ledger.NewCache(redisClient, cfg.Redis.VacancyTTL)
	ledgerService := ledger.NewService(&ledger.DB{Bun: bunDB}, vacancyCache, log)

	applicationDB := &application_db.DB{Bun: bunDB}
	var publisher application.Publisher = noopPublisher{}
	if producer != nil {
		publisher = producer
	}
	applicationService := application.NewService(applicationDB, ledgerService, publisher, log)

	directoryDB := &directory.DB{Bun: bunDB}
	directoryService := directory.NewService(directoryDB, vacancyCache, applicationDB, log)

	passGenerator := newPassGenerator(log)

	applicationHandler := application_api.NewHandler(applicationService, directoryService, passGenerator, log)
	directoryHandler := directory_api.NewHandler(directoryService, log)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Route("/api/rider", func(r chi.Router) {
		r.Get("/events", directoryHandler.ListEvents)
		r.Get("/eventinfo/{eventId}", directoryHandler.EventInfo)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, auth.RoleRider))
			r.Post("/apply/{eventId}", applicationHandler.Apply)
			r.Delete("/apply/{eventId}", applicationHandler.Withdraw)
			r.Get("/applications", applicationHandler.MyApplications)
			r.Get("/profile", applicationHandler.RiderProfile)
			r.Get("/pass/{eventId}", applicationHandler.WorkPass)
		})
	})

	r.Route("/api/organizer", func(r chi.Router) {
		r.Use(auth.Middleware(verifier, auth.RoleOrganizer))
		r.Get("/myevents", directoryHandler.MyEvents)
		r.Get("/eventdetails/{eventId}", directoryHandler.EventDetails)
		r.Post("/post-event", directoryHandler.PostEvent)
		r.Put("/updateevent/{eventId}", directoryHandler.UpdateEvent)
		r.Delete("/deleteevent/{eventId}", directoryHandler.DeleteEvent)
		r.Get("/myapplicants/{eventId}", applicationHandler.MyApplicants)
		r.Put("/event/{eventId}/respond/{riderId}", applicationHandler.Respond)
		r.Get("/profile", directoryHandler.OrganizerProfile)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Lifecycle service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}
