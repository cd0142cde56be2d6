package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/exam-mentor/backend/internal/auth"
	"github.com/exam-mentor/backend/internal/config"
	"github.com/exam-mentor/backend/internal/database"
	"github.com/exam-mentor/backend/internal/learning"
	"github.com/exam-mentor/backend/internal/middleware"
	"github.com/exam-mentor/backend/internal/practice"
	"github.com/exam-mentor/backend/internal/stats"
	"github.com/exam-mentor/backend/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.New(db)
	engine := learning.NewEngine(st, learning.WithDefaultDailyMinutes(cfg.Engine.DefaultDailyMinutes))

	// Initialize services
	practiceService := practice.NewService(engine, st, cfg.Engine.ReviewQueueLimit)
	statsService := stats.NewService(st)

	// Initialize handlers
	authHandler := auth.NewHandler(st, cfg.Auth, cfg.Engine.DefaultDailyMinutes)
	practiceHandler := practice.NewHandler(practiceService)
	statsHandler := stats.NewHandler(statsService)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(cfg.Auth.JWTSecret)))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/auth/me", authHandler.UpdateProfile).Methods("PUT")
	practiceHandler.RegisterRoutes(protected)
	statsHandler.RegisterRoutes(protected)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Engine.PlanWorker {
		g.Go(func() error {
			practiceService.StartPlanWorker(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
