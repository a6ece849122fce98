// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/campuslabs/campus-ticketing/internal/auth"
	"github.com/campuslabs/campus-ticketing/internal/database"
	"github.com/campuslabs/campus-ticketing/internal/handler"
	"github.com/campuslabs/campus-ticketing/internal/model"
	"github.com/campuslabs/campus-ticketing/internal/repository"
	"github.com/campuslabs/campus-ticketing/internal/service"
)

func main() {
	ctx := context.Background()

	// ── 1. Connect to PostgreSQL and apply the schema ─────────────────────
	pool, err := database.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("connected to PostgreSQL")

	sessions, err := auth.NewManager(getEnv("SESSION_SECRET", "dev-only-secret"))
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	venueRepo := repository.NewVenueRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	userSvc := service.NewUserService(userRepo)
	eventSvc := service.NewEventService(eventRepo)
	ticketSvc := service.NewTicketService(ticketRepo)

	authHandler := handler.NewAuthHandler(userSvc, sessions)
	eventHandler := handler.NewEventHandler(eventSvc, venueRepo)
	ticketHandler := handler.NewTicketHandler(ticketSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for demo

	// Health
	r.Get("/health", handler.HealthCheck)

	// Public auth routes
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Get("/api/logout", authHandler.Logout)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(handler.Authenticated(sessions))

		r.Get("/api/user", authHandler.CurrentUser)
		r.Get("/api/venues", eventHandler.ListVenues)
		r.Get("/api/events", eventHandler.ListEvents)

		// Students hold tickets; admins never do.
		r.Group(func(r chi.Router) {
			r.Use(handler.RequireRole(model.RoleStudent))
			r.Post("/api/rsvp", ticketHandler.Reserve)
			r.Post("/api/cancel-ticket", ticketHandler.Cancel)
			r.Get("/api/mytickets", ticketHandler.MyTickets)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(handler.RequireRole(model.RoleAdmin))
			r.Post("/api/venues", eventHandler.CreateVenue)
			r.Post("/api/events", eventHandler.CreateEvent)
			r.Get("/api/admin/events", eventHandler.ListOwnEvents)
			r.Put("/api/events/{id}", eventHandler.EditEvent)
			r.Delete("/api/events/{id}", eventHandler.DeleteEvent)
			r.Get("/api/events/{id}/attendees", ticketHandler.Attendees)
			r.Get("/api/events/{id}/report", eventHandler.GetReport)
			r.Post("/api/checkin", ticketHandler.CheckIn)
		})
	})

	// Static HTML – serve the web/ directory at the root.
	webFS := http.Dir("./web")
	r.Handle("/*", http.FileServer(webFS))

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("server listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
