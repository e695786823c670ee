package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/curelink/booking-engine/internal/auth"
)

type RouterConfig struct {
	Bookings     BookingService
	Availability AvailabilityService
	Reviews      ReviewService
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       zerolog.Logger
	JWTSecret    string
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(auth.Middleware(cfg.JWTSecret))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Booking endpoints
	r.Post("/bookings", createBookingHandler(cfg.Bookings))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Bookings))
	r.Patch("/bookings/{id}/status", changeBookingStatusHandler(cfg.Bookings))
	r.Delete("/bookings/{id}", deleteBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/follow-up", createFollowUpHandler(cfg.Bookings))
	r.Get("/bookings/{id}/video", getVideoInfoHandler(cfg.Bookings))
	r.Put("/bookings/{id}/prescription", upsertPrescriptionHandler(cfg.Bookings))
	r.Get("/bookings/{id}/prescription", getPrescriptionHandler(cfg.Bookings))
	r.Get("/patients/{id}/bookings", listPatientBookingsHandler(cfg.Bookings))
	r.Get("/doctors/{id}/bookings", listDoctorBookingsHandler(cfg.Bookings))

	// Slot endpoints
	r.Post("/slots", addSlotHandler(cfg.Availability))
	r.Post("/slots/batch", addSlotsBatchHandler(cfg.Availability))
	r.Delete("/slots/{id}", deleteSlotHandler(cfg.Availability))
	r.Get("/doctors/{id}/slots", listSlotsHandler(cfg.Availability))
	r.Get("/doctors/{id}/availability", availabilityHandler(cfg.Availability))

	// Review endpoints
	r.Post("/appointments/{id}/reviews", createReviewHandler(cfg.Reviews))
	r.Get("/appointments/{id}/review", getReviewHandler(cfg.Reviews))
	r.Get("/doctors/{id}/reviews", listDoctorReviewsHandler(cfg.Reviews))
	r.Get("/doctors/{id}/reviews/stats", doctorReviewStatsHandler(cfg.Reviews))

	return r
}
