package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curelink/booking-engine/internal/booking"
)

var (
	ErrAppointmentNotCompleted = errors.New("appointment is not completed")
	ErrNotAppointmentPatient   = errors.New("appointment belongs to another patient")
	ErrInvalidRating           = errors.New("ratings must be between 1 and 5")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "review").Logger(),
	}
}

type CreateInput struct {
	AppointmentID        int64
	PatientID            uuid.UUID
	BehaviourRating      int
	RecommendationRating int
	Comment              *string
}

// Create records feedback for a completed appointment. The submitting
// patient must be the one who held it, and each appointment takes exactly
// one review.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Review, error) {
	if !validRating(in.BehaviourRating) || !validRating(in.RecommendationRating) {
		return nil, ErrInvalidRating
	}

	appt, err := s.repo.GetAppointmentRef(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.PatientID != in.PatientID {
		return nil, ErrNotAppointmentPatient
	}

	if appt.Status != booking.StatusCompleted {
		return nil, ErrAppointmentNotCompleted
	}

	existing, err := s.repo.FindReviewByAppointment(ctx, in.AppointmentID)
	if err != nil && !errors.Is(err, ErrReviewNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if existing != nil {
		return nil, ErrReviewExists
	}

	rev := Review{
		AppointmentID:        in.AppointmentID,
		DoctorID:             appt.DoctorID,
		PatientID:            in.PatientID,
		BehaviourRating:      in.BehaviourRating,
		RecommendationRating: in.RecommendationRating,
		Comment:              in.Comment,
	}

	created, err := s.repo.CreateReview(ctx, rev)
	if err != nil {
		if errors.Is(err, ErrReviewExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	return created, nil
}

// GetByAppointment retrieves the review attached to an appointment.
func (s *Service) GetByAppointment(ctx context.Context, appointmentID int64) (*Review, error) {
	rev, err := s.repo.FindReviewByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rev, nil
}

// ListByDoctor retrieves a doctor's reviews, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Review, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	result, err := s.repo.ListReviewsByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews by doctor: %w", err)
	}
	return result, nil
}

// DoctorStats computes the per-doctor rating rollup.
func (s *Service) DoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	stats, err := s.repo.GetDoctorStats(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor stats: %w", err)
	}
	return stats, nil
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}
