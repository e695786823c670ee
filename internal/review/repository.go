package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewExists        = errors.New("appointment already has a review")
)

// Repository contains all DB interactions needed by the review service.
type Repository interface {
	GetAppointmentRef(ctx context.Context, appointmentID int64) (*AppointmentRef, error)

	// CreateReview inserts unless a review already exists for the
	// appointment; the unique index makes the duplicate check hold under
	// concurrent submissions.
	CreateReview(ctx context.Context, r Review) (*Review, error)

	FindReviewByAppointment(ctx context.Context, appointmentID int64) (*Review, error)
	ListReviewsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Review, error)
	GetDoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error)
}
