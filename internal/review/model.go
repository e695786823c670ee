package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/booking"
)

// Review is post-completion patient feedback, at most one per appointment.
type Review struct {
	ID                   int64
	AppointmentID        int64
	DoctorID             uuid.UUID
	PatientID            uuid.UUID
	BehaviourRating      int
	RecommendationRating int
	Comment              *string
	CreatedAt            time.Time
}

// AppointmentRef is the slice of a booking the review flow needs.
type AppointmentRef struct {
	ID        int64
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    booking.BookingStatus
}

// DoctorStats is the per-doctor rollup consumed by clinic/admin reporting.
type DoctorStats struct {
	DoctorID          uuid.UUID
	ReviewCount       int64
	AvgBehaviour      float64
	AvgRecommendation float64
}
