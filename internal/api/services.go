package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/availability"
	"github.com/curelink/booking-engine/internal/booking"
	"github.com/curelink/booking-engine/internal/review"
)

// Service interfaces consumed by the handlers. The concrete services in the
// domain packages satisfy them; tests substitute stubs.

type BookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error)
	ChangeStatus(ctx context.Context, id int64, newStatus booking.BookingStatus, rejectionReason *string) (*booking.Booking, error)
	Delete(ctx context.Context, id int64) error
	CreateFollowUp(ctx context.Context, requestingDoctorID uuid.UUID, originalID int64, scheduledAt time.Time, bookingType booking.BookingType) (*booking.Booking, error)
	Get(ctx context.Context, id int64) (*booking.Booking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]booking.Booking, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]booking.Booking, error)
	GetVideoInfo(ctx context.Context, id int64) (*booking.VideoInfo, error)
	UpsertPrescription(ctx context.Context, doctorID uuid.UUID, in booking.PrescriptionInput) (*booking.Prescription, error)
	GetPrescription(ctx context.Context, bookingID int64) (*booking.Prescription, error)
}

type AvailabilityService interface {
	AddSlot(ctx context.Context, in availability.AddSlotInput) (*availability.Slot, error)
	AddSlots(ctx context.Context, inputs []availability.AddSlotInput) ([]availability.Slot, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]availability.Slot, error)
	DeleteSlot(ctx context.Context, slotID, doctorID uuid.UUID) error
	AnnotateAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]availability.AnnotatedSlot, error)
}

type ReviewService interface {
	Create(ctx context.Context, in review.CreateInput) (*review.Review, error)
	GetByAppointment(ctx context.Context, appointmentID int64) (*review.Review, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]review.Review, error)
	DoctorStats(ctx context.Context, doctorID uuid.UUID) (*review.DoctorStats, error)
}
