package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	CreateBooking(ctx context.Context, b Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id int64) (*Booking, error)

	// FindActiveBookingAt returns a pending or booked appointment for the
	// doctor at the exact instant, for the double-booking check.
	FindActiveBookingAt(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Booking, error)

	// UpdateBookingStatus applies from->to as a compare-and-swap; a row whose
	// status moved concurrently is not updated and reports not found.
	UpdateBookingStatus(ctx context.Context, id int64, from, to BookingStatus, rejectionReason *string) (*Booking, error)

	DeleteBooking(ctx context.Context, id int64) error

	ListBookingsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error)
	ListBookingsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Booking, error)

	UpsertPrescription(ctx context.Context, p Prescription) (*Prescription, error)
	GetPrescriptionByBooking(ctx context.Context, bookingID int64) (*Prescription, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
