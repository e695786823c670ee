package availability

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a doctor-declared window that can hold exactly one appointment.
// Start and end times are UTC wall-clock strings ("09:30") because the
// booking flow matches a booking's UTC time-of-day against the slot start
// exactly; slots are discrete offers, not a continuous calendar.
type Slot struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	Date            time.Time // day precision, midnight UTC
	StartTime       string    // "HH:MM"
	EndTime         string    // "HH:MM"
	DurationMinutes int
	Location        *string
	Custom          bool
	CreatedAt       time.Time
}

// AnnotatedSlot is a slot with its computed booked state. Booked is derived
// at read time, never stored on the slot row.
type AnnotatedSlot struct {
	Slot
	IsBooked bool
}
