package booking

import (
	"time"

	"github.com/google/uuid"
)

type BookingType string

const (
	TypePhysical BookingType = "physical"
	TypeVirtual  BookingType = "virtual"
)

func ValidType(t BookingType) bool {
	return t == TypePhysical || t == TypeVirtual
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusBooked    BookingStatus = "booked"
	StatusRejected  BookingStatus = "rejected"
	StatusCompleted BookingStatus = "completed"
)

func ValidStatus(s BookingStatus) bool {
	switch s {
	case StatusPending, StatusBooked, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// allowedTransitions is the appointment state diagram. Rejected and
// completed are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusPending: {StatusBooked, StatusRejected},
	StatusBooked:  {StatusRejected, StatusCompleted},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Booking struct {
	ID                int64
	PatientID         uuid.UUID
	DoctorID          uuid.UUID
	ScheduledAt       time.Time
	Reason            *string
	Symptoms          *string
	Type              BookingType
	Status            BookingStatus
	RejectionReason   *string
	VideoRoomCode     *string
	OriginalBookingID *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Prescription struct {
	ID          int64
	BookingID   int64
	Medications string
	Dosage      string
	Frequency   string
	Duration    string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VideoInfo is what gets surfaced for a virtual booking: the guest join code
// plus enough context to render the call entry point.
type VideoInfo struct {
	BookingID   int64
	RoomCode    string
	ScheduledAt time.Time
	Type        BookingType
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *int64
	Payload   []byte
	CreatedAt time.Time
}
