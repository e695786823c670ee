package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound   = errors.New("slot not found")
	ErrDoctorNotFound = errors.New("doctor not found")
)

// Repository contains all DB interactions needed by the slot service.
type Repository interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)

	// FindSlot looks up a slot by its identity tuple.
	FindSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string) (*Slot, error)

	// InsertSlot inserts unless the identity tuple already exists, in which
	// case the existing row is returned. Backed by a unique index so two
	// concurrent inserts cannot both land.
	InsertSlot(ctx context.Context, slot Slot) (*Slot, error)

	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	// ListActiveBookingTimes returns the scheduled instants of non-rejected
	// bookings for the doctor on the given day. Used by the conflict check.
	ListActiveBookingTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]time.Time, error)
}
