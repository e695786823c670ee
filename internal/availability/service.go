package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSlotNotOwned     = errors.New("slot belongs to another doctor")
	ErrInvalidTimeRange = errors.New("invalid slot time range")
)

const clockLayout = "15:04"

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "availability").Logger(),
	}
}

type AddSlotInput struct {
	DoctorID        uuid.UUID
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
	Location        *string
	Custom          bool
}

// AddSlot creates a slot unless one already exists for the same
// (doctor, date, start, end) tuple, in which case the existing slot is
// returned unchanged. That makes batch submission safe to repeat.
func (s *Service) AddSlot(ctx context.Context, in AddSlotInput) (*Slot, error) {
	start, err := time.Parse(clockLayout, in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start time %q", ErrInvalidTimeRange, in.StartTime)
	}
	end, err := time.Parse(clockLayout, in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end time %q", ErrInvalidTimeRange, in.EndTime)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %q not after start %q", ErrInvalidTimeRange, in.EndTime, in.StartTime)
	}

	exists, err := s.repo.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}

	date := truncateToDay(in.Date)

	existing, err := s.repo.FindSlot(ctx, in.DoctorID, date, in.StartTime, in.EndTime)
	if err != nil && !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if existing != nil {
		s.log.Debug().
			Str("doctor_id", in.DoctorID.String()).
			Str("start", in.StartTime).
			Msg("duplicate slot submission skipped")
		return existing, nil
	}

	duration := in.DurationMinutes
	if duration <= 0 {
		duration = int(end.Sub(start) / time.Minute)
	}

	slot := Slot{
		ID:              uuid.New(),
		DoctorID:        in.DoctorID,
		Date:            date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: duration,
		Location:        in.Location,
		Custom:          in.Custom,
	}

	created, err := s.repo.InsertSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	return created, nil
}

// AddSlots is the batch path: each entry goes through the same idempotent
// single-add, so resubmitting a batch never duplicates slots.
func (s *Service) AddSlots(ctx context.Context, inputs []AddSlotInput) ([]Slot, error) {
	result := make([]Slot, 0, len(inputs))
	for _, in := range inputs {
		slot, err := s.AddSlot(ctx, in)
		if err != nil {
			return nil, err
		}
		result = append(result, *slot)
	}
	return result, nil
}

// ListSlots returns the doctor's slots ordered by date then start time,
// optionally restricted to one day.
func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time) ([]Slot, error) {
	var day *time.Time
	if date != nil {
		d := truncateToDay(*date)
		day = &d
	}

	slots, err := s.repo.ListSlots(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot removes the slot. Deleting an already-absent slot succeeds, but
// a slot owned by another doctor is never touched.
func (s *Service) DeleteSlot(ctx context.Context, slotID, doctorID uuid.UUID) error {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil
		}
		return fmt.Errorf("load slot: %w", err)
	}

	if slot.DoctorID != doctorID {
		return ErrSlotNotOwned
	}

	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	return nil
}

// AnnotateAvailability marks each of the doctor's slots on the given day as
// booked or free. A slot is booked when some non-rejected booking's time of
// day equals the slot's start time exactly. Bookings inside a window that
// don't hit the start never mark anything: booking always goes through a
// displayed slot's start time.
func (s *Service) AnnotateAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AnnotatedSlot, error) {
	day := truncateToDay(date)

	slots, err := s.repo.ListSlots(ctx, doctorID, &day)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	times, err := s.repo.ListActiveBookingTimes(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list booking times: %w", err)
	}

	bookedStarts := make(map[string]struct{}, len(times))
	for _, t := range times {
		bookedStarts[t.UTC().Format(clockLayout)] = struct{}{}
	}

	annotated := make([]AnnotatedSlot, 0, len(slots))
	for _, slot := range slots {
		_, booked := bookedStarts[slot.StartTime]
		annotated = append(annotated, AnnotatedSlot{Slot: slot, IsBooked: booked})
	}

	return annotated, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
