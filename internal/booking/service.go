package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/curelink/booking-engine/internal/redis"
	"github.com/curelink/booking-engine/internal/video"
)

const (
	EventBookingCreated  = "BOOKING_CREATED"
	EventStatusChanged   = "BOOKING_STATUS_CHANGED"
	EventBookingDeleted  = "BOOKING_DELETED"
	EventFollowUpCreated = "FOLLOW_UP_CREATED"
)

var (
	ErrTimeAlreadyBooked       = errors.New("doctor already has an active booking at this time")
	ErrTimeBeingBooked         = errors.New("this time is currently being booked, please retry")
	ErrInvalidBookingType      = errors.New("invalid booking type")
	ErrInvalidStatus           = errors.New("invalid booking status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrRejectionReasonRequired = errors.New("rejection requires a non-empty reason")
	ErrBookingNotPending       = errors.New("only pending bookings can be withdrawn")
	ErrNotBookingOwner         = errors.New("booking belongs to another doctor")
	ErrNotVirtual              = errors.New("booking has no video room")
)

type Service struct {
	repo   Repository
	rooms  video.Provider
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, rooms video.Provider, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		rooms:  rooms,
		locker: locker,
		log:    log.With().Str("component", "booking").Logger(),
	}
}

type CreateInput struct {
	PatientID         uuid.UUID
	DoctorID          uuid.UUID
	ScheduledAt       time.Time
	Reason            *string
	Symptoms          *string
	Type              BookingType
	OriginalBookingID *int64
}

// Create makes a new pending booking. For virtual appointments the video
// room is provisioned first: if the provider fails or returns nothing usable,
// no booking row is ever written, so a virtual booking can never exist
// without its join code.
//
// A per-(doctor, instant) lock guards the insert so two patients racing for
// the same time cannot both land an active booking.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	if in.Type == "" {
		in.Type = TypePhysical
	}
	if !ValidType(in.Type) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBookingType, in.Type)
	}

	if _, err := s.repo.GetPatientByID(ctx, in.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if _, err := s.repo.GetDoctorByID(ctx, in.DoctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var roomCode *string
	if in.Type == TypeVirtual {
		seed := fmt.Sprintf("%s-%s-%d", in.PatientID, in.DoctorID, in.ScheduledAt.Unix())
		code, err := s.rooms.ProvisionRoom(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("provision video room: %w", err)
		}
		roomCode = &code
	}

	var created *Booking

	lockKey := fmt.Sprintf("%s:%d", in.DoctorID, in.ScheduledAt.Unix())
	err := s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		existing, err := s.repo.FindActiveBookingAt(lockCtx, in.DoctorID, in.ScheduledAt)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return fmt.Errorf("check active booking: %w", err)
		}
		if existing != nil {
			return ErrTimeAlreadyBooked
		}

		b := Booking{
			PatientID:         in.PatientID,
			DoctorID:          in.DoctorID,
			ScheduledAt:       in.ScheduledAt,
			Reason:            in.Reason,
			Symptoms:          in.Symptoms,
			Type:              in.Type,
			VideoRoomCode:     roomCode,
			OriginalBookingID: in.OriginalBookingID,
		}

		appt, err := s.repo.CreateBooking(lockCtx, b)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		created = appt

		payload := map[string]any{
			"patient_id":   in.PatientID.String(),
			"doctor_id":    in.DoctorID.String(),
			"scheduled_at": in.ScheduledAt,
			"type":         in.Type,
			"virtual":      roomCode != nil,
		}
		s.logEvent(lockCtx, appt.ID, EventBookingCreated, payload)

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrTimeBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// ChangeStatus drives the appointment lifecycle. Rejection requires a reason;
// any transition outside the state diagram fails and leaves the row alone.
func (s *Service) ChangeStatus(ctx context.Context, id int64, newStatus BookingStatus, rejectionReason *string) (*Booking, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var reason *string
	if newStatus == StatusRejected {
		if rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "" {
			return nil, ErrRejectionReasonRequired
		}
		trimmed := strings.TrimSpace(*rejectionReason)
		reason = &trimmed
	}

	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if !CanTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, appt.Status, newStatus)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, id, appt.Status, newStatus, reason)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// Status moved between the read and the CAS update.
			return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	payload := map[string]any{
		"from": appt.Status,
		"to":   newStatus,
	}
	if reason != nil {
		payload["rejection_reason"] = *reason
	}
	s.logEvent(ctx, updated.ID, EventStatusChanged, payload)

	return updated, nil
}

// Delete withdraws a booking. Only pending requests can be withdrawn; an
// approved or completed appointment keeps its row and its attached records.
func (s *Service) Delete(ctx context.Context, id int64) error {
	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}

	if appt.Status != StatusPending {
		return ErrBookingNotPending
	}

	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	s.logEvent(ctx, id, EventBookingDeleted, map[string]any{
		"patient_id": appt.PatientID.String(),
	})

	return nil
}

// CreateFollowUp spawns a new booking referencing an earlier one. Only the
// doctor who owns the original may do this; patient and doctor carry over and
// the follow-up starts pending like any other booking.
func (s *Service) CreateFollowUp(ctx context.Context, requestingDoctorID uuid.UUID, originalID int64, scheduledAt time.Time, bookingType BookingType) (*Booking, error) {
	original, err := s.repo.GetBookingByID(ctx, originalID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load original booking: %w", err)
	}

	if original.DoctorID != requestingDoctorID {
		return nil, ErrNotBookingOwner
	}

	followUp, err := s.Create(ctx, CreateInput{
		PatientID:         original.PatientID,
		DoctorID:          original.DoctorID,
		ScheduledAt:       scheduledAt,
		Type:              bookingType,
		OriginalBookingID: &original.ID,
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, followUp.ID, EventFollowUpCreated, map[string]any{
		"original_booking_id": original.ID,
	})

	return followUp, nil
}

// Get retrieves one booking by id.
func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return appt, nil
}

// ListByPatient retrieves a patient's bookings, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	limit, offset = clampPage(limit, offset)
	result, err := s.repo.ListBookingsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookings by patient: %w", err)
	}
	return result, nil
}

// ListByDoctor retrieves a doctor's bookings, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Booking, error) {
	limit, offset = clampPage(limit, offset)
	result, err := s.repo.ListBookingsByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookings by doctor: %w", err)
	}
	return result, nil
}

// GetVideoInfo returns the join details for a virtual booking.
func (s *Service) GetVideoInfo(ctx context.Context, id int64) (*VideoInfo, error) {
	appt, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if appt.Type != TypeVirtual || appt.VideoRoomCode == nil {
		return nil, ErrNotVirtual
	}

	return &VideoInfo{
		BookingID:   appt.ID,
		RoomCode:    *appt.VideoRoomCode,
		ScheduledAt: appt.ScheduledAt,
		Type:        appt.Type,
	}, nil
}

type PrescriptionInput struct {
	BookingID   int64
	Medications string
	Dosage      string
	Frequency   string
	Duration    string
	Notes       *string
}

// UpsertPrescription creates or replaces the prescription attached to a
// booking. Only the doctor who owns the booking may write it.
func (s *Service) UpsertPrescription(ctx context.Context, doctorID uuid.UUID, in PrescriptionInput) (*Prescription, error) {
	appt, err := s.repo.GetBookingByID(ctx, in.BookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if appt.DoctorID != doctorID {
		return nil, ErrNotBookingOwner
	}

	p := Prescription{
		BookingID:   in.BookingID,
		Medications: in.Medications,
		Dosage:      in.Dosage,
		Frequency:   in.Frequency,
		Duration:    in.Duration,
		Notes:       in.Notes,
	}

	saved, err := s.repo.UpsertPrescription(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert prescription: %w", err)
	}

	return saved, nil
}

// GetPrescription retrieves the prescription for a booking.
func (s *Service) GetPrescription(ctx context.Context, bookingID int64) (*Prescription, error) {
	p, err := s.repo.GetPrescriptionByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return p, nil
}

func (s *Service) logEvent(ctx context.Context, bookingID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	id := bookingID

	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Int64("booking_id", bookingID).Msg("failed to insert event log")
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
