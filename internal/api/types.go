package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/availability"
	"github.com/curelink/booking-engine/internal/booking"
	"github.com/curelink/booking-engine/internal/review"
)

type CreateBookingRequest struct {
	PatientID   string  `json:"patient_id"`
	DoctorID    string  `json:"doctor_id"`
	ScheduledAt string  `json:"scheduled_at"` // RFC 3339
	Reason      *string `json:"reason,omitempty"`
	Symptoms    *string `json:"symptoms,omitempty"`
	Type        string  `json:"type,omitempty"`
}

type ChangeStatusRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type FollowUpRequest struct {
	ScheduledAt string `json:"scheduled_at"` // RFC 3339
	Type        string `json:"type,omitempty"`
}

type BookingResponse struct {
	ID                int64     `json:"id"`
	PatientID         uuid.UUID `json:"patient_id"`
	DoctorID          uuid.UUID `json:"doctor_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Reason            *string   `json:"reason,omitempty"`
	Symptoms          *string   `json:"symptoms,omitempty"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	RejectionReason   *string   `json:"rejection_reason,omitempty"`
	VideoRoomCode     *string   `json:"video_room_code,omitempty"`
	OriginalBookingID *int64    `json:"original_booking_id,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                b.ID,
		PatientID:         b.PatientID,
		DoctorID:          b.DoctorID,
		ScheduledAt:       b.ScheduledAt,
		Reason:            b.Reason,
		Symptoms:          b.Symptoms,
		Type:              string(b.Type),
		Status:            string(b.Status),
		RejectionReason:   b.RejectionReason,
		VideoRoomCode:     b.VideoRoomCode,
		OriginalBookingID: b.OriginalBookingID,
	}
}

type VideoInfoResponse struct {
	BookingID   int64     `json:"booking_id"`
	RoomCode    string    `json:"room_code"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
}

type SlotEntry struct {
	Date            string  `json:"date"` // 2006-01-02
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Location        *string `json:"location,omitempty"`
	Custom          bool    `json:"custom,omitempty"`
}

type AddSlotRequest struct {
	DoctorID string `json:"doctor_id"`
	SlotEntry
}

type AddSlotsBatchRequest struct {
	DoctorID string      `json:"doctor_id"`
	Slots    []SlotEntry `json:"slots"`
}

type SlotResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        *string   `json:"location,omitempty"`
	Custom          bool      `json:"custom"`
}

func toSlotResponse(s *availability.Slot) SlotResponse {
	return SlotResponse{
		ID:              s.ID,
		DoctorID:        s.DoctorID,
		Date:            s.Date.Format("2006-01-02"),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
		Location:        s.Location,
		Custom:          s.Custom,
	}
}

type AnnotatedSlotResponse struct {
	SlotResponse
	IsBooked bool `json:"is_booked"`
}

type PrescriptionRequest struct {
	Medications string  `json:"medications"`
	Dosage      string  `json:"dosage"`
	Frequency   string  `json:"frequency"`
	Duration    string  `json:"duration"`
	Notes       *string `json:"notes,omitempty"`
}

type PrescriptionResponse struct {
	ID          int64   `json:"id"`
	BookingID   int64   `json:"booking_id"`
	Medications string  `json:"medications"`
	Dosage      string  `json:"dosage"`
	Frequency   string  `json:"frequency"`
	Duration    string  `json:"duration"`
	Notes       *string `json:"notes,omitempty"`
}

func toPrescriptionResponse(p *booking.Prescription) PrescriptionResponse {
	return PrescriptionResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		Medications: p.Medications,
		Dosage:      p.Dosage,
		Frequency:   p.Frequency,
		Duration:    p.Duration,
		Notes:       p.Notes,
	}
}

type CreateReviewRequest struct {
	BehaviourRating      int     `json:"behaviour_rating"`
	RecommendationRating int     `json:"recommendation_rating"`
	Comment              *string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ID                   int64     `json:"id"`
	AppointmentID        int64     `json:"appointment_id"`
	DoctorID             uuid.UUID `json:"doctor_id"`
	PatientID            uuid.UUID `json:"patient_id"`
	BehaviourRating      int       `json:"behaviour_rating"`
	RecommendationRating int       `json:"recommendation_rating"`
	Comment              *string   `json:"comment,omitempty"`
}

func toReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:                   r.ID,
		AppointmentID:        r.AppointmentID,
		DoctorID:             r.DoctorID,
		PatientID:            r.PatientID,
		BehaviourRating:      r.BehaviourRating,
		RecommendationRating: r.RecommendationRating,
		Comment:              r.Comment,
	}
}

type DoctorStatsResponse struct {
	DoctorID          uuid.UUID `json:"doctor_id"`
	ReviewCount       int64     `json:"review_count"`
	AvgBehaviour      float64   `json:"avg_behaviour"`
	AvgRecommendation float64   `json:"avg_recommendation"`
}
