package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/auth"
	"github.com/curelink/booking-engine/internal/availability"
	"github.com/curelink/booking-engine/internal/booking"
	"github.com/curelink/booking-engine/internal/review"
)

type stubBookingService struct {
	createFn       func(ctx context.Context, in booking.CreateInput) (*booking.Booking, error)
	changeStatusFn func(ctx context.Context, id int64, newStatus booking.BookingStatus, rejectionReason *string) (*booking.Booking, error)
	followUpFn     func(ctx context.Context, requestingDoctorID uuid.UUID, originalID int64, scheduledAt time.Time, bookingType booking.BookingType) (*booking.Booking, error)
}

func (s *stubBookingService) Create(ctx context.Context, in booking.CreateInput) (*booking.Booking, error) {
	return s.createFn(ctx, in)
}
func (s *stubBookingService) ChangeStatus(ctx context.Context, id int64, newStatus booking.BookingStatus, rejectionReason *string) (*booking.Booking, error) {
	return s.changeStatusFn(ctx, id, newStatus, rejectionReason)
}
func (s *stubBookingService) Delete(context.Context, int64) error { return nil }
func (s *stubBookingService) CreateFollowUp(ctx context.Context, requestingDoctorID uuid.UUID, originalID int64, scheduledAt time.Time, bookingType booking.BookingType) (*booking.Booking, error) {
	return s.followUpFn(ctx, requestingDoctorID, originalID, scheduledAt, bookingType)
}
func (s *stubBookingService) Get(context.Context, int64) (*booking.Booking, error) {
	return nil, booking.ErrBookingNotFound
}
func (s *stubBookingService) ListByPatient(context.Context, uuid.UUID, int, int) ([]booking.Booking, error) {
	return nil, nil
}
func (s *stubBookingService) ListByDoctor(context.Context, uuid.UUID, int, int) ([]booking.Booking, error) {
	return nil, nil
}
func (s *stubBookingService) GetVideoInfo(context.Context, int64) (*booking.VideoInfo, error) {
	return nil, booking.ErrNotVirtual
}
func (s *stubBookingService) UpsertPrescription(context.Context, uuid.UUID, booking.PrescriptionInput) (*booking.Prescription, error) {
	return nil, booking.ErrBookingNotFound
}
func (s *stubBookingService) GetPrescription(context.Context, int64) (*booking.Prescription, error) {
	return nil, booking.ErrPrescriptionNotFound
}

func routeWithParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateBookingHandler(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	svc := &stubBookingService{
		createFn: func(_ context.Context, in booking.CreateInput) (*booking.Booking, error) {
			return &booking.Booking{
				ID:          1,
				PatientID:   in.PatientID,
				DoctorID:    in.DoctorID,
				ScheduledAt: in.ScheduledAt,
				Type:        booking.TypePhysical,
				Status:      booking.StatusPending,
			}, nil
		},
	}

	body, _ := json.Marshal(CreateBookingRequest{
		PatientID:   patientID.String(),
		DoctorID:    doctorID.String(),
		ScheduledAt: "2025-03-01T09:00:00Z",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	createBookingHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp BookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "pending" || resp.PatientID != patientID {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreateBookingHandlerBadIDs(t *testing.T) {
	svc := &stubBookingService{}

	body, _ := json.Marshal(CreateBookingRequest{
		PatientID:   "not-a-uuid",
		DoctorID:    uuid.NewString(),
		ScheduledAt: "2025-03-01T09:00:00Z",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	createBookingHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChangeStatusHandlerMissingReason(t *testing.T) {
	svc := &stubBookingService{
		changeStatusFn: func(context.Context, int64, booking.BookingStatus, *string) (*booking.Booking, error) {
			return nil, booking.ErrRejectionReasonRequired
		},
	}

	body, _ := json.Marshal(ChangeStatusRequest{Status: "rejected"})
	rec := httptest.NewRecorder()
	req := routeWithParam(httptest.NewRequest(http.MethodPatch, "/bookings/7/status", bytes.NewReader(body)), "id", "7")
	changeBookingStatusHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing rejection reason, got %d", rec.Code)
	}
}

func TestFollowUpHandlerAuth(t *testing.T) {
	doctorID := uuid.New()

	svc := &stubBookingService{
		followUpFn: func(_ context.Context, requester uuid.UUID, originalID int64, at time.Time, _ booking.BookingType) (*booking.Booking, error) {
			if requester != doctorID {
				t.Errorf("handler passed wrong requester: %s", requester)
			}
			return &booking.Booking{ID: 2, DoctorID: requester, Status: booking.StatusPending, OriginalBookingID: &originalID, ScheduledAt: at, Type: booking.TypePhysical}, nil
		},
	}

	body, _ := json.Marshal(FollowUpRequest{ScheduledAt: "2025-03-10T09:00:00Z"})

	// Without a principal: 401.
	rec := httptest.NewRecorder()
	req := routeWithParam(httptest.NewRequest(http.MethodPost, "/bookings/1/follow-up", bytes.NewReader(body)), "id", "1")
	createFollowUpHandler(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without principal, got %d", rec.Code)
	}

	// A patient principal: 403.
	rec = httptest.NewRecorder()
	req = routeWithParam(httptest.NewRequest(http.MethodPost, "/bookings/1/follow-up", bytes.NewReader(body)), "id", "1")
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: uuid.New(), Role: auth.RolePatient}))
	createFollowUpHandler(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for patient role, got %d", rec.Code)
	}

	// A doctor principal: created.
	body, _ = json.Marshal(FollowUpRequest{ScheduledAt: "2025-03-10T09:00:00Z"})
	rec = httptest.NewRecorder()
	req = routeWithParam(httptest.NewRequest(http.MethodPost, "/bookings/1/follow-up", bytes.NewReader(body)), "id", "1")
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: doctorID, Role: auth.RoleDoctor}))
	createFollowUpHandler(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

type stubAvailabilityService struct {
	annotateFn func(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]availability.AnnotatedSlot, error)
	deleteFn   func(ctx context.Context, slotID, doctorID uuid.UUID) error
}

func (s *stubAvailabilityService) AddSlot(context.Context, availability.AddSlotInput) (*availability.Slot, error) {
	return nil, nil
}
func (s *stubAvailabilityService) AddSlots(context.Context, []availability.AddSlotInput) ([]availability.Slot, error) {
	return nil, nil
}
func (s *stubAvailabilityService) ListSlots(context.Context, uuid.UUID, *time.Time) ([]availability.Slot, error) {
	return nil, nil
}
func (s *stubAvailabilityService) DeleteSlot(ctx context.Context, slotID, doctorID uuid.UUID) error {
	return s.deleteFn(ctx, slotID, doctorID)
}
func (s *stubAvailabilityService) AnnotateAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]availability.AnnotatedSlot, error) {
	return s.annotateFn(ctx, doctorID, date)
}

func TestAvailabilityHandler(t *testing.T) {
	doctorID := uuid.New()

	svc := &stubAvailabilityService{
		annotateFn: func(_ context.Context, gotDoctor uuid.UUID, date time.Time) ([]availability.AnnotatedSlot, error) {
			slot := availability.Slot{
				ID:        uuid.New(),
				DoctorID:  gotDoctor,
				Date:      date,
				StartTime: "10:00",
				EndTime:   "10:30",
			}
			return []availability.AnnotatedSlot{{Slot: slot, IsBooked: true}}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := routeWithParam(httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID.String()+"/availability?date=2025-03-01", nil), "id", doctorID.String())
	availabilityHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []AnnotatedSlotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || !resp[0].IsBooked || resp[0].StartTime != "10:00" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDeleteSlotHandlerOwnership(t *testing.T) {
	svc := &stubAvailabilityService{
		deleteFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return availability.ErrSlotNotOwned
		},
	}

	slotID := uuid.New()
	rec := httptest.NewRecorder()
	req := routeWithParam(httptest.NewRequest(http.MethodDelete, "/slots/"+slotID.String()+"?doctor_id="+uuid.NewString(), nil), "id", slotID.String())
	deleteSlotHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

type stubReviewService struct {
	createFn func(ctx context.Context, in review.CreateInput) (*review.Review, error)
}

func (s *stubReviewService) Create(ctx context.Context, in review.CreateInput) (*review.Review, error) {
	return s.createFn(ctx, in)
}
func (s *stubReviewService) GetByAppointment(context.Context, int64) (*review.Review, error) {
	return nil, review.ErrReviewNotFound
}
func (s *stubReviewService) ListByDoctor(context.Context, uuid.UUID, int, int) ([]review.Review, error) {
	return nil, nil
}
func (s *stubReviewService) DoctorStats(context.Context, uuid.UUID) (*review.DoctorStats, error) {
	return &review.DoctorStats{}, nil
}

func TestCreateReviewHandlerDuplicate(t *testing.T) {
	svc := &stubReviewService{
		createFn: func(context.Context, review.CreateInput) (*review.Review, error) {
			return nil, review.ErrReviewExists
		},
	}

	body, _ := json.Marshal(CreateReviewRequest{BehaviourRating: 5, RecommendationRating: 4})
	rec := httptest.NewRecorder()
	req := routeWithParam(httptest.NewRequest(http.MethodPost, "/appointments/1/reviews", bytes.NewReader(body)), "id", "1")
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: uuid.New(), Role: auth.RolePatient}))
	createReviewHandler(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate review, got %d", rec.Code)
	}
}
