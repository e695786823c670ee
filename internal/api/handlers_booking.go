package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/auth"
	"github.com/curelink/booking-engine/internal/booking"
	redisclient "github.com/curelink/booking-engine/internal/redis"
	"github.com/curelink/booking-engine/internal/video"
)

func createBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at must be RFC 3339")
			return
		}

		appt, err := svc.Create(r.Context(), booking.CreateInput{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: scheduledAt,
			Reason:      req.Reason,
			Symptoms:    req.Symptoms,
			Type:        booking.BookingType(req.Type),
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(appt))
	}
}

func getBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func changeBookingStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		var req ChangeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, booking.BookingStatus(req.Status), req.RejectionReason)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func deleteBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func createFollowUpHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requireRole(w, r, auth.RoleDoctor)
		if !ok {
			return
		}

		originalID, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		var req FollowUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at must be RFC 3339")
			return
		}

		appt, err := svc.CreateFollowUp(r.Context(), principal.UserID, originalID, scheduledAt, booking.BookingType(req.Type))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(appt))
	}
}

func getVideoInfoHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		info, err := svc.GetVideoInfo(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, VideoInfoResponse{
			BookingID:   info.BookingID,
			RoomCode:    info.RoomCode,
			ScheduledAt: info.ScheduledAt,
			Type:        string(info.Type),
		})
	}
}

func upsertPrescriptionHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requireRole(w, r, auth.RoleDoctor)
		if !ok {
			return
		}

		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		var req PrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.UpsertPrescription(r.Context(), principal.UserID, booking.PrescriptionInput{
			BookingID:   id,
			Medications: req.Medications,
			Dosage:      req.Dosage,
			Frequency:   req.Frequency,
			Duration:    req.Duration,
			Notes:       req.Notes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
	}
}

func getPrescriptionHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.GetPrescription(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(p))
	}
}

func listPatientBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)

		result, err := svc.ListByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(result))
		for i := range result {
			resp = append(resp, toBookingResponse(&result[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listDoctorBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)

		result, err := svc.ListByDoctor(r.Context(), doctorID, limit, offset)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(result))
		for i := range result {
			resp = append(resp, toBookingResponse(&result[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, booking.ErrNotVirtual):
		writeError(w, http.StatusNotFound, "no_video_room", err.Error())
	case errors.Is(err, booking.ErrInvalidBookingType),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, booking.ErrRejectionReasonRequired):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, booking.ErrNotBookingOwner):
		writeError(w, http.StatusForbidden, "not_booking_owner", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrBookingNotPending):
		writeError(w, http.StatusConflict, "booking_not_pending", err.Error())
	case errors.Is(err, booking.ErrTimeAlreadyBooked):
		writeError(w, http.StatusConflict, "time_already_booked", err.Error())
	case errors.Is(err, booking.ErrTimeBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "time_being_booked", "this time is currently being booked, please retry shortly")
	case errors.Is(err, video.ErrRoomCreateFailed),
		errors.Is(err, video.ErrCodeIssueFailed),
		errors.Is(err, video.ErrEmptyJoinCode):
		writeError(w, http.StatusBadGateway, "video_provisioning_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func bookingIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be an integer")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func requireRole(w http.ResponseWriter, r *http.Request, role string) (*auth.Principal, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a bearer token is required")
		return nil, false
	}
	if principal.Role != role && principal.Role != auth.RoleAdmin {
		writeError(w, http.StatusForbidden, "wrong_role", "caller role cannot perform this operation")
		return nil, false
	}
	return principal, true
}
