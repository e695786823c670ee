package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/auth"
	"github.com/curelink/booking-engine/internal/review"
)

func createReviewHandler(svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requireRole(w, r, auth.RolePatient)
		if !ok {
			return
		}

		appointmentID, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		var req CreateReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rev, err := svc.Create(r.Context(), review.CreateInput{
			AppointmentID:        appointmentID,
			PatientID:            principal.UserID,
			BehaviourRating:      req.BehaviourRating,
			RecommendationRating: req.RecommendationRating,
			Comment:              req.Comment,
		})
		if err != nil {
			handleReviewError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReviewResponse(rev))
	}
}

func getReviewHandler(svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		rev, err := svc.GetByAppointment(r.Context(), appointmentID)
		if err != nil {
			handleReviewError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReviewResponse(rev))
	}
}

func listDoctorReviewsHandler(svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)

		result, err := svc.ListByDoctor(r.Context(), doctorID, limit, offset)
		if err != nil {
			handleReviewError(w, err)
			return
		}

		resp := make([]ReviewResponse, 0, len(result))
		for i := range result {
			resp = append(resp, toReviewResponse(&result[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func doctorReviewStatsHandler(svc ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		stats, err := svc.DoctorStats(r.Context(), doctorID)
		if err != nil {
			handleReviewError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DoctorStatsResponse{
			DoctorID:          stats.DoctorID,
			ReviewCount:       stats.ReviewCount,
			AvgBehaviour:      stats.AvgBehaviour,
			AvgRecommendation: stats.AvgRecommendation,
		})
	}
}

func handleReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "invalid_rating", err.Error())
	case errors.Is(err, review.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, review.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, "review_not_found", err.Error())
	case errors.Is(err, review.ErrNotAppointmentPatient):
		writeError(w, http.StatusForbidden, "not_appointment_patient", err.Error())
	case errors.Is(err, review.ErrAppointmentNotCompleted):
		writeError(w, http.StatusConflict, "appointment_not_completed", err.Error())
	case errors.Is(err, review.ErrReviewExists):
		writeError(w, http.StatusConflict, "review_already_exists", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
