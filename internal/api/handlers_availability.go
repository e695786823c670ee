package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curelink/booking-engine/internal/availability"
)

const dateLayout = "2006-01-02"

func addSlotHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		in, ok := slotInput(w, doctorID, req.SlotEntry)
		if !ok {
			return
		}

		slot, err := svc.AddSlot(r.Context(), in)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func addSlotsBatchHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddSlotsBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		inputs := make([]availability.AddSlotInput, 0, len(req.Slots))
		for _, entry := range req.Slots {
			in, ok := slotInput(w, doctorID, entry)
			if !ok {
				return
			}
			inputs = append(inputs, in)
		}

		slots, err := svc.AddSlots(r.Context(), inputs)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func deleteSlotHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}

		doctorID, err := uuid.Parse(r.URL.Query().Get("doctor_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		if err := svc.DeleteSlot(r.Context(), slotID, doctorID); err != nil {
			handleSlotError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listSlotsHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var date *time.Time
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := time.Parse(dateLayout, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = &d
		}

		slots, err := svc.ListSlots(r.Context(), doctorID, date)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, toSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		annotated, err := svc.AnnotateAvailability(r.Context(), doctorID, date)
		if err != nil {
			handleSlotError(w, err)
			return
		}

		resp := make([]AnnotatedSlotResponse, 0, len(annotated))
		for i := range annotated {
			resp = append(resp, AnnotatedSlotResponse{
				SlotResponse: toSlotResponse(&annotated[i].Slot),
				IsBooked:     annotated[i].IsBooked,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func slotInput(w http.ResponseWriter, doctorID uuid.UUID, entry SlotEntry) (availability.AddSlotInput, bool) {
	date, err := time.Parse(dateLayout, entry.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return availability.AddSlotInput{}, false
	}

	return availability.AddSlotInput{
		DoctorID:        doctorID,
		Date:            date,
		StartTime:       entry.StartTime,
		EndTime:         entry.EndTime,
		DurationMinutes: entry.DurationMinutes,
		Location:        entry.Location,
		Custom:          entry.Custom,
	}, true
}

func handleSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range", err.Error())
	case errors.Is(err, availability.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotNotOwned):
		writeError(w, http.StatusForbidden, "slot_not_owned", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
