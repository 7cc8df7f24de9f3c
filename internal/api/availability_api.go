package api

import (
	"net/http"
	"strconv"
	"time"

	"zapislon/internal/metrics"
	"zapislon/internal/slots"
)

// AvailableSlotsResponse is the response for GET /api/availability/slots.
type AvailableSlotsResponse struct {
	Date            string           `json:"date"`
	MasterID        int64            `json:"master_id"`
	ServiceDuration int              `json:"service_duration"`
	Slots           []slots.SlotInfo `json:"slots"`
}

// handleAvailableSlots returns candidate slots for a master, date and
// service duration.
// GET /api/availability/slots?master_id=1&date=2026-09-01&service_duration=30
func (s *HTTPServer) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("available_slots")

	masterID, err := strconv.ParseInt(r.URL.Query().Get("master_id"), 10, 64)
	if err != nil || masterID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "master_id must be a positive integer")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid date format; expected YYYY-MM-DD")
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("service_duration"))
	if err != nil || duration <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "service_duration must be a positive integer")
		return
	}

	computed, ok := s.cache.Get(r.Context(), masterID, date, duration)
	if !ok {
		computed, err = s.calculator.ComputeSlots(r.Context(), masterID, date, duration, s.granularity)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.cache.Put(r.Context(), masterID, date, duration, computed)
	}

	// The calculator does not treat "today" specially; the past-slot filter
	// belongs to this surface.
	now := time.Now()
	if sameDay(date, now) {
		computed = slots.FilterPast(computed, now)
	}

	resp := AvailableSlotsResponse{
		Date:            date.Format("2006-01-02"),
		MasterID:        masterID,
		ServiceDuration: duration,
		Slots:           slots.ToSlotInfo(computed),
	}
	writeJSON(w, http.StatusOK, resp)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
