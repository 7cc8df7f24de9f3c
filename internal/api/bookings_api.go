package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"zapislon/internal/booking"
	"zapislon/internal/db"
	"zapislon/internal/metrics"
	"zapislon/internal/model"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	MasterID    int64  `json:"master_id"`
	ServiceID   int64  `json:"service_id"`
	ClientID    int64  `json:"client_id"`
	StartAt     string `json:"start_at"` // RFC3339
	ClientNotes string `json:"client_notes,omitempty"`
}

// UpdateBookingRequest is the request body for PATCH /api/bookings/{id}.
// Status changes route through the lifecycle manager; salon_notes is a
// plain field update.
type UpdateBookingRequest struct {
	Status     string `json:"status,omitempty"`
	SalonNotes string `json:"salon_notes,omitempty"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.MasterID <= 0 || req.ServiceID <= 0 || req.ClientID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "master_id, service_id and client_id are required")
		return
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid start_at; expected RFC3339")
		return
	}

	b, err := s.bookings.Create(r.Context(), booking.CreateRequest{
		MasterID:    req.MasterID,
		ServiceID:   req.ServiceID,
		ClientID:    req.ClientID,
		StartAt:     startAt.In(time.Local),
		ClientNotes: req.ClientNotes,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	b, err := s.db.GetBooking(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	filter := db.BookingFilter{}
	q := r.URL.Query()

	filter.MasterID, _ = strconv.ParseInt(q.Get("master_id"), 10, 64)
	filter.SalonID, _ = strconv.ParseInt(q.Get("salon_id"), 10, 64)
	filter.ClientID, _ = strconv.ParseInt(q.Get("client_id"), 10, 64)

	if status := q.Get("status"); status != "" {
		st := model.Status(status)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", status))
			return
		}
		filter.Status = st
	}
	if from := q.Get("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid from date; expected YYYY-MM-DD")
			return
		}
		filter.DateFrom = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid to date; expected YYYY-MM-DD")
			return
		}
		filter.DateTo = t.Add(24 * time.Hour)
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	bookings, err := s.db.ListBookings(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_booking")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var req UpdateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Status == "" && req.SalonNotes == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "nothing to update")
		return
	}

	if req.SalonNotes != "" {
		if err := s.db.UpdateSalonNotes(r.Context(), id, req.SalonNotes); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	if req.Status != "" {
		b, err := s.bookings.Transition(r.Context(), id, model.Status(req.Status))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
		return
	}

	b, err := s.db.GetBooking(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleBookingsReport streams an XLSX export of bookings.
// GET /api/reports/bookings?salon_id=1&from=2026-08-01&to=2026-08-31
func (s *HTTPServer) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_report")

	filter := db.BookingFilter{}
	q := r.URL.Query()
	filter.SalonID, _ = strconv.ParseInt(q.Get("salon_id"), 10, 64)
	filter.MasterID, _ = strconv.ParseInt(q.Get("master_id"), 10, 64)
	if from := q.Get("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid from date; expected YYYY-MM-DD")
			return
		}
		filter.DateFrom = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid to date; expected YYYY-MM-DD")
			return
		}
		filter.DateTo = t.Add(24 * time.Hour)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if _, err := s.reports.WriteBookings(r.Context(), w, filter); err != nil {
		s.logger.Error().Err(err).Msg("report export failed")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
