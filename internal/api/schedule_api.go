package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"zapislon/internal/metrics"
	"zapislon/internal/model"
)

// WeeklyEntryRequest is the request body for PUT /api/masters/{id}/schedule/{weekday}.
type WeeklyEntryRequest struct {
	WorkStart  string `json:"work_start"`
	WorkEnd    string `json:"work_end"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
}

// DayOffRequest is the request body for POST /api/masters/{id}/day-offs.
type DayOffRequest struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Reason string `json:"reason,omitempty"`
}

func (s *HTTPServer) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_week")

	masterID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	entries, err := s.schedules.ListWeek(r.Context(), masterID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.WeeklySchedule{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"master_id": masterID, "schedule": entries})
}

func (s *HTTPServer) handleUpsertWeeklyEntry(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("upsert_weekly_entry")

	masterID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	weekday, err := strconv.Atoi(r.PathValue("weekday"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "weekday must be an integer 0-6")
		return
	}

	var req WeeklyEntryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	entry := &model.WeeklySchedule{
		MasterID:   masterID,
		DayOfWeek:  weekday,
		WorkStart:  req.WorkStart,
		WorkEnd:    req.WorkEnd,
		BreakStart: req.BreakStart,
		BreakEnd:   req.BreakEnd,
	}
	if err := s.schedules.UpsertWeeklyEntry(r.Context(), entry); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *HTTPServer) handleDeactivateEntry(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("deactivate_entry")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.schedules.DeactivateWeeklyEntry(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListDayOffs(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_day_offs")

	masterID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(1, 0, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.ParseInLocation("2006-01-02", v, time.Local); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid from date; expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.ParseInLocation("2006-01-02", v, time.Local); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid to date; expected YYYY-MM-DD")
			return
		}
	}

	offs, err := s.schedules.ListDayOffs(r.Context(), masterID, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if offs == nil {
		offs = []model.DayOff{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"master_id": masterID, "day_offs": offs})
}

func (s *HTTPServer) handleAddDayOff(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_day_off")

	masterID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var req DayOffRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid date; expected YYYY-MM-DD")
		return
	}

	off, err := s.schedules.AddDayOff(r.Context(), masterID, date, req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, off)
}

func (s *HTTPServer) handleRemoveDayOff(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("remove_day_off")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.schedules.RemoveDayOff(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
