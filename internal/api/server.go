// Package api exposes the scheduling engine over HTTP. The handlers are a
// thin layer: parsing, error mapping and response shaping only.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"zapislon/internal/booking"
	"zapislon/internal/cache"
	"zapislon/internal/db"
	"zapislon/internal/model"
	"zapislon/internal/report"
	"zapislon/internal/schedule"
	"zapislon/internal/slots"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HTTPServer wires the engine's services to HTTP handlers.
type HTTPServer struct {
	db          *db.DB
	schedules   *schedule.Store
	calculator  *slots.Calculator
	bookings    *booking.Service
	cache       *cache.AvailabilityCache
	reports     *report.Exporter
	redis       *redis.Client
	granularity int
	logger      *zerolog.Logger
	server      *http.Server
}

// Options configures the HTTP server.
type Options struct {
	Port               int
	GranularityMinutes int
	PrometheusEnabled  bool
	RatePerSecond      float64
	RateBurst          int
	Redis              *redis.Client
}

// NewHTTPServer builds the server and its routes.
func NewHTTPServer(
	database *db.DB,
	schedules *schedule.Store,
	calculator *slots.Calculator,
	bookings *booking.Service,
	availCache *cache.AvailabilityCache,
	reports *report.Exporter,
	opts Options,
	logger *zerolog.Logger,
) *HTTPServer {
	s := &HTTPServer{
		db:          database,
		schedules:   schedules,
		calculator:  calculator,
		bookings:    bookings,
		cache:       availCache,
		reports:     reports,
		redis:       opts.Redis,
		granularity: opts.GranularityMinutes,
		logger:      logger,
	}
	if s.granularity <= 0 {
		s.granularity = slots.DefaultGranularityMinutes
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/availability/slots", s.handleAvailableSlots)

	mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/bookings", s.handleListBookings)
	mux.HandleFunc("GET /api/bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("PATCH /api/bookings/{id}", s.handleUpdateBooking)

	mux.HandleFunc("GET /api/masters/{id}/schedule", s.handleGetWeek)
	mux.HandleFunc("PUT /api/masters/{id}/schedule/{weekday}", s.handleUpsertWeeklyEntry)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.handleDeactivateEntry)
	mux.HandleFunc("GET /api/masters/{id}/day-offs", s.handleListDayOffs)
	mux.HandleFunc("POST /api/masters/{id}/day-offs", s.handleAddDayOff)
	mux.HandleFunc("DELETE /api/day-offs/{id}", s.handleRemoveDayOff)

	mux.HandleFunc("GET /api/reports/bookings", s.handleBookingsReport)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.PrometheusEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	handler := withRequestID(withAccessLog(logger, withRateLimit(opts.RatePerSecond, opts.RateBurst, mux)))
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"db": "ok"}
	code := http.StatusOK

	if err := s.db.PingContext(r.Context()); err != nil {
		status["db"] = "down"
		code = http.StatusServiceUnavailable
	}
	if s.redis != nil {
		status["redis"] = "ok"
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			status["redis"] = "down"
		}
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorResponse{Error: kind, Message: message})
}

// respondError maps the engine's typed errors onto HTTP status codes.
func (s *HTTPServer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *model.ValidationError
	var conflict *booking.SlotConflictError
	var transition *model.InvalidTransitionError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "validation_error", Message: validation.Reason, Field: validation.Field,
		})
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "slot_conflict", conflict.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "busy", "engine busy, retry with backoff")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
