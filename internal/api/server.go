// Package api exposes the reservation service over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"yoyaku/internal/availability"
	"yoyaku/internal/booking"
	"yoyaku/internal/cache"
	"yoyaku/internal/report"
)

// HTTPServer serves the customer and staff endpoints.
type HTTPServer struct {
	bookings         *booking.Service
	resolver         *availability.Resolver
	cache            *cache.Cache
	reports          report.ReservationLister
	log              *zerolog.Logger
	apiKey           string
	limitedThreshold int
}

// NewHTTPServer wires the handler dependencies. An empty apiKey disables
// authentication, which is only acceptable behind a trusted proxy.
func NewHTTPServer(
	bookings *booking.Service,
	resolver *availability.Resolver,
	c *cache.Cache,
	reports report.ReservationLister,
	log *zerolog.Logger,
	apiKey string,
	limitedThreshold int,
) *HTTPServer {
	return &HTTPServer{
		bookings:         bookings,
		resolver:         resolver,
		cache:            c,
		reports:          reports,
		log:              log,
		apiKey:           apiKey,
		limitedThreshold: limitedThreshold,
	}
}

// Handler builds the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/availability", s.withAuth(s.handleAreaAvailability))
	mux.HandleFunc("/api/v1/availability/", s.withAuth(s.handleStudioAvailability))
	mux.HandleFunc("/api/v1/reservations", s.withAuth(s.handleCreateReservation))
	mux.HandleFunc("/api/v1/reservations/", s.withAuth(s.handleReservationByCode))
	mux.HandleFunc("/api/v1/export/reservations", s.withAuth(s.handleExportReservations))
	return mux
}

func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeBookingError(w http.ResponseWriter, err error) {
	reason := booking.RejectReason(err)
	status := http.StatusBadRequest
	switch reason {
	case "not_found":
		status = http.StatusNotFound
	case "slot_unavailable", "duplicate_booking", "cancellation_window_expired":
		status = http.StatusConflict
	case "storage_error":
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
}

// pathSuffix extracts the path element after prefix, rejecting nested paths.
func pathSuffix(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := path[len(prefix):]
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
