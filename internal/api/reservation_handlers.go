package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"yoyaku/internal/booking"
	"yoyaku/internal/database"
	"yoyaku/internal/model"
	"yoyaku/internal/report"
)

// ReservationResponse is the public view of a reservation.
type ReservationResponse struct {
	Code         string `json:"code"`
	StudioID     string `json:"studio_id"`
	Area         string `json:"area"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	CustomerName string `json:"customer_name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	Status       string `json:"status"`
}

func toReservationResponse(r *model.Reservation) ReservationResponse {
	return ReservationResponse{
		Code:         r.Code,
		StudioID:     r.StudioID,
		Area:         r.Area,
		Date:         r.Date,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		CustomerName: r.CustomerName,
		Category:     string(r.Category),
		Price:        r.Price,
		Status:       r.Status,
	}
}

// handleCreateReservation books a studio.
// POST /api/v1/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req booking.CreateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reservation, err := s.bookings.Create(r.Context(), req)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	s.cache.InvalidateStudioDay(r.Context(), reservation.StudioID, reservation.Area, reservation.Date)
	writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

// handleReservationByCode serves lookup and cancellation.
// GET    /api/v1/reservations/{code}
// DELETE /api/v1/reservations/{code}
func (s *HTTPServer) handleReservationByCode(w http.ResponseWriter, r *http.Request) {
	code, ok := pathSuffix(r.URL.Path, "/api/v1/reservations/")
	if !ok {
		writeError(w, http.StatusBadRequest, "reservation code is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		reservation, err := s.bookings.Lookup(r.Context(), code)
		if err != nil {
			writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(reservation))

	case http.MethodDelete:
		reservation, err := s.bookings.Cancel(r.Context(), code)
		if err != nil {
			writeBookingError(w, err)
			return
		}
		s.cache.InvalidateStudioDay(r.Context(), reservation.StudioID, reservation.Area, reservation.Date)
		writeJSON(w, http.StatusOK, toReservationResponse(reservation))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExportReservations streams an Excel workbook of reservations.
// GET /api/v1/export/reservations?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExportReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" || from > to {
		writeError(w, http.StatusBadRequest, "from and to are required and from must not exceed to")
		return
	}

	// The workbook is built in memory first so a store failure still gets a
	// proper error status instead of a truncated download.
	var buf bytes.Buffer
	if err := report.WriteReservationsExcel(r.Context(), s.reports, from, to, &buf); err != nil {
		s.log.Error().Err(err).Str("from", from).Str("to", to).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations_`+from+`_`+to+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Error().Err(err).Msg("export write failed")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound) || errors.Is(err, booking.ErrNotFound)
}
