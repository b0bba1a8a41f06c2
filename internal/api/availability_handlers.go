package api

import (
	"net/http"

	"yoyaku/internal/availability"
	"yoyaku/internal/cache"
	"yoyaku/internal/timegrid"
)

// SlotResponse is one slot of a studio's day.
type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	State string `json:"state"`
}

// StudioDayResponse is the availability of one studio on one date.
type StudioDayResponse struct {
	StudioID  string         `json:"studio_id"`
	Date      string         `json:"date"`
	Available int            `json:"available"`
	Total     int            `json:"total"`
	Status    string         `json:"status"`
	Slots     []SlotResponse `json:"slots"`
}

// handleStudioAvailability returns the per-slot state of one studio.
// GET /api/v1/availability/{studio_id}?date=YYYY-MM-DD
func (s *HTTPServer) handleStudioAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	studioID, ok := pathSuffix(r.URL.Path, "/api/v1/availability/")
	if !ok {
		writeError(w, http.StatusBadRequest, "studio id is required")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := availability.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	key := cache.StudioDayKey(studioID, date)
	var cached StudioDayResponse
	if s.cache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	day, err := s.resolver.ResolveDay(r.Context(), studioID, date)
	if err != nil {
		s.writeResolveError(w, err, studioID)
		return
	}

	grid := s.resolver.Grid()
	resp := StudioDayResponse{
		StudioID: studioID,
		Date:     date,
		Total:    len(day.States),
		Slots:    make([]SlotResponse, 0, len(day.States)),
	}
	resp.Available, resp.Status = availability.Summarize(day.States, s.limitedThreshold)
	for idx, state := range day.States {
		start, _ := grid.TimeOf(idx)
		end := start + timegrid.ClockTime(grid.SlotMinutes)
		resp.Slots = append(resp.Slots, SlotResponse{
			Start: start.String(),
			End:   end.String(),
			State: state.String(),
		})
	}

	s.cache.Set(r.Context(), key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleAreaAvailability returns the per-studio summary of an area.
// GET /api/v1/availability?area=onpukan&date=YYYY-MM-DD
func (s *HTTPServer) handleAreaAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	area := r.URL.Query().Get("area")
	if area == "" {
		writeError(w, http.StatusBadRequest, "area is required")
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := availability.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	key := cache.AreaDayKey(area, date)
	var cached availability.AreaDay
	if s.cache.Get(r.Context(), key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	result, err := s.resolver.ResolveArea(r.Context(), area, date, s.limitedThreshold)
	if err != nil {
		s.log.Error().Err(err).Str("area", area).Str("date", date).Msg("area availability failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve availability")
		return
	}

	s.cache.Set(r.Context(), key, result)
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) writeResolveError(w http.ResponseWriter, err error, studioID string) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "studio not found")
		return
	}
	s.log.Error().Err(err).Str("studio", studioID).Msg("availability resolve failed")
	writeError(w, http.StatusInternalServerError, "failed to resolve availability")
}
