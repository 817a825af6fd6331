package web

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/snepalysis/internal/core"
	"github.com/JonMunkholm/snepalysis/internal/store"
	"github.com/mmcloughlin/geohash"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Uptime int64 `json:"uptime"`
}

// SummaryResponse is the body of GET /data without a page.
type SummaryResponse struct {
	Pages int64 `json:"pages"`
	Count int64 `json:"count"`
}

// RecordResponse is one stored record as served by GET /data?page=N.
// Coordinates that are not numbers are encoded as null.
type RecordResponse struct {
	ID        string   `json:"_id"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"long"`
	Country   string   `json:"country"`
	State     string   `json:"state"`
	Geohash   string   `json:"geohash,omitempty"`
}

// handleStatus reports whole seconds since the server started.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{Uptime: int64(time.Since(s.started) / time.Second)})
}

// handleData serves the page summary, or one page of records when page is set.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("page")
	if raw == "" {
		count, err := s.store.Count(ctx, core.AnyScope())
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, errInternal, err)
			return
		}
		writeJSON(w, SummaryResponse{Pages: pageCount(count, s.opts.PageSize), Count: count})
		return
	}

	page, ok := parsePage(raw)
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBadRequest, nil)
		return
	}

	entries, err := s.store.Page(ctx, (page-1)*s.opts.PageSize, s.opts.PageSize)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errInternal, err)
		return
	}

	out := make([]RecordResponse, len(entries))
	for i, e := range entries {
		out[i] = s.recordResponse(e)
	}
	writeJSON(w, out)
}

// handleNotFound answers unknown routes and methods alike.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, errNotFound, nil)
}

func (s *Server) recordResponse(e store.Entry) RecordResponse {
	resp := RecordResponse{
		ID:        e.ID,
		Latitude:  finite(e.Record.Latitude),
		Longitude: finite(e.Record.Longitude),
		Country:   e.Record.Country,
		State:     e.Record.State,
	}
	if validCoordinates(e.Record.Latitude, e.Record.Longitude) {
		resp.Geohash = geohash.EncodeWithPrecision(e.Record.Latitude, e.Record.Longitude, s.opts.GeohashPrecision)
	}
	return resp
}

// parsePage accepts positive integers only. "2.0" is accepted as 2.
func parsePage(raw string) (int, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n >= 1 && n <= math.MaxInt32
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 1 || f != math.Floor(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func pageCount(count int64, pageSize int) int64 {
	size := int64(pageSize)
	return (count + size - 1) / size
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
