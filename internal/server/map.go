package server

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/internal/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if r.URL.Query().Get("upstream") == "true" {
		up := s.deps.Client.Ping(r.Context())
		body["abitus"] = up
		if !up {
			body["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func statusParam(r *http.Request) (casemap.Status, error) {
	return casemap.ParseStatus(r.URL.Query().Get("status"))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	filter, err := statusParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.Maps.View(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, err := statusParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.Maps.View(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := casemap.MarshalGeoJSON(v)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "encode geojson")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	filter, err := statusParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.Maps.View(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*casemap.Legend{"legend": v.Legend})
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	intensity, err := strconv.ParseFloat(q.Get("intensity"), 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "intensity must be a number")
		return
	}
	category, err := casemap.ParseCategory(q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"color":    casemap.ColorForIntensity(intensity, category),
		"category": category,
	})
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "city"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid city")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErrorMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	detail, ok, err := s.deps.Maps.City(r.Context(), name, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "city not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := statusParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cities, err := s.deps.Maps.Cities(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := casemap.BuildView(cities, filter, s.deps.Maps.Gazetteer())

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, v, casemap.FilterCities(cities, filter)); err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "build spreadsheet")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="mapa-casos.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.deps.Maps.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "cache": s.deps.Maps.CacheStats()})
}
