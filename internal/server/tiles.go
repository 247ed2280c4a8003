package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleTile serves /tiles/{z}/{x}/{y}.png through the basemap proxy.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	yRaw := chi.URLParam(r, "y")
	if i := strings.IndexByte(yRaw, '.'); i >= 0 {
		yRaw = yRaw[:i]
	}
	y, errY := strconv.Atoi(yRaw)
	if errZ != nil || errX != nil || errY != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid tile path")
		return
	}

	tile, err := s.deps.Tiles.Fetch(r.Context(), z, x, y)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", tile.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if tile.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(tile.Data)
}

func (s *Server) handleTileStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cache":   s.deps.Tiles.CacheStats(),
		"breaker": s.deps.Tiles.Breaker().State(),
	})
}
