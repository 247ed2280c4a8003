// Package server exposes the map, persons, statistics, occurrences and tile
// endpoints over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pjc-mt/casemap/internal/mapdata"
	"github.com/pjc-mt/casemap/internal/stats"
	"github.com/pjc-mt/casemap/internal/tiles"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

// maxUploadBytes bounds a multipart tip submission.
const maxUploadBytes = 32 << 20

// Deps are the services the handlers call.
type Deps struct {
	Client abitus.Client
	Maps   *mapdata.Service
	Stats  *stats.Service
	// Tiles is optional; without it the tile routes are not mounted.
	Tiles *tiles.Proxy
}

// Options tune the router.
type Options struct {
	CORSOrigins []string
}

// Server holds the HTTP handlers.
type Server struct {
	deps    Deps
	opts    Options
	nowFunc func() time.Time
}

// New creates a server.
func New(deps Deps, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{deps: deps, opts: opts, nowFunc: time.Now}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", abitus.CorrelationHeader},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/map", func(r chi.Router) {
			r.Get("/", s.handleMap)
			r.Get("/geojson", s.handleGeoJSON)
			r.Get("/legend", s.handleLegend)
			r.Get("/color", s.handleColor)
			r.Get("/export.xlsx", s.handleExport)
			r.Get("/cities/{city}", s.handleCity)
			r.Post("/refresh", s.handleRefresh)
		})
		r.Route("/persons", func(r chi.Router) {
			r.Get("/", s.handleSearchPersons)
			r.Get("/featured", s.handleFeatured)
			r.Get("/{id}", s.handleGetPerson)
		})
		r.Get("/stats", s.handleStats)
		r.Get("/stats/advanced", s.handleAdvancedStats)
		r.Route("/occurrences", func(r chi.Router) {
			r.Get("/reasons", s.handleReasons)
			r.Get("/{ocoID}/info", s.handleOccurrenceInfo)
			r.Post("/{ocoID}/info", s.handleAddOccurrenceInfo)
		})
	})

	if s.deps.Tiles != nil {
		r.Get("/tiles/stats", s.handleTileStats)
		r.Get("/tiles/{z}/{x}/{y}", s.handleTile)
	}

	return r
}
