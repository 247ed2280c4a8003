// Package mapdata loads case records from the police API and turns them
// into the per-city statistics the map is drawn from.
package mapdata

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pjc-mt/casemap/internal/cache"
	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

const citiesKey = "cities"

// DefaultSampleSize is how many persons one refresh reads from the API.
const DefaultSampleSize = 500

// loadTimeout bounds a shared refresh, which outlives the caller that
// started it.
const loadTimeout = time.Minute

// Config configures a Service.
type Config struct {
	SampleSize  int
	RecentCases int
	CacheTTL    time.Duration
}

// Service serves map views over cached city statistics.
type Service struct {
	client    abitus.Client
	gazetteer *casemap.Gazetteer
	cache     *cache.LRU[[]casemap.CityCaseStats]
	group     singleflight.Group

	// mu orders cache writes against Invalidate. gen counts invalidations so
	// a load that started before one does not re-cache its result.
	mu  sync.Mutex
	gen uint64

	sampleSize  int
	recentCases int
}

// NewService creates a map data service. A nil gazetteer uses the bundled
// Mato Grosso gazetteer.
func NewService(client abitus.Client, g *casemap.Gazetteer, cfg Config) *Service {
	if g == nil {
		g = casemap.DefaultGazetteer()
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.RecentCases <= 0 {
		cfg.RecentCases = casemap.DefaultRecentCases
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Service{
		client:      client,
		gazetteer:   g,
		cache:       cache.New[[]casemap.CityCaseStats](1, cfg.CacheTTL),
		sampleSize:  cfg.SampleSize,
		recentCases: cfg.RecentCases,
	}
}

// Gazetteer returns the gazetteer markers are placed with.
func (s *Service) Gazetteer() *casemap.Gazetteer {
	return s.gazetteer
}

// Cities returns the per-city statistics, refreshing them from the API when
// the cached copy has expired. Concurrent refreshes share one API call.
func (s *Service) Cities(ctx context.Context) ([]casemap.CityCaseStats, error) {
	if cities, ok := s.cache.Get(citiesKey); ok {
		return cities, nil
	}
	return s.load(ctx, true)
}

// Refresh reloads the statistics from the API even when the cached copy is
// still fresh. On failure the cached copy is kept.
func (s *Service) Refresh(ctx context.Context) ([]casemap.CityCaseStats, error) {
	return s.load(ctx, false)
}

func (s *Service) load(ctx context.Context, useCache bool) ([]casemap.CityCaseStats, error) {
	ch := s.group.DoChan(citiesKey, func() (any, error) {
		if useCache {
			if cities, ok := s.cache.Get(citiesKey); ok {
				return cities, nil
			}
		}
		gen := s.generation()

		// Callers share this fetch, so one of them going away must not
		// cancel it for the rest.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		page, err := s.client.SearchPersons(fetchCtx, abitus.SearchFilter{PerPage: s.sampleSize})
		if err != nil {
			return nil, eris.Wrap(err, "mapdata: load persons")
		}
		cities := GroupByCity(page.Persons)
		if !s.store(gen, cities) {
			zap.L().Info("mapdata: statistics invalidated during refresh, not cached")
		}
		zap.L().Info("mapdata: refreshed city statistics",
			zap.Int("persons", len(page.Persons)),
			zap.Int("cities", len(cities)),
		)
		return cities, nil
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "mapdata: load persons")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			zap.L().Debug("mapdata: shared city refresh")
		}
		return res.Val.([]casemap.CityCaseStats), nil
	}
}

func (s *Service) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// store caches cities unless the statistics were invalidated after gen was
// read.
func (s *Service) store(gen uint64, cities []casemap.CityCaseStats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cache.Put(citiesKey, cities)
	return true
}

// View builds the map view for a status filter.
func (s *Service) View(ctx context.Context, filter casemap.Status) (casemap.MapView, error) {
	cities, err := s.Cities(ctx)
	if err != nil {
		return casemap.MapView{}, err
	}
	return casemap.BuildView(cities, filter, s.gazetteer), nil
}

// City returns one city's statistics with its most recent cases. limit <= 0
// uses the configured default.
func (s *Service) City(ctx context.Context, name string, limit int) (casemap.CityCaseStats, bool, error) {
	cities, err := s.Cities(ctx)
	if err != nil {
		return casemap.CityCaseStats{}, false, err
	}
	if limit <= 0 {
		limit = s.recentCases
	}
	detail, ok := casemap.CityDetail(cities, name, limit)
	return detail, ok, nil
}

// Invalidate drops the cached statistics. A load already in flight still
// answers its callers but does not repopulate the cache, and later callers
// start a fresh load instead of joining it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Purge()
	s.mu.Unlock()
	s.group.Forget(citiesKey)
}

// CacheStats returns the statistics cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
