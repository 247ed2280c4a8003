// Package tiles proxies OpenStreetMap basemap tiles for the case map so the
// browser never talks to the tile server directly.
package tiles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pjc-mt/casemap/internal/cache"
	"github.com/pjc-mt/casemap/internal/resilience"
)

// ErrOutOfRange is returned for tile coordinates outside the served zoom
// range or outside the tile grid of their zoom level.
var ErrOutOfRange = eris.New("tiles: coordinates out of range")

// Config configures a Proxy.
type Config struct {
	BaseURL   string
	Format    string
	MinZoom   int
	MaxZoom   int
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig matches the zoom range of the case map.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://tile.openstreetmap.org",
		Format:    "png",
		MinZoom:   4,
		MaxZoom:   10,
		UserAgent: "casemap/1.0 (+https://desaparecidos.pjc.mt.gov.br)",
		Timeout:   15 * time.Second,
	}
}

// Tile is one raster basemap tile.
type Tile struct {
	Data        []byte
	ContentType string
	Cached      bool
}

// Proxy fetches basemap tiles from the upstream server through a cache.
type Proxy struct {
	cfg     Config
	client  *http.Client
	cache   *cache.LRU[[]byte]
	breaker *resilience.Breaker
	retry   resilience.Policy
}

// NewProxy creates a tile proxy. A nil cache disables caching.
func NewProxy(cfg Config, c *cache.LRU[[]byte]) *Proxy {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.MaxZoom == 0 {
		cfg.MinZoom, cfg.MaxZoom = def.MinZoom, def.MaxZoom
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	retry := resilience.DefaultPolicy()
	retry.MaxAttempts = 2
	retry.OnRetry = resilience.LogRetries("tiles", "fetch")

	return &Proxy{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   c,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{Name: "tiles", Trips: resilience.IsTransient}),
		retry:   retry,
	}
}

// Validate checks that z is within the served zoom range and that x and y
// address a tile of that zoom level.
func (p *Proxy) Validate(z, x, y int) error {
	if z < p.cfg.MinZoom || z > p.cfg.MaxZoom {
		return eris.Wrapf(ErrOutOfRange, "tiles: zoom %d not in [%d, %d]", z, p.cfg.MinZoom, p.cfg.MaxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return eris.Wrapf(ErrOutOfRange, "tiles: tile %d/%d/%d", z, x, y)
	}
	return nil
}

// Fetch returns the tile from the cache or the upstream server.
func (p *Proxy) Fetch(ctx context.Context, z, x, y int) (Tile, error) {
	if err := p.Validate(z, x, y); err != nil {
		return Tile{}, err
	}

	key := fmt.Sprintf("%d/%d/%d", z, x, y)
	if p.cache != nil {
		if data, ok := p.cache.Get(key); ok {
			return Tile{Data: data, ContentType: p.ContentType(), Cached: true}, nil
		}
	}

	url := fmt.Sprintf("%s/%d/%d/%d.%s", p.cfg.BaseURL, z, x, y, p.cfg.Format)
	data, err := resilience.Call(ctx, p.breaker, func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
			return p.get(ctx, url)
		})
	})
	if err != nil {
		return Tile{}, err
	}

	if p.cache != nil {
		p.cache.Put(key, data)
	}
	zap.L().Debug("tiles: fetched basemap tile", zap.String("url", url), zap.Int("bytes", len(data)))
	return Tile{Data: data, ContentType: p.ContentType()}, nil
}

func (p *Proxy) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("tiles: upstream returned %d for %s", resp.StatusCode, url)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: read body")
	}
	return data, nil
}

// ContentType returns the MIME type of the configured tile format.
func (p *Proxy) ContentType() string {
	switch p.cfg.Format {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// CacheStats returns the tile cache counters, or zero stats without a cache.
func (p *Proxy) CacheStats() cache.Stats {
	if p.cache == nil {
		return cache.Stats{}
	}
	return p.cache.Stats()
}

// Breaker exposes the upstream circuit breaker for health reporting.
func (p *Proxy) Breaker() *resilience.Breaker {
	return p.breaker
}
