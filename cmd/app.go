package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pjc-mt/casemap/internal/cache"
	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/internal/config"
	"github.com/pjc-mt/casemap/internal/mapdata"
	"github.com/pjc-mt/casemap/internal/resilience"
	"github.com/pjc-mt/casemap/internal/stats"
	"github.com/pjc-mt/casemap/internal/tiles"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

// appEnv holds the clients and services the commands share.
type appEnv struct {
	Client abitus.Client
	Maps   *mapdata.Service
	Stats  *stats.Service
	Tiles  *tiles.Proxy // nil outside serve
}

// initApp validates c for mode and builds the police API client and the
// services on top of it.
func initApp(c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	g, err := loadGazetteer(c.Map.GazetteerFile)
	if err != nil {
		return nil, err
	}

	client := newAbitusClient(c.Abitus)
	env := &appEnv{
		Client: client,
		Maps: mapdata.NewService(client, g, mapdata.Config{
			SampleSize:  c.Map.SampleSize,
			RecentCases: c.Map.RecentCases,
			CacheTTL:    c.Map.CacheTTL(),
		}),
		Stats: stats.NewService(client),
	}

	if mode == "serve" {
		env.Tiles = tiles.NewProxy(tiles.Config{
			BaseURL:   c.Tiles.BaseURL,
			Format:    c.Tiles.Format,
			MinZoom:   c.Tiles.MinZoom,
			MaxZoom:   c.Tiles.MaxZoom,
			UserAgent: c.Tiles.UserAgent,
		}, cache.New[[]byte](c.Tiles.CacheSize, c.Tiles.CacheTTL()))
	}

	return env, nil
}

// abitusRetryPolicy leaves OnRetry unset so the client logs retries under
// each operation's name.
func abitusRetryPolicy(c config.AbitusConfig) resilience.Policy {
	return resilience.PolicyFromSettings(c.MaxAttempts, c.BackoffMs)
}

func newAbitusClient(c config.AbitusConfig) abitus.Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:      "abitus",
		Threshold: c.BreakerThreshold,
		Cooldown:  time.Duration(c.BreakerCooldown) * time.Second,
		Trips:     resilience.IsTransient,
	})

	opts := []abitus.Option{
		abitus.WithBaseURL(c.BaseURL),
		abitus.WithRateLimit(c.RateLimit, c.RateBurst),
		abitus.WithRetry(abitusRetryPolicy(c)),
		abitus.WithBreaker(breaker),
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, abitus.WithHTTPClient(newHTTPClient(c.Timeout())))
	}
	return abitus.NewClient(opts...)
}

// loadGazetteer reads an operator-supplied gazetteer, or returns the bundled
// one when path is empty.
func loadGazetteer(path string) (*casemap.Gazetteer, error) {
	if path == "" {
		return casemap.DefaultGazetteer(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open gazetteer %s", path)
	}
	defer func() { _ = f.Close() }()

	g, err := casemap.LoadGazetteer(f)
	if err != nil {
		return nil, eris.Wrapf(err, "load gazetteer %s", path)
	}
	zap.L().Info("loaded gazetteer", zap.String("path", path), zap.Int("cities", g.Len()), zap.String("state", g.State()))
	return g, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
