package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjc-mt/casemap/internal/config"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Server.Port = 8080
	c.Abitus.BaseURL = "http://127.0.0.1:1"
	c.Abitus.MaxAttempts = 1
	c.Abitus.TimeoutSecs = 5
	c.Map.SampleSize = 500
	c.Tiles.BaseURL = "http://127.0.0.1:1"
	c.Tiles.Format = "png"
	c.Tiles.MinZoom = 4
	c.Tiles.MaxZoom = 10
	c.Tiles.CacheSize = 10
	c.Tiles.CacheTTLSecs = 60
	return c
}

func TestInitApp_CLI(t *testing.T) {
	env, err := initApp(testConfig(), "cli")
	require.NoError(t, err)
	assert.NotNil(t, env.Client)
	assert.NotNil(t, env.Maps)
	assert.NotNil(t, env.Stats)
	assert.Nil(t, env.Tiles)
	assert.Equal(t, 27, env.Maps.Gazetteer().Len())
}

func TestInitApp_Serve(t *testing.T) {
	env, err := initApp(testConfig(), "serve")
	require.NoError(t, err)
	require.NotNil(t, env.Tiles)
	assert.Equal(t, "image/png", env.Tiles.ContentType())
}

func TestInitApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Abitus.BaseURL = ""
	_, err := initApp(c, "cli")
	assert.Error(t, err)
}

func TestLoadGazetteer_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.yaml")
	yaml := `
state: MT
cities:
  - {city: "Cuiabá", lat: -15.601, lon: -56.097}
  - {city: "Sinop", lat: -11.86, lon: -55.51}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	g, err := loadGazetteer(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	c := testConfig()
	c.Map.GazetteerFile = path
	env, err := initApp(c, "cli")
	require.NoError(t, err)
	assert.Equal(t, 2, env.Maps.Gazetteer().Len())
}

func TestLoadGazetteer_Missing(t *testing.T) {
	_, err := loadGazetteer(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBuildHandler(t *testing.T) {
	orig := cfg
	cfg = testConfig()
	t.Cleanup(func() { cfg = orig })

	env, err := initApp(cfg, "serve")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	buildHandler(env).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAbitusRetryPolicy(t *testing.T) {
	c := testConfig().Abitus
	c.MaxAttempts = 4
	c.BackoffMs = 50

	p := abitusRetryPolicy(c)
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, p.Backoff)
	assert.Nil(t, p.OnRetry, "the client labels retries per operation")
}
