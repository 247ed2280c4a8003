package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/pjc-mt/casemap/internal/report"
)

// fakeAbitus serves the search and statistics endpoints of the police API.
func fakeAbitus(t *testing.T) *httptest.Server {
	t.Helper()
	person := func(id int, place, found string) map[string]any {
		occ := map[string]any{
			"ocoId":                      id,
			"dtDesaparecimento":          "2026-09-01T10:00:00",
			"localDesaparecimentoConcat": place,
		}
		if found != "" {
			occ["dataLocalizacao"] = found
		}
		return map[string]any{"id": id, "nome": "Pessoa", "idade": 30, "sexo": "MASCULINO", "ultimaOcorrencia": occ}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pessoas/aberto/filtro", func(w http.ResponseWriter, r *http.Request) {
		content := []map[string]any{
			person(1, "Centro - Cuiabá/MT", ""),
			person(2, "Centro - Cuiabá/MT", ""),
			person(3, "Centro - Cuiabá/MT", "2026-09-10"),
			person(4, "Jardim - Sinop/MT", ""),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": content, "totalElements": len(content), "number": 0, "size": 500, "totalPages": 1,
		})
	})
	mux.HandleFunc("GET /pessoas/aberto/estatistico", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quantPessoasDesaparecidas":120,"quantPessoasEncontradas":340}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// runCLI executes the root command in an empty directory with the police API
// pointed at baseURL.
func runCLI(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CASEMAP_ABITUS_BASE_URL", baseURL)
	t.Setenv("CASEMAP_ABITUS_MAX_ATTEMPTS", "1")
	t.Setenv("CASEMAP_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestMapCommand_Table(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "map", "--status", "ALL", "--format", "table", "--city", "")
	require.NoError(t, err)
	assert.Contains(t, out, "CITY")
	assert.Contains(t, out, "Cuiabá")
	assert.Contains(t, out, "Sinop")
	assert.Contains(t, out, "min 1, mid 3, max 3")
}

func TestMapCommand_JSON(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "map", "--status", "FOUND", "--format", "json", "--city", "")
	require.NoError(t, err)

	var v struct {
		Status  string `json:"status"`
		Markers []struct {
			City string `json:"city"`
		} `json:"markers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "FOUND", v.Status)
	require.Len(t, v.Markers, 1)
	assert.Equal(t, "Cuiabá", v.Markers[0].City)
}

func TestMapCommand_City(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "map", "--status", "ALL", "--format", "table", "--city", "Cuiabá", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Cuiabá/MT: 2 missing, 1 found")
}

func TestMapCommand_BadStatus(t *testing.T) {
	srv := fakeAbitus(t)

	_, err := runCLI(t, srv.URL, "map", "--status", "VIVO", "--format", "table", "--city", "")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "stats", "--advanced=false", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Desaparecidos: 120")
	assert.Contains(t, out, "Localizados:   340")
}

func TestStatsCommand_Advanced(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "stats", "--advanced", "--json")
	require.NoError(t, err)

	var a map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.EqualValues(t, 120, a["total_missing"])
	assert.Len(t, a["trend"], 24)
}

func TestExportCommand(t *testing.T) {
	srv := fakeAbitus(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := runCLI(t, srv.URL, "export", "--status", "MISSING", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 cities")

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheet[report.SheetCities].Rows, 3)
}

func TestPingCommand(t *testing.T) {
	srv := fakeAbitus(t)

	out, err := runCLI(t, srv.URL, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	_, err = runCLI(t, down.URL, "ping")
	assert.Error(t, err)
}
