package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/pjc-mt/casemap/internal/cache"
	"github.com/pjc-mt/casemap/internal/mapdata"
	"github.com/pjc-mt/casemap/internal/report"
	"github.com/pjc-mt/casemap/internal/resilience"
	"github.com/pjc-mt/casemap/internal/stats"
	"github.com/pjc-mt/casemap/internal/tiles"
	"github.com/pjc-mt/casemap/pkg/abitus"
	"github.com/pjc-mt/casemap/pkg/abitus/mocks"
)

var sampleFilter = abitus.SearchFilter{PerPage: mapdata.DefaultSampleSize}

func casePage() *abitus.Page {
	var persons []abitus.Person
	add := func(n int, id int64, status, place string) {
		for i := 0; i < n; i++ {
			persons = append(persons, abitus.Person{
				ID: id + int64(i), Name: "P", Status: status, Place: place, MissingSince: "2026-09-01",
			})
		}
	}
	add(25, 1, abitus.StatusMissing, "Centro - Cuiabá/MT")
	add(15, 100, abitus.StatusFound, "Centro - Cuiabá/MT")
	add(8, 200, abitus.StatusMissing, "Jardim - Sinop/MT")
	add(5, 300, abitus.StatusFound, "Jardim - Sinop/MT")
	return &abitus.Page{Persons: persons, Total: len(persons)}
}

func newTestServer(t *testing.T, proxy *tiles.Proxy) (*mocks.MockClient, *Server, http.Handler) {
	t.Helper()
	client := mocks.NewMockClient(t)
	s := New(Deps{
		Client: client,
		Maps:   mapdata.NewService(client, nil, mapdata.Config{}),
		Stats:  stats.NewService(client),
		Tiles:  proxy,
	}, Options{})
	return client, s, s.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestHealth_UpstreamDown(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("Ping", mock.Anything).Return(false).Once()

	rec := get(t, h, "/health?upstream=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["abitus"])
}

func TestMap(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(casePage(), nil).Once()

	rec := get(t, h, "/api/v1/map?status=ALL")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var v struct {
		Status   string `json:"status"`
		Category string `json:"category"`
		Markers  []struct {
			City      string  `json:"city"`
			BaseValue int     `json:"base_value"`
			Intensity float64 `json:"intensity"`
		} `json:"markers"`
		Clustered bool `json:"clustered"`
		Legend    struct {
			Min int `json:"min"`
			Max int `json:"max"`
		} `json:"legend"`
		Empty bool `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "ALL", v.Status)
	assert.Equal(t, "TOTAL", v.Category)
	require.Len(t, v.Markers, 2)
	assert.Equal(t, "Cuiabá", v.Markers[0].City)
	assert.Equal(t, 40, v.Markers[0].BaseValue)
	assert.InDelta(t, 0.325, v.Markers[1].Intensity, 1e-9)
	assert.False(t, v.Clustered)
	assert.Equal(t, 13, v.Legend.Min)
	assert.Equal(t, 40, v.Legend.Max)
	assert.False(t, v.Empty)

	// Served from cache.
	rec = get(t, h, "/api/v1/map?status=DESAPARECIDO")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMap_BadStatus(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := get(t, h, "/api/v1/map?status=VIVO")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "unknown status")
}

func TestMap_UpstreamFailure(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).
		Return(nil, eris.Wrap(&abitus.APIError{StatusCode: 500, Status: "Internal Server Error"}, "abitus: search persons")).Once()

	rec := get(t, h, "/api/v1/map")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream request failed", decodeBody(t, rec)["error"])
}

func TestMap_CircuitOpen(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(nil, resilience.ErrCircuitOpen).Once()

	rec := get(t, h, "/api/v1/map")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGeoJSON(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(casePage(), nil).Once()

	rec := get(t, h, "/api/v1/map/geojson?status=FOUND")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.Len(t, body["features"], 2)
}

func TestLegend_Empty(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(&abitus.Page{}, nil).Once()

	rec := get(t, h, "/api/v1/map/legend")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"legend":null}`, rec.Body.String())
}

func TestColor(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := get(t, h, "/api/v1/map/color?intensity=1&category=missing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"color":"#b91c1c","category":"MISSING"}`, rec.Body.String())

	rec = get(t, h, "/api/v1/map/color?intensity=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/v1/map/color?intensity=0.5&category=purple")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCity(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(casePage(), nil).Once()

	rec := get(t, h, "/api/v1/map/cities/Cuiab%C3%A1?limit=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Cuiabá", body["city"])
	assert.EqualValues(t, 25, body["missing_count"])
	assert.Len(t, body["cases"], 3)

	rec = get(t, h, "/api/v1/map/cities/Atl%C3%A2ntida")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/v1/map/cities/Sinop?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(casePage(), nil).Once()

	rec := get(t, h, "/api/v1/map/export.xlsx?status=MISSING")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mapa-casos.xlsx")

	f, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet[report.SheetCities].Rows, 3)
	assert.Len(t, f.Sheet[report.SheetCases].Rows, 1+25+15+8+5)
}

func TestRefresh(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("SearchPersons", mock.Anything, sampleFilter).Return(casePage(), nil).Twice()

	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/map").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/map/refresh", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/map").Code)
}

func TestSearchPersons(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	minAge, maxAge := 10, 30
	want := abitus.SearchFilter{
		Name: "ana", MinAge: &minAge, MaxAge: &maxAge, Sex: abitus.SexFemale,
		Status: abitus.StatusMissing, Page: 2, PerPage: 12,
	}
	client.On("SearchPersons", mock.Anything, want).
		Return(&abitus.Page{Persons: []abitus.Person{{ID: 9, Name: "Ana"}}, Total: 1, Page: 2, PerPage: 12, TotalPages: 1}, nil).Once()

	rec := get(t, h, "/api/v1/persons?nome=ana&faixaIdadeInicial=10&faixaIdadeFinal=30&sexo=feminino&status=DESAPARECIDO&pagina=2&porPagina=12")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["persons"], 1)
}

func TestSearchPersons_BadInput(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	for _, q := range []string{
		"porPagina=0",
		"porPagina=500",
		"pagina=-1",
		"faixaIdadeInicial=x",
		"faixaIdadeInicial=40&faixaIdadeFinal=20",
		"sexo=OUTRO",
		"status=VIVO",
	} {
		rec := get(t, h, "/api/v1/persons?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestFeatured(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("DynamicPersons", mock.Anything, 4).Return([]abitus.Person{{ID: 1}, {ID: 2}}, nil).Once()

	rec := get(t, h, "/api/v1/persons/featured")
	require.Equal(t, http.StatusOK, rec.Code)
	var persons []abitus.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &persons))
	assert.Len(t, persons, 2)
}

func TestGetPerson(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("GetPerson", mock.Anything, int64(42)).Return(&abitus.Person{ID: 42, Name: "João"}, nil).Once()
	client.On("GetPerson", mock.Anything, int64(7)).Return(nil, eris.Wrapf(abitus.ErrNotFound, "abitus: person %d", 7)).Once()

	rec := get(t, h, "/api/v1/persons/42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "João", decodeBody(t, rec)["name"])

	rec = get(t, h, "/api/v1/persons/7")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/v1/persons/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("Statistics", mock.Anything).Return(&abitus.Statistics{Missing: 5, Found: 9}, nil).Once()

	rec := get(t, h, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"missing":5,"found":9}`, rec.Body.String())
}

func TestAdvancedStats(t *testing.T) {
	client, s, h := newTestServer(t, nil)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, abitus.Cuiaba)
	s.nowFunc = func() time.Time { return now }

	client.On("Statistics", mock.Anything).Return(&abitus.Statistics{Missing: 5, Found: 10}, nil).Once()
	client.On("SearchPersons", mock.Anything, mock.MatchedBy(func(f abitus.SearchFilter) bool {
		return f.PerPage == stats.SampleSize
	})).Return(&abitus.Page{}, nil).Twice()

	rec := get(t, h, "/api/v1/stats/advanced")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.EqualValues(t, 5, body["total_missing"])
	assert.Len(t, body["trend"], 24)
	assert.Len(t, body["by_age"], 4)
}

func TestReasons(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("OccurrenceReasons", mock.Anything).Return([]abitus.Reason{{ID: 1, Description: "Fuga"}}, nil).Once()

	rec := get(t, h, "/api/v1/occurrences/reasons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"description":"Fuga"}]`, rec.Body.String())
}

func TestOccurrenceInfo(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("OccurrenceInfo", mock.Anything, int64(55)).Return([]abitus.OccurrenceInfo{}, nil).Once()

	rec := get(t, h, "/api/v1/occurrences/55/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = get(t, h, "/api/v1/occurrences/0/info")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func tipRequest(t *testing.T, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAddOccurrenceInfo(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("AddOccurrenceInfo", mock.Anything, mock.MatchedBy(func(tip abitus.Tip) bool {
		return tip.OccurrenceID == 55 &&
			tip.Info == "Vista no centro" &&
			tip.Description == "foto" &&
			tip.Date == "2026-10-15" &&
			len(tip.Files) == 1 &&
			tip.Files[0].Name == "foto.jpg" &&
			string(tip.Files[0].Data) == "jpeg-bytes"
	})).Return(&abitus.OccurrenceInfo{ID: 3, OccurrenceID: 55, Info: "Vista no centro"}, nil).Once()

	req := tipRequest(t, "/api/v1/occurrences/55/info",
		map[string]string{"informacao": "Vista no centro", "descricao": "foto", "data": "2026-10-15"},
		map[string]string{"foto.jpg": "jpeg-bytes"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decodeBody(t, rec)["id"])
}

func TestAddOccurrenceInfo_Validation(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tipRequest(t, "/api/v1/occurrences/55/info", map[string]string{"descricao": "x"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, tipRequest(t, "/api/v1/occurrences/55/info", map[string]string{"informacao": "x", "data": "ontem"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/occurrences/55/info", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddOccurrenceInfo_EndpointUnavailable(t *testing.T) {
	client, _, h := newTestServer(t, nil)
	client.On("AddOccurrenceInfo", mock.Anything, mock.Anything).
		Return(nil, eris.Wrap(abitus.ErrEndpointUnavailable, "abitus: add occurrence info")).Once()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tipRequest(t, "/api/v1/occurrences/55/info", map[string]string{"informacao": "x"}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "tip submission is unavailable", decodeBody(t, rec)["error"])
}

func TestTiles(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/5/10/12.png", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	proxy := tiles.NewProxy(tiles.Config{BaseURL: upstream.URL, MinZoom: 4, MaxZoom: 10}, cache.New[[]byte](10, time.Minute))
	_, _, h := newTestServer(t, proxy)

	rec := get(t, h, "/tiles/5/10/12.png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = get(t, h, "/tiles/5/10/12.png")
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, hits.Load())

	rec = get(t, h, "/tiles/12/0/0.png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/tiles/5/x/0.png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/tiles/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "closed", body["breaker"])
}

func TestTiles_NotMountedWithoutProxy(t *testing.T) {
	_, _, h := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/tiles/5/10/12.png").Code)
}

func TestCORS(t *testing.T) {
	client := mocks.NewMockClient(t)
	s := New(Deps{Client: client, Maps: mapdata.NewService(client, nil, mapdata.Config{}), Stats: stats.NewService(client)},
		Options{CORSOrigins: []string{"https://desaparecidos.pjc.mt.gov.br"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://desaparecidos.pjc.mt.gov.br")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://desaparecidos.pjc.mt.gov.br", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(eris.Wrap(context.DeadlineExceeded, "abitus: statistics")))
	assert.Equal(t, http.StatusBadGateway, statusFor(eris.New("boom")))
}
