// Package abitus provides a client for the Mato Grosso civil police public
// API of missing persons.
package abitus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pjc-mt/casemap/internal/resilience"
)

// DefaultBaseURL is the production police API.
const DefaultBaseURL = "https://abitus-api.pjc.mt.gov.br/v1"

// CorrelationHeader carries a per-request id for tracing calls through the
// police API logs.
const CorrelationHeader = "X-Correlation-ID"

const maxBodyBytes = 8 << 20

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = eris.New("abitus: not found")
	// ErrEndpointUnavailable is returned when the API no longer serves the
	// tip submission endpoint.
	ErrEndpointUnavailable = eris.New("abitus: endpoint unavailable")
)

// APIError is a non-2xx response of the police API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("abitus: api error %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("abitus: api error %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Client defines the police API operations.
type Client interface {
	// SearchPersons runs a filtered, paginated person search. A 404 is an
	// empty page.
	SearchPersons(ctx context.Context, f SearchFilter) (*Page, error)
	// GetPerson fetches one person by id.
	GetPerson(ctx context.Context, id int64) (*Person, error)
	// Statistics returns the published missing/found totals.
	Statistics(ctx context.Context) (*Statistics, error)
	// DynamicPersons returns n featured persons. A 404 is an empty list.
	DynamicPersons(ctx context.Context, n int) ([]Person, error)
	// OccurrenceInfo lists the tips of an occurrence. A 404 is an empty list.
	OccurrenceInfo(ctx context.Context, occurrenceID int64) ([]OccurrenceInfo, error)
	// AddOccurrenceInfo submits a tip with optional file attachments.
	AddOccurrenceInfo(ctx context.Context, tip Tip) (*OccurrenceInfo, error)
	// OccurrenceReasons returns the occurrence reason catalog.
	OccurrenceReasons(ctx context.Context) ([]Reason, error)
	// Ping reports whether the API answers the statistics endpoint.
	Ping(ctx context.Context) bool
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rate
// removes the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets the retry policy of idempotent requests.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithBreaker sets the circuit breaker shared by every request.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

// WithPingTimeout bounds Ping.
func WithPingTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.pingTimeout = d
	}
}

type httpClient struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	retry       resilience.Policy
	breaker     *resilience.Breaker
	pingTimeout time.Duration
	nowFunc     func() time.Time
}

// NewClient creates a police API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:     rate.NewLimiter(rate.Limit(10), 10),
		retry:       resilience.DefaultPolicy(),
		pingTimeout: 10 * time.Second,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker(resilience.BreakerConfig{Name: "abitus", Trips: resilience.IsTransient})
	}
	return c
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	once        bool
}

type response struct {
	status int
	reason string
	body   []byte
}

// do sends r through the breaker and, unless r.once is set, the retry
// policy. Transient statuses come back as errors; every other status is
// returned to the caller to interpret.
func (c *httpClient) do(ctx context.Context, r request) (response, error) {
	policy := c.retry
	if r.once {
		policy.MaxAttempts = 1
	}
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetries("abitus", r.op)
	}
	resp, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) (response, error) {
		return resilience.DoVal(ctx, policy, func(ctx context.Context) (response, error) {
			return c.send(ctx, r)
		})
	})
	if err != nil {
		return response{}, eris.Wrapf(err, "abitus: %s", r.op)
	}
	return resp, nil
}

func (c *httpClient) send(ctx context.Context, r request) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return response{}, eris.Wrap(err, "abitus: rate limit wait")
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return response{}, eris.Wrap(err, "abitus: create request")
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	cid := uuid.NewString()
	req.Header.Set(CorrelationHeader, cid)

	start := c.nowFunc()
	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, eris.Wrap(err, "abitus: send request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, eris.Wrap(err, "abitus: read response body")
	}

	zap.L().Debug("abitus: request",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("correlation_id", cid),
		zap.Duration("elapsed", c.nowFunc().Sub(start)),
	)

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return response{}, resilience.Transient(apiError(resp.StatusCode, data), resp.StatusCode)
	}
	return response{status: resp.StatusCode, reason: http.StatusText(resp.StatusCode), body: data}, nil
}

func apiError(code int, body []byte) *APIError {
	b := strings.TrimSpace(string(body))
	if len(b) > 512 {
		b = b[:512]
	}
	return &APIError{StatusCode: code, Status: http.StatusText(code), Body: b}
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) err(op string) error {
	return eris.Wrapf(apiError(r.status, r.body), "abitus: %s", op)
}

// decode unmarshals a JSON body. An empty or null body leaves v untouched.
func decode(op string, data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return eris.Wrapf(err, "abitus: decode %s response", op)
	}
	return nil
}

func (c *httpClient) SearchPersons(ctx context.Context, f SearchFilter) (*Page, error) {
	q := url.Values{}
	if f.Name != "" {
		q.Set("nome", f.Name)
	}
	if f.MinAge != nil {
		q.Set("faixaIdadeInicial", fmt.Sprint(*f.MinAge))
	}
	if f.MaxAge != nil {
		q.Set("faixaIdadeFinal", fmt.Sprint(*f.MaxAge))
	}
	if f.Sex != "" {
		q.Set("sexo", f.Sex)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	q.Set("pagina", fmt.Sprint(f.Page))
	q.Set("porPagina", fmt.Sprint(f.perPage()))

	resp, err := c.do(ctx, request{op: "search persons", method: http.MethodGet, path: "/pessoas/aberto/filtro", query: q})
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return &Page{Persons: []Person{}, Page: f.Page, PerPage: f.perPage()}, nil
	}
	if !resp.ok() {
		return nil, resp.err("search persons")
	}

	var raw apiPage
	if err := decode("search persons", resp.body, &raw); err != nil {
		return nil, err
	}
	return raw.page(f), nil
}

func (c *httpClient) GetPerson(ctx context.Context, id int64) (*Person, error) {
	resp, err := c.do(ctx, request{op: "get person", method: http.MethodGet, path: fmt.Sprintf("/pessoas/%d", id)})
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "abitus: person %d", id)
	}
	if !resp.ok() {
		return nil, resp.err("get person")
	}

	var raw apiPerson
	if err := decode("get person", resp.body, &raw); err != nil {
		return nil, err
	}
	if raw.ID == 0 {
		return nil, eris.Wrapf(ErrNotFound, "abitus: person %d", id)
	}
	p := raw.person()
	return &p, nil
}

func (c *httpClient) Statistics(ctx context.Context) (*Statistics, error) {
	resp, err := c.do(ctx, request{op: "statistics", method: http.MethodGet, path: "/pessoas/aberto/estatistico"})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.err("statistics")
	}

	var raw apiStatistics
	if err := decode("statistics", resp.body, &raw); err != nil {
		return nil, err
	}
	return &Statistics{Missing: raw.Missing, Found: raw.Found}, nil
}

func (c *httpClient) DynamicPersons(ctx context.Context, n int) ([]Person, error) {
	if n <= 0 {
		n = 4
	}
	q := url.Values{"registros": {fmt.Sprint(n)}}
	resp, err := c.do(ctx, request{op: "dynamic persons", method: http.MethodGet, path: "/pessoas/aberto/dinamico", query: q})
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return []Person{}, nil
	}
	if !resp.ok() {
		return nil, resp.err("dynamic persons")
	}

	var raw []apiPerson
	if err := decode("dynamic persons", resp.body, &raw); err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(raw))
	for _, ap := range raw {
		out = append(out, ap.person())
	}
	return out, nil
}

func (c *httpClient) OccurrenceReasons(ctx context.Context) ([]Reason, error) {
	resp, err := c.do(ctx, request{op: "occurrence reasons", method: http.MethodGet, path: "/ocorrencias/motivos"})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.err("occurrence reasons")
	}

	var raw []apiReason
	if err := decode("occurrence reasons", resp.body, &raw); err != nil {
		return nil, err
	}
	out := make([]Reason, 0, len(raw))
	for _, r := range raw {
		out = append(out, Reason(r))
	}
	return out, nil
}

// Ping makes a single, unretried request that bypasses the breaker so it
// reflects the API's current reachability.
func (c *httpClient) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	resp, err := c.send(ctx, request{op: "ping", method: http.MethodGet, path: "/pessoas/aberto/estatistico"})
	if err != nil || !resp.ok() {
		zap.L().Debug("abitus: ping failed", zap.Error(err), zap.Int("status", resp.status))
		return false
	}
	var raw apiStatistics
	return decode("ping", resp.body, &raw) == nil
}
