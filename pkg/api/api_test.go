package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-partition-service/pkg/config"
	"github.com/gilchrisn/graph-partition-service/pkg/metrics"
)

const scenarioInput = "node_a,node_b,weight\n1,2,3\n2,3,2\n1,3,1\n4,5,10\n"

type partitionData struct {
	RunID      string    `json:"run_id"`
	Partitions [][]int64 `json:"partitions"`
	Loads      []int     `json:"loads"`
	Strategy   string    `json:"strategy"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, settings *config.Settings) (http.Handler, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	handlers := NewHandlers(settings, nil, reg)
	return NewRouter(handlers, reg, []string{"https://example.com"}, zerolog.Nop()), reg
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestCreatePartitionsRawBody(t *testing.T) {
	h, reg := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/api/v1/partitions?n=2&header_skip=1", strings.NewReader(scenarioInput))
	rec, env := do(t, h, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var data partitionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, [][]int64{{4, 5}, {1, 2, 3}}, data.Partitions)
	assert.Equal(t, []int{2, 3}, data.Loads)
	assert.NotEmpty(t, data.RunID)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/partitions", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues("community", "louvain", metrics.StatusSuccess)))
}

func TestCreatePartitionsMultipart(t *testing.T) {
	h, _ := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "edges.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(scenarioInput))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/partitions?n=2&header_skip=1&type=round-robin", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, env := do(t, h, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data partitionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "round-robin", data.Strategy)
	assert.Equal(t, [][]int64{{1, 3, 5}, {2, 4}}, data.Partitions)
}

func TestCreatePartitionsUsesConfiguredDefaults(t *testing.T) {
	c := config.NewConfig()
	c.Set("input.header_skip", 1)
	c.Set("partitioning.count", 2)
	settings, err := c.Settings()
	require.NoError(t, err)

	h, _ := newTestServer(t, settings)
	rec, _ := do(t, h, httptest.NewRequest("POST", "/api/v1/partitions", strings.NewReader(scenarioInput)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreatePartitionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{name: "missing header skip", query: "n=2", body: scenarioInput, status: http.StatusBadRequest},
		{name: "zero partitions", query: "n=0&header_skip=1", body: scenarioInput, status: http.StatusBadRequest},
		{name: "non-integer n", query: "n=two&header_skip=1", body: scenarioInput, status: http.StatusBadRequest},
		{name: "unknown backend", query: "n=2&header_skip=1&backend=leiden", body: scenarioInput, status: http.StatusBadRequest},
		{name: "malformed row", query: "n=2&header_skip=1", body: "h\n1,2,x\n", status: http.StatusBadRequest},
		{name: "short row", query: "n=2&header_skip=1", body: "h\n1,2\n", status: http.StatusBadRequest},
		{name: "weight count", query: "n=2&header_skip=1&weights=1", body: scenarioInput, status: http.StatusBadRequest},
	}

	h, _ := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/partitions?"+tt.query, strings.NewReader(tt.body))
			rec, env := do(t, h, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
		})
	}
}

func TestCreatePartitionsEmptyGraph(t *testing.T) {
	h, _ := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/api/v1/partitions?n=3&header_skip=1", strings.NewReader("node_a,node_b,weight\n"))
	rec, env := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var data partitionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, [][]int64{{}, {}, {}}, data.Partitions)
}

func TestHealthAndStrategies(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec, env := do(t, h, httptest.NewRequest("GET", "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"healthy"`)

	rec, env = do(t, h, httptest.NewRequest("GET", "/api/v1/strategies", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "round-robin")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, nil)
	do(t, h, httptest.NewRequest("GET", "/api/v1/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "partition_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec, _ := do(t, h, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/partitions", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware)
	router.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec, env := do(t, router, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
}
