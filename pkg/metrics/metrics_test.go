package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.NotNil(t, r.HTTPRequestsTotal)
	assert.NotNil(t, r.RunsTotal)
	assert.NotNil(t, r.GetPrometheusRegistry())

	// Independent registries do not panic on duplicate registration.
	assert.NotPanics(t, func() { NewRegistry() })
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("POST", "/api/v1/partitions", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/v1/partitions", "200", 50*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/v1/health", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/partitions", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.HTTPRequestDuration))
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()
	r.RecordRun(RunResult{
		Strategy:   "community",
		Backend:    "louvain",
		Status:     StatusSuccess,
		Duration:   20 * time.Millisecond,
		Nodes:      5,
		Edges:      4,
		Levels:     1,
		Clusters:   2,
		Modularity: 0.4,
		Imbalance:  1.2,
		Spread:     1,
		ExtraNodes: 3,
	})
	r.RecordRun(RunResult{Strategy: "community", Backend: "louvain", Status: StatusError})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("community", "louvain", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("community", "louvain", StatusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SelectedClusters))
	assert.Equal(t, 0.4, testutil.ToFloat64(r.LevelModularity))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LoadSpread))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.ExtraNodesDealt))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordStage("detect", 5*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/v1/health", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), "partition_stage_duration_seconds"))
	assert.True(t, strings.Contains(string(body), "partition_http_requests_total"))
}
