package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("documentables", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("documentables", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.AddCommentsParsed("kdoc", 3)
	pr.AddCommentsParsed("kdoc", 0)
	pr.IncDiagnostic("ambiguous_inheritance_tie")
	pr.SetPages(4)
	pr.SetWorkers(8)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 8)

	values := map[string]float64{}
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}
	assert.InDelta(t, 3, values["apidoc_comments_parsed_total"], 0.001)
	assert.InDelta(t, 1, values["apidoc_stage_results_total"], 0.001)
	assert.InDelta(t, 4, values["apidoc_pages"], 0.001)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncBuildOutcome(BuildOutcomeFailed)
		pr.IncDiagnostic("x")
	})
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncStageResult("pages", ResultFatal)
	r.SetPages(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apidoc_build_outcomes_total")
}

func TestNewServer_ServesConfiguredPath(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).SetPages(7)
	srv := NewServer(":0", "/internal/metrics", reg)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apidoc_pages 7")
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
