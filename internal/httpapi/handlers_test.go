package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/dispatch"
	"github.com/hamed0406/bengreen/internal/domain"
	apimw "github.com/hamed0406/bengreen/internal/httpapi/middleware"
	"github.com/hamed0406/bengreen/internal/metrics"
	"github.com/hamed0406/bengreen/internal/registry"
	"github.com/hamed0406/bengreen/internal/repo/memory"
	"github.com/hamed0406/bengreen/internal/report"
)

// ---- test helpers ----

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	reg := registry.NewBuilder().
		Register("tls", func() error { return nil }).
		Register("tcp_fin", func() error { return errors.New("dial tcp: connection refused") }).
		MustBuild()

	promReg := prometheus.NewRegistry()
	d := dispatch.New(log, reg, report.New("BenGreen", io.Discard))
	d.Metrics = metrics.New(promReg)

	srv := NewServer(log, d, memory.New(16), promReg)
	keys := apimw.Keys{
		Public: []string{"pub_test"},
		Admin:  []string{"adm_test"},
	}
	// very high rate limits to avoid flakiness in tests
	h := srv.Router(keys, nil, Limits{PublicRPM: 10_000, PublicBurst: 10_000, AdminRPM: 10_000, AdminBurst: 10_000})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	ts := setupServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProbes_InRegistryOrder(t *testing.T) {
	ts := setupServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/probes", "pub_test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"tls", "tcp_fin"}, names)

	unauth := do(t, http.MethodGet, ts.URL+"/api/probes", "")
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
}

func TestRunProbe_PassFailAndHistory(t *testing.T) {
	ts := setupServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/probes/tls/run", "adm_test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run domain.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "tls", run.Probe)
	assert.Equal(t, domain.StatusPassed, run.Outcome.Status)
	assert.NotEmpty(t, run.ID)

	// failure is data, not an HTTP error
	resp = do(t, http.MethodPost, ts.URL+"/api/probes/tcp_fin/run", "adm_test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, domain.StatusFailed, run.Outcome.Status)
	assert.Equal(t, "dial tcp: connection refused", run.Outcome.Message)

	resp = do(t, http.MethodGet, ts.URL+"/api/runs", "pub_test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []domain.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "tls", runs[0].Probe)
	assert.Equal(t, "tcp_fin", runs[1].Probe)
}

func TestRunProbe_UnknownAndForbidden(t *testing.T) {
	ts := setupServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/probes/nope/run", "adm_test")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/probes/tls/run", "pub_test")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/runs", "pub_test")
	var runs []domain.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Empty(t, runs, "rejected runs must not be recorded")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t)
	do(t, http.MethodPost, ts.URL+"/api/probes/tls/run", "adm_test")
	do(t, http.MethodPost, ts.URL+"/api/probes/nope/run", "adm_test")

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)

	text := body.String()
	assert.True(t, strings.Contains(text, `bengreen_probe_runs_total{probe="tls",status="passed"} 1`), text)
	assert.Contains(t, text, "bengreen_unknown_probe_requests_total 1")
}

func crashGuardServer(t *testing.T, p config.Probes, ran *atomic.Bool) *httptest.Server {
	t.Helper()
	reg := registry.NewBuilder().
		Register("page_fault", func() error {
			ran.Store(true)
			return nil
		}).
		Register("tls", func() error { return nil }).
		MustBuild()
	d := dispatch.New(zap.NewNop(), reg, report.New("BenGreen", io.Discard))
	srv := NewServer(zap.NewNop(), d, memory.New(16), prometheus.NewRegistry())
	srv.Crashes = p.Crashes
	ts := httptest.NewServer(srv.Router(apimw.Keys{}, nil, Limits{PublicRPM: 10_000, PublicBurst: 10_000, AdminRPM: 10_000, AdminBurst: 10_000}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRunRoute_RefusesPageFaultInCrashMode(t *testing.T) {
	var ran atomic.Bool
	ts := crashGuardServer(t, config.Default().Probes, &ran)

	resp := do(t, http.MethodPost, ts.URL+"/api/probes/page_fault/run", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "page_fault", body["probe"])
	assert.Contains(t, body["error"], "FAULT_MODE=trap")
	assert.False(t, ran.Load(), "refused run must not execute")

	resp = do(t, http.MethodGet, ts.URL+"/api/runs", "")
	var runs []domain.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Empty(t, runs)

	resp = do(t, http.MethodPost, ts.URL+"/api/probes/tls/run", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunRoute_TrapModeAllowsPageFault(t *testing.T) {
	var ran atomic.Bool
	p := config.Default().Probes
	p.FaultMode = config.FaultModeTrap
	ts := crashGuardServer(t, p, &ran)

	resp := do(t, http.MethodPost, ts.URL+"/api/probes/page_fault/run", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, ran.Load())
}

func TestLastRun(t *testing.T) {
	ts := setupServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/probes/tls/last", "pub_test")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no runs yet")

	resp = do(t, http.MethodGet, ts.URL+"/api/probes/nope/last", "pub_test")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	do(t, http.MethodPost, ts.URL+"/api/probes/tcp_fin/run", "adm_test")
	do(t, http.MethodPost, ts.URL+"/api/probes/tls/run", "adm_test")
	do(t, http.MethodPost, ts.URL+"/api/probes/tcp_fin/run", "adm_test")

	resp = do(t, http.MethodGet, ts.URL+"/api/probes/tls/last", "pub_test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run domain.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "tls", run.Probe)
	assert.Equal(t, domain.StatusPassed, run.Outcome.Status)

	resp = do(t, http.MethodGet, ts.URL+"/api/probes/tls/last", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
