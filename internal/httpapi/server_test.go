package httpapi_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/httpapi"
	"github.com/guillem8cbii/basquet/internal/ics"
	"github.com/guillem8cbii/basquet/internal/metrics"
	"github.com/guillem8cbii/basquet/internal/pipeline"
)

func newTestServer(t *testing.T, gen httpapi.Generator) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := httpapi.NewServer(config.Default().Server, httpapi.NewHandler(gen, zerolog.Nop()), m, reg, zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{res: pipeline.Result{Document: ics.Document{Text: calendar, Events: 1}, Filename: "xirivella-partidos.ics"}}
	srv := newTestServer(t, gen)

	tests := map[string]struct {
		method  string
		path    string
		headers map[string]string

		wantStatus int
		wantBody   string
		wantHeader map[string]string
	}{
		"Calendar": {
			method: http.MethodGet, path: "/calendar.ics",
			wantStatus: http.StatusOK, wantBody: calendar,
			wantHeader: map[string]string{
				"Content-Type":                "text/calendar; charset=utf-8",
				"Content-Disposition":         `attachment; filename="xirivella-partidos.ics"`,
				"Access-Control-Allow-Origin": "*",
			},
		},
		"Calendar alias with POST": {
			method: http.MethodPost, path: "/api/calendar",
			wantStatus: http.StatusOK, wantBody: calendar,
		},
		"Plain OPTIONS": {
			method: http.MethodOptions, path: "/calendar.ics",
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"Access-Control-Allow-Methods": "GET, POST, OPTIONS"},
		},
		"CORS preflight": {
			method: http.MethodOptions, path: "/api/calendar",
			headers: map[string]string{
				"Origin":                        "https://calendar.example",
				"Access-Control-Request-Method": http.MethodGet,
			},
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type",
			},
		},
		"Health": {
			method: http.MethodGet, path: "/healthz",
			wantStatus: http.StatusOK, wantBody: "ok",
		},
		"Metrics": {
			method: http.MethodGet, path: "/metrics",
			wantStatus: http.StatusOK,
		},
		"Unknown path": {
			method: http.MethodGet, path: "/nope",
			wantStatus: http.StatusNotFound,
		},
		"Unrouted method": {
			method: http.MethodDelete, path: "/calendar.ics",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequest(tc.method, srv.URL+tc.path, nil)
			require.NoError(t, err)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, string(body))
			}
			for k, v := range tc.wantHeader {
				assert.Equal(t, v, resp.Header.Get(k), "Unexpected %s header", k)
			}
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), "Every request should get an id")
		})
	}
}

func TestServerKeepsRequestID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeGenerator{})
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))
}

func TestServerMetricsExposeRuns(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeGenerator{err: pipeline.ErrNoMatches})

	resp, err := srv.Client().Get(srv.URL + "/calendar.ics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `basquet_http_requests_total{code="404",method="get"} 1`),
		"Served requests should be counted, got:\n%s", body)
}
