package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/source"
)

func TestHTTPFetch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status int
		body   string
		delay  time.Duration

		wantStatus int
		wantErr    bool
	}{
		"Returns body on 200":        {status: http.StatusOK, body: `{"ok":true}`},
		"Accepts other 2xx":          {status: http.StatusNonAuthoritativeInfo, body: "eyJvayI6dHJ1ZX0="},
		"Empty body is not an error": {status: http.StatusOK},

		"Error on 404":     {status: http.StatusNotFound, body: "nope", wantStatus: 404, wantErr: true},
		"Error on 500":     {status: http.StatusInternalServerError, wantStatus: 500, wantErr: true},
		"Error on timeout": {status: http.StatusOK, delay: 500 * time.Millisecond, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "basquet-test", r.Header.Get("User-Agent"))
				assert.Equal(t, http.MethodGet, r.Method)
				if tc.delay > 0 {
					select {
					case <-time.After(tc.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			src := source.NewHTTP(config.SourceConfig{URL: srv.URL, UserAgent: "basquet-test", Timeout: 100 * time.Millisecond})
			assert.Equal(t, "http", src.Name())

			got, err := src.Fetch(context.Background())
			if tc.wantErr {
				require.Error(t, err, "Fetch should fail")
				var terr *source.TransportError
				require.ErrorAs(t, err, &terr, "Fetch should return a *TransportError")
				assert.Equal(t, tc.wantStatus, terr.StatusCode)
				assert.Equal(t, srv.URL, terr.URL)
				return
			}
			require.NoError(t, err, "Fetch should not fail")
			assert.Equal(t, tc.body, string(got))
		})
	}
}

func TestHTTPFetchSingleRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := source.NewHTTP(config.SourceConfig{URL: srv.URL}).Fetch(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "Failures should not be retried")
}

func TestHTTPFetchUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := source.NewHTTP(config.SourceConfig{URL: url, Timeout: time.Second}).Fetch(context.Background())
	var terr *source.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.StatusCode, "No status without a response")
}

func TestHTTPFetchCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.NewHTTP(config.SourceConfig{URL: srv.URL}).Fetch(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "Cancellation should surface through the transport error")
}

func TestFileFetch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	src := source.NewFile(path)
	assert.Equal(t, "file", src.Name())

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = source.NewFile(filepath.Join(dir, "missing.json")).Fetch(context.Background())
	var terr *source.TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg config.SourceConfig

		wantName string
		wantErr  bool
	}{
		"Default is http": {cfg: config.SourceConfig{URL: "http://localhost"}, wantName: "http"},
		"Http":            {cfg: config.SourceConfig{Type: "http", URL: "http://localhost"}, wantName: "http"},
		"File":            {cfg: config.SourceConfig{Type: "file", Path: "x.json"}, wantName: "file"},

		"Error on unknown type": {cfg: config.SourceConfig{Type: "ftp"}, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := source.NewFromConfig(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, s.Name())
		})
	}
}

func TestHTTPFetchBodyLimit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		size int

		wantErr bool
	}{
		"Body below the limit": {size: 15},
		"Body at the limit":    {size: 16},

		"Error on body over the limit": {size: 17, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			body := strings.Repeat("a", tc.size)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			src := source.NewHTTP(config.SourceConfig{URL: srv.URL})
			src.SetMaxBody(16)

			got, err := src.Fetch(context.Background())
			if tc.wantErr {
				var terr *source.TransportError
				require.ErrorAs(t, err, &terr, "Oversized bodies should not be truncated silently")
				assert.Equal(t, http.StatusOK, terr.StatusCode)
				assert.Contains(t, terr.Error(), "exceeds limit")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, body, string(got))
		})
	}
}
