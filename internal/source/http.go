package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/util"
)

// maxBody caps the buffered response.
const maxBody = 32 << 20

type httpSource struct {
	cfg     config.SourceConfig
	client  *http.Client
	maxBody int64
}

// NewHTTP issues one GET to cfg.URL per Fetch.
func NewHTTP(cfg config.SourceConfig) *httpSource {
	to := cfg.Timeout
	if to == 0 {
		to = 30 * time.Second
	}
	return &httpSource{cfg: cfg, client: util.NewHTTPClient(to), maxBody: maxBody}
}

func (s *httpSource) Name() string { return "http" }

func (s *httpSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, &TransportError{URL: s.cfg.URL, Err: err}
	}
	if ua := s.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: s.cfg.URL, Err: err}
	}
	defer resp.Body.Close()

	// one byte past the limit tells a full body from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: s.cfg.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err != nil {
		return nil, &TransportError{URL: s.cfg.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > s.maxBody {
		return nil, &TransportError{URL: s.cfg.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("body exceeds limit of %d bytes", s.maxBody)}
	}
	return body, nil
}
