// Package source fetches the raw league payload.
package source

import (
	"context"
	"fmt"

	"github.com/guillem8cbii/basquet/internal/config"
)

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// TransportError is returned for network failures, non-2xx answers and
// unreadable bodies or files. It is never retried.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func NewFromConfig(c config.SourceConfig) (Source, error) {
	switch c.Type {
	case "http", "":
		return NewHTTP(c), nil
	case "file":
		return NewFile(c.Path), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", c.Type)
	}
}
