package source

import (
	"context"
	"os"
)

type fileSource struct {
	path string
}

// NewFile reads a saved payload, for offline generation.
func NewFile(path string) *fileSource { return &fileSource{path: path} }

func (s *fileSource) Name() string { return "file" }

func (s *fileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URL: s.path, Err: err}
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &TransportError{URL: s.path, Err: err}
	}
	return b, nil
}
