// Package extract finds the fixtures of one team inside an upstream payload.
package extract

import (
	"fmt"
	"strings"

	"github.com/guillem8cbii/basquet/internal/model"
)

// Adapter extracts matches in encounter order from a raw payload.
type Adapter interface {
	Name() string
	Extract(raw []byte, team TeamMatcher) ([]model.Match, error)
}

// Supported payload formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewAdapter returns the adapter for format. An empty format means json.
func NewAdapter(format string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return JSONAdapter{}, nil
	case FormatText:
		return TextAdapter{}, nil
	default:
		return nil, fmt.Errorf("unknown payload format: %s", format)
	}
}
