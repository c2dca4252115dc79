// Package sink delivers rendered calendars.
package sink

import (
	"context"

	"github.com/guillem8cbii/basquet/internal/ics"
)

// Sink is the minimal interface all sinks must implement.
type Sink interface {
	Name() string
	Push(ctx context.Context, doc ics.Document) error
}

// ContentType is the media type of published calendars.
const ContentType = "text/calendar; charset=utf-8"
