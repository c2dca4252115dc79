package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guillem8cbii/basquet/internal/ics"
)

// DefaultPath is where the CLI writes the calendar.
const DefaultPath = "partidos_xirivella.ics"

type fileSink struct {
	path string
}

func NewFile(path string) Sink {
	if path == "" {
		path = DefaultPath
	}
	return &fileSink{path: path}
}

func (f *fileSink) Name() string { return "file:" + f.path }

// Push replaces the file, creating missing parent directories.
func (f *fileSink) Push(ctx context.Context, doc ics.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, []byte(doc.Text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
