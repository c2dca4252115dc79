// Package pipeline runs one calendar generation: fetch, extract, render.
package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/ubuntu/decorate"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/extract"
	"github.com/guillem8cbii/basquet/internal/ics"
	"github.com/guillem8cbii/basquet/internal/metrics"
	"github.com/guillem8cbii/basquet/internal/model"
	"github.com/guillem8cbii/basquet/internal/source"
	"github.com/guillem8cbii/basquet/internal/store"
)

// ErrNoMatches is returned when the payload holds no fixture of the team.
var ErrNoMatches = errors.New("no matches found for team")

// Result is the outcome of a successful run.
type Result struct {
	Document   ics.Document
	Matches    []model.Match // after duplicate suppression
	Duplicates int
	Source     string
	Team       string
	Filename   string // attachment name for the document
}

type Pipeline struct {
	Source     source.Source
	Adapter    extract.Adapter
	Team       extract.TeamMatcher
	Serializer *ics.Serializer
	Dedup      bool
	MaxKeys    int
	Filename   string
	Metrics    *metrics.Metrics
	Log        zerolog.Logger
	Now        func() time.Time
}

// New builds a pipeline from a validated configuration. m may be nil.
func New(c *config.Config, m *metrics.Metrics, logger zerolog.Logger) (p *Pipeline, err error) {
	defer decorate.OnError(&err, "build pipeline")

	team, err := extract.NewTeamMatcher(c.Team)
	if err != nil {
		return nil, err
	}
	src, err := source.NewFromConfig(c.Source)
	if err != nil {
		return nil, err
	}
	adapter, err := extract.NewAdapter(c.Source.Format)
	if err != nil {
		return nil, err
	}
	ser, err := ics.NewSerializer(c.Calendar)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Source:     src,
		Adapter:    adapter,
		Team:       team,
		Serializer: ser,
		Dedup:      c.Dedup.Enable,
		MaxKeys:    c.Dedup.MaxKeys,
		Filename:   c.Calendar.Filename,
		Metrics:    m,
		Log:        logger,
		Now:        time.Now,
	}, nil
}

// Run performs one generation. It returns ErrNoMatches when the team has no
// fixtures; skipped records are reported in the document, not as an error.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		switch {
		case err == nil:
			p.Metrics.Run(metrics.OutcomeOK, start)
		case errors.Is(err, ErrNoMatches):
			p.Metrics.Run(metrics.OutcomeNoMatches, start)
		default:
			p.Metrics.Run(metrics.OutcomeError, start)
		}
	}()
	defer decorate.OnError(&err, "generate calendar")

	res.Source = p.Source.Name()
	res.Team = p.Team.Name()
	res.Filename = p.Filename
	log := p.Log.With().Str("source", res.Source).Str("team", p.Team.Name()).Logger()

	raw, err := p.Source.Fetch(ctx)
	p.Metrics.Fetch(res.Source, err)
	if err != nil {
		return res, err
	}
	log.Debug().Int("bytes", len(raw)).Msg("payload fetched")

	matches, err := p.Adapter.Extract(raw, p.Team)
	if err != nil {
		return res, err
	}
	if p.Dedup {
		matches, res.Duplicates = store.NewDedup(p.MaxKeys).Filter(matches)
		p.Metrics.Duplicates(res.Duplicates)
		if res.Duplicates > 0 {
			log.Debug().Int("dropped", res.Duplicates).Msg("duplicate matches dropped")
		}
	}
	p.Metrics.Extracted(len(matches))
	res.Matches = matches
	log.Debug().Int("matches", len(matches)).Str("adapter", p.Adapter.Name()).Msg("matches extracted")

	if len(matches) == 0 {
		return res, ErrNoMatches
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	doc, err := p.Serializer.Render(matches, now())
	p.Metrics.Skipped(len(doc.Skipped))
	for _, s := range doc.Skipped {
		log.Warn().Err(s).Msg("match skipped")
	}
	if err != nil {
		return res, err
	}
	res.Document = doc
	return res, nil
}

// Live holds the pipeline currently in use, replaced when configuration changes.
type Live struct {
	cur atomic.Pointer[Pipeline]
}

func NewLive(p *Pipeline) *Live {
	l := &Live{}
	l.cur.Store(p)
	return l
}

func (l *Live) Store(p *Pipeline) { l.cur.Store(p) }

func (l *Live) Load() *Pipeline { return l.cur.Load() }

// Run runs the current pipeline.
func (l *Live) Run(ctx context.Context) (Result, error) {
	return l.cur.Load().Run(ctx)
}
