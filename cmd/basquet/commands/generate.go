package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/metrics"
	"github.com/guillem8cbii/basquet/internal/pipeline"
	"github.com/guillem8cbii/basquet/internal/sink"
	"github.com/guillem8cbii/basquet/internal/store"
)

type generateOptions struct {
	output   string
	input    string
	s3Bucket string
	s3Key    string
	s3Region string
	state    string
	interval time.Duration
}

func installGenerateCmd(a *App) {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the calendar file once, or every --interval",
		Long: `Fetch the fixture listing, keep the matches of the configured team and write them as an iCalendar file.
With --s3-bucket the document is also uploaded to S3. When no match is found no file is written and the command exits with code 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generateRun(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&a.gen.output, "output", "o", "", "calendar file to write (default from output.path)")
	cmd.Flags().StringVarP(&a.gen.input, "input", "i", "", "read the payload from this file instead of fetching it")
	cmd.Flags().StringVar(&a.gen.s3Bucket, "s3-bucket", "", "also upload the calendar to this S3 bucket")
	cmd.Flags().StringVar(&a.gen.s3Key, "s3-key", "", "object key of the S3 upload (default from output.s3.key)")
	cmd.Flags().StringVar(&a.gen.s3Region, "s3-region", "", "AWS region of the S3 bucket")
	cmd.Flags().StringVar(&a.gen.state, "state", "", "JSON run report to write after each successful generation")
	cmd.Flags().DurationVar(&a.gen.interval, "interval", 0, "regenerate on this interval until interrupted; 0 runs once")

	_ = cmd.MarkFlagFilename("input")

	a.cmd.AddCommand(cmd)
}

// apply copies the command line overrides into c.
func (o generateOptions) apply(c *config.Config) {
	if o.input != "" {
		c.Source.Type = "file"
		c.Source.Path = o.input
	}
	if o.output != "" {
		c.Output.Path = o.output
	}
	if o.s3Bucket != "" {
		c.Output.S3.Bucket = o.s3Bucket
	}
	if o.s3Key != "" {
		c.Output.S3.Key = o.s3Key
	}
	if o.s3Region != "" {
		c.Output.S3.Region = o.s3Region
	}
	if o.state != "" {
		c.State.Path = o.state
	}
}

func (a *App) generateRun(ctx context.Context) error {
	c := *a.cfg
	a.gen.apply(&c)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if c.Metrics.Enable {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	}
	p, err := pipeline.New(&c, m, log.Logger)
	if err != nil {
		return err
	}

	sinks := []sink.Sink{sink.NewFile(c.Output.Path)}
	if strings.TrimSpace(c.Output.S3.Bucket) != "" {
		s, err := sink.NewS3FromConfig(ctx, c.Output.S3)
		if err != nil {
			return fmt.Errorf("init s3 sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	for _, s := range sinks {
		log.Debug().Str("sink", s.Name()).Msg("configured sink")
	}
	if c.State.Path != "" {
		if prev, err := store.LoadRunState(c.State.Path); err == nil {
			log.Info().Time("last_generated", prev.LastGenerated).Int("events", prev.Events).Msg("previous run")
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("ignoring unreadable run state")
		}
	}

	if a.gen.interval <= 0 {
		defer logMetrics(reg)
		return generateOnce(ctx, p, sinks, c.State.Path)
	}

	log.Info().Dur("interval", a.gen.interval).Msg("regenerating periodically")
	ticker := time.NewTicker(a.gen.interval)
	defer ticker.Stop()
	for {
		switch err := generateOnce(ctx, p, sinks, c.State.Path); {
		case errors.Is(err, pipeline.ErrNoMatches):
			log.Warn().Msg(err.Error())
		case err != nil:
			log.Error().Err(err).Msg("generation failed")
		}
		logMetrics(reg)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// generateOnce runs the pipeline and fans the document out to every sink. The
// state file is only written when all sinks succeeded.
func generateOnce(ctx context.Context, p *pipeline.Pipeline, sinks []sink.Sink, statePath string) error {
	start := time.Now()
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(sinks))
	for _, s := range sinks {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Push(ctx, res.Document); err != nil {
				errCh <- fmt.Errorf("push to %s: %w", s.Name(), err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for e := range errCh {
		errs = append(errs, e)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if statePath != "" {
		st := store.RunState{
			LastGenerated: start.UTC(),
			Events:        res.Document.Events,
			Skipped:       len(res.Document.Skipped),
			Source:        res.Source,
		}
		if err := store.SaveRunState(statePath, st); err != nil {
			return fmt.Errorf("save run state: %w", err)
		}
	}

	log.Info().
		Int("events", res.Document.Events).
		Int("duplicates", res.Duplicates).
		Int("sinks", len(sinks)).
		Dur("took", time.Since(start).Truncate(time.Millisecond)).
		Msg("calendar generated")
	return nil
}

// logMetrics logs a snapshot of the run metrics. Nothing scrapes them outside
// serve.
func logMetrics(reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	snap, err := metrics.Dump(reg)
	if err != nil {
		log.Debug().Err(err).Msg("gather metrics")
		return
	}
	log.Info().Str("metrics", snap).Msg("metrics snapshot")
}
