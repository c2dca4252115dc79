package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/httpapi"
	"github.com/guillem8cbii/basquet/internal/metrics"
	"github.com/guillem8cbii/basquet/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func installServeCmd(a *App) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP",
		Long: `Serve the calendar on /calendar.ics and /api/calendar. Every request regenerates it from the upstream listing.
When --config is set the file is watched and changes apply to the next request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveRun(cmd.Context())
		},
	}
	a.cmd.AddCommand(cmd)
}

func (a *App) serveRun(ctx context.Context) error {
	c := a.cfg
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if c.Metrics.Enable {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	p, err := pipeline.New(c, m, log.Logger)
	if err != nil {
		return err
	}
	live := pipeline.NewLive(p)

	if a.configPath != "" {
		w := config.NewWatcher(a.configPath, c, log.Logger)
		w.OnReload = func(nc *config.Config) {
			np, err := pipeline.New(nc, m, log.Logger)
			if err != nil {
				log.Warn().Err(err).Msg("keeping previous pipeline")
				return
			}
			live.Store(np)
			if nc.Server != c.Server {
				log.Warn().Msg("server settings changed, restart to apply them")
			}
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error().Err(err).Msg("configuration watcher stopped")
			}
		}()
	}

	srv := httpapi.NewServer(c.Server, httpapi.NewHandler(live, log.Logger), m, gatherer, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Server.ListenAddress).Str("team", c.Team).Msg("serving calendar")
		errCh <- srv.Serve()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
