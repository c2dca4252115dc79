// Package commands holds the basquet command line.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/guillem8cbii/basquet/internal/config"
)

// CmdName is the name of the binary.
const CmdName = "basquet"

// Version is set at build time via -ldflags "-X github.com/guillem8cbii/basquet/cmd/basquet/commands.Version=...".
var Version = "dev"

// App is the basquet command line application.
type App struct {
	cmd *cobra.Command

	configPath string
	verbosity  int
	cfg        *config.Config

	gen generateOptions

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the command tree.
func New() (*App, error) {
	a := &App{}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.cmd = &cobra.Command{
		Use:           CmdName,
		Short:         "Build an iCalendar feed of a basketball team's fixtures",
		Long:          "Fetch a federation fixture listing, keep the matches of one team and publish them as an iCalendar file or HTTP feed.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			setVerbosity(a.verbosity)

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log.Debug().Str("config", a.configPath).Str("team", cfg.Team).Msg("configuration loaded")
			return nil
		},
	}

	if err := installRootFlags(a); err != nil {
		return nil, err
	}
	installGenerateCmd(a)
	installServeCmd(a)
	installVersionCmd(a)

	return a, nil
}

func installRootFlags(a *App) error {
	cmd := a.cmd
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "use a specific YAML configuration file")
	cmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "issue DEBUG (-v) or TRACE (-vv) output")

	if err := cmd.MarkPersistentFlagFilename("config", "yml", "yaml"); err != nil {
		return fmt.Errorf("failed to mark config flag as filename: %w", err)
	}
	return nil
}

// setVerbosity maps the -v count to a global zerolog level.
func setVerbosity(level int) {
	switch {
	case level <= 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case level == 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

// Run executes the command and associated process, returning an error if any.
func (a *App) Run() error {
	return a.cmd.ExecuteContext(a.ctx)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// Quit stops a running generate loop or server.
func (a *App) Quit() {
	a.cancel()
}

// Config returns the configuration loaded by the last run.
func (a *App) Config() *config.Config {
	return a.cfg
}
