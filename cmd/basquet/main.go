package main

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/guillem8cbii/basquet/cmd/basquet/commands"
	"github.com/guillem8cbii/basquet/internal/pipeline"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	a, err := commands.New()
	if err != nil {
		log.Error().Err(err).Msg("could not build the command line")
		os.Exit(1)
	}

	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
	Quit()
}

// run returns 2 on usage errors and when no match was found, 1 on any other
// failure.
func run(a app) int {
	defer installSignalHandler(a)()

	if err := a.Run(); err != nil {
		if errors.Is(err, pipeline.ErrNoMatches) {
			log.Warn().Msg(err.Error())
			return 2
		}
		log.Error().Msg(err.Error())

		if a.UsageError() {
			return 2
		}
		return 1
	}

	return 0
}

func installSignalHandler(a app) func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// the channel is closed once run returns
		if _, ok := <-c; ok {
			a.Quit()
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
		wg.Wait()
	}
}
