// Command basquet-lambda serves the calendar behind an API Gateway proxy
// integration. Configuration comes from BASQUET_CONFIG and BASQUET_* variables.
package main

import (
	"os"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/httpapi"
	"github.com/guillem8cbii/basquet/internal/pipeline"
)

func main() {
	// CloudWatch keeps one JSON object per line.
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	c, err := config.Load(os.Getenv("BASQUET_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	if err := c.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Nothing scrapes a function instance, so runs are only logged.
	p, err := pipeline.New(c, nil, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build pipeline")
	}

	lambda.Start(httpapi.NewHandler(p, log.Logger).Lambda)
}
