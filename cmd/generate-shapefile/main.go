// Command generate-shapefile is the serverless function entry point.
package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	patrimonial "github.com/tingold/patrimonial-export"
	"github.com/tingold/patrimonial-export/internal/config"
	"github.com/tingold/patrimonial-export/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	h := patrimonial.NewHandler(cfg.Export.Options())

	log.Info().
		Str("default_format", cfg.Export.DefaultFormat).
		Msg("Export function started")

	lambda.Start(h.Handle)
}
