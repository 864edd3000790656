package main

import (
	"context"
	"flag"
	"os"

	"github.com/fox-gonic/fox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	smsadapter "github.com/voicedesk/voicedesk/internal/smsadapter"
	"github.com/voicedesk/voicedesk/internal/smsadapter/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()

	log.Info().Msg("Starting SMS gateway adapter")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if port := os.Getenv("ADAPTER_PORT"); port != "" {
		cfg.Server.BindAddr = ":" + port
	}

	adapter, err := smsadapter.NewSMSAdapterServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create SMS adapter server")
	}
	defer adapter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adapter.Start(ctx)

	router := fox.New()
	if err := adapter.UseApi(router); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup API routes")
	}

	log.Info().Msgf("Starting SMS adapter on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
