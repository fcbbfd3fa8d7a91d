package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/alertpipe/alertpipe/internal/api"
	"github.com/alertpipe/alertpipe/internal/channel"
	"github.com/alertpipe/alertpipe/internal/config"
	"github.com/alertpipe/alertpipe/internal/engine"
	"github.com/alertpipe/alertpipe/internal/metrics"
	"github.com/alertpipe/alertpipe/internal/version"
)

func main() {
	configPath := flag.String("config", "/config/alertpipe.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	apiAddr := flag.String("api-addr", ":8088", "Listen address for the HTTP API")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("version", version.GetVersion()).
		Str("commit", version.GetCommit()).
		Logger()

	logger.Info().Msg("Starting alertpipe")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("config_path", *configPath).
			Msg("Failed to load configuration")
	}

	identity := channel.LocalIdentity("alertpipe")

	// Misconfigured channels are reported here and skipped; a config with
	// no working channel at all is refused.
	registry, cfgErrs := channel.BuildRegistry(cfg.Channels, identity, nil, logger)
	if len(registry.Enabled()) == 0 {
		logger.Fatal().
			Int("config_errors", len(cfgErrs)).
			Msg("No delivery channel is usable")
	}

	promReg := prometheus.NewRegistry()
	engineMetrics := metrics.New(promReg)

	eng := engine.New(cfg, registry, logger,
		engine.WithMetrics(engineMetrics),
	)

	// Recent events back the API's event listing.
	events := engine.NewEventBuffer(1000)
	eng.Subscribe(events.Record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng.Start(ctx)

	apiServer := api.NewServer(eng, events, promReg, logger, *apiAddr)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info().
		Str("api_addr", *apiAddr).
		Msg("alertpipe running, press Ctrl+C to stop")

	<-sigChan
	logger.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	eng.Stop()

	if fileCh, ok := registry.Get("file"); ok {
		if closer, ok := fileCh.(*channel.File); ok {
			if err := closer.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing alert log")
			}
		}
	}

	logger.Info().Msg("alertpipe stopped")
}
