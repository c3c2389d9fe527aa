package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pior/respd"
)

func main() {
	var (
		addr        = flag.String("addr", respd.DefaultAddr, "TCP listen address")
		configPath  = flag.String("config", "", "Path to a TOML config file")
		maxConns    = flag.Int("max-conns", respd.DefaultMaxConns, "Maximum concurrent connections")
		idleTimeout = flag.Duration("idle-timeout", 0, "Idle connection timeout (0 disables)")
		jsonLogs    = flag.Bool("json-logs", false, "Emit JSON logs instead of console output")
	)
	flag.Parse()

	logger := newLogger(*jsonLogs)

	cfg := respd.ServerConfig{
		Addr:        *addr,
		MaxConns:    *maxConns,
		IdleTimeout: *idleTimeout,
	}

	// Keys present in the config file take precedence over flags.
	if *configPath != "" {
		loaded, err := respd.LoadServerConfig(*configPath, cfg)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}

	server, err := respd.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(json bool) zerolog.Logger {
	if json {
		return zerolog.New(os.Stdout).With().Timestamp().Str("app", "respd").Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "respd").Logger()
}
