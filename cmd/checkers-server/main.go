// Package main runs the local checkers daemon: the JSON input adapter a UI
// drives moves through, and the websocket stream it renders events from.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkers/cmd/checkers-server/cli"
	"checkers/internal/config"
	"checkers/internal/engine"
	"checkers/internal/logging"
	"checkers/internal/service"
	"checkers/internal/storage"
	"checkers/internal/transport/http"
	"checkers/internal/transport/ws"

	"github.com/rs/zerolog/log"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		eventsPort  = flag.Int("events-port", 8081, "Websocket event server port (0 disables it)")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL, debug logs)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		pidPath     = flag.String("pid", "", "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
		envFile     = flag.String("env", ".env", "Optional env file with CHECKERS_* settings")
		logLevel    = flag.String("log-level", "", "Log level, overrides CHECKERS_LOG_LEVEL")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	} else if *dev {
		cfg.LogLevel = "debug"
	}
	logging.Configure(cfg.LogLevel, *dev)

	if *pidLock && *pidPath == "" {
		log.Fatal().Msg("-pid-lock flag requires the -pid flag to be set")
	}
	if *pidPath != "" {
		pid, err := acquirePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to manage PID file")
		}
		defer pid.Release()
		log.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("PID file created")
	}

	// 1. Storage (optional)
	var store *storage.Store
	if *storagePath != "" {
		log.Info().Str("path", *storagePath).Msg("initializing persistent storage")
		store, err = storage.NewStore(*storagePath, *dev)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close storage cleanly")
			}
		}()
	} else {
		log.Info().Msg("persistent storage disabled (use -storage-path to enable)")
	}

	// 2. Computer move workers and the session service
	queue := engine.NewQueue(cfg.AIWorkers)
	svc := service.New(cfg, store, queue, engine.SleepPacer{})

	// 3. Input adapter
	app := http.NewFiberApp(svc, *dev)
	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)
	go func() {
		log.Info().
			Str("addr", apiAddr).
			Bool("dev", *dev).
			Bool("storage", store != nil).
			Msgf("API listening on http://%s/api/v1/games", apiAddr)
		if err := app.Listen(apiAddr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	// 4. Event stream (optional)
	var events *ws.Server
	if *eventsPort != 0 {
		events = ws.NewServer(fmt.Sprintf("%s:%d", *apiHost, *eventsPort), svc)
		go func() {
			if err := events.Start(); err != nil {
				log.Error().Err(err).Msg("event server error")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down servers")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server forced to shut down")
	}
	if events != nil {
		if err = events.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("event server forced to shut down")
		}
	}

	// Runners stop before the queue they submit to
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("service shutdown error")
	}
	if err = queue.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("engine queue shutdown error")
	}

	log.Info().Msg("servers exited")
}
