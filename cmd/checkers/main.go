// Package main runs an interactive checkers game in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"checkers/internal/cli"
	"checkers/internal/config"
	"checkers/internal/core"
	"checkers/internal/engine"
	"checkers/internal/logging"
	"checkers/internal/service"
	"checkers/internal/storage"
	clitransport "checkers/internal/transport/cli"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 2 * time.Second

func main() {
	var (
		black       = flag.String("black", "human", "Black player (human|computer)")
		white       = flag.String("white", "computer", "White player (human|computer)")
		position    = flag.String("position", "", "Start from a position, e.g. \"8/8/2b5/3w4/8/8/8/8 b\"")
		resume      = flag.Bool("continue", false, "Resume the most recent unfinished game (requires -db)")
		storagePath = flag.String("db", "", "Path to SQLite database file (disables saves if empty)")
		history     = flag.String("history", ".checkers_history", "Command history file")
		theme       = flag.String("theme", "", "Board colours (off|brown|green|gray), default depends on the terminal")
		envFile     = flag.String("env", ".env", "Optional env file with CHECKERS_* settings")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	// Logs would interleave with the board, so only warnings reach the terminal by default
	if os.Getenv("CHECKERS_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logging.Configure(cfg.LogLevel, false)

	opts := service.GameOptions{Position: *position, Continue: *resume}
	if opts.Black, err = core.ParsePlayerType(*black); err != nil {
		log.Fatal().Err(err).Msg("invalid -black")
	}
	if opts.White, err = core.ParsePlayerType(*white); err != nil {
		log.Fatal().Err(err).Msg("invalid -white")
	}

	var store *storage.Store
	if *storagePath != "" {
		store, err = storage.NewStore(*storagePath, false)
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
	}

	queue := engine.NewQueue(cfg.AIWorkers)
	defer queue.Shutdown(shutdownTimeout)

	svc := service.New(cfg, store, queue, engine.SleepPacer{})
	defer svc.Shutdown(shutdownTimeout)

	view, err := cli.NewTerminal(*history)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start terminal")
	}
	defer view.Close()
	if *theme != "" {
		if err := view.SetTheme(cli.ColorTheme(*theme)); err != nil {
			log.Fatal().Err(err).Msg("invalid -theme")
		}
	}

	handler := clitransport.New(svc, view)
	view.ShowWelcome()
	if err := handler.Start(opts); err != nil {
		view.ShowError(fmt.Errorf("could not start the game: %w", err))
		return
	}
	handler.Run() // All game loop logic is in the handler
}
