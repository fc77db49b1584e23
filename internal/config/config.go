package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"checkers/internal/board"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const envPrefix = "CHECKERS_"

// Config carries every tunable of the turn engine. It is passed explicitly
// into the engine; nothing reads process-wide state after Load.
type Config struct {
	AIMoveDelay          time.Duration // Pause before a computer move is shown and again before it is played
	PostGameDelay        time.Duration // Pause between game over and the automatic new game
	UserMoveHighlighting bool          // Publish legal moves for human turns
	AIMoveHighlighting   bool          // Publish the chosen computer move before it is played
	Rules                board.Rules
	AIWorkers            int
	Seed                 int64 // 0 seeds computer players from the clock
	LogLevel             string
}

func Default() Config {
	return Config{
		AIMoveDelay:          600 * time.Millisecond,
		PostGameDelay:        5 * time.Second,
		UserMoveHighlighting: true,
		AIMoveHighlighting:   true,
		Rules:                board.DefaultRules(),
		AIWorkers:            2,
		LogLevel:             "info",
	}
}

// Load applies an optional .env file and then the process environment on top
// of the defaults. A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	env, err := godotenv.Read(envFiles...)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read env file: %w", err)
		}
		log.Debug().Msg("no .env file, using process environment")
		env = map[string]string{}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, envPrefix) {
			env[k] = v
		}
	}

	return FromEnv(env)
}

// FromEnv builds a config from CHECKERS_* keys; unknown keys are ignored
func FromEnv(env map[string]string) (Config, error) {
	cfg := Default()
	var err error

	get := func(key string) (string, bool) {
		v, ok := env[envPrefix+key]
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("AI_MOVE_DELAY"); ok {
		if cfg.AIMoveDelay, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sAI_MOVE_DELAY: %w", envPrefix, err)
		}
	}
	if v, ok := get("POST_GAME_DELAY"); ok {
		if cfg.PostGameDelay, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sPOST_GAME_DELAY: %w", envPrefix, err)
		}
	}
	if v, ok := get("USER_MOVE_HIGHLIGHTING"); ok {
		if cfg.UserMoveHighlighting, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sUSER_MOVE_HIGHLIGHTING: %w", envPrefix, err)
		}
	}
	if v, ok := get("AI_MOVE_HIGHLIGHTING"); ok {
		if cfg.AIMoveHighlighting, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sAI_MOVE_HIGHLIGHTING: %w", envPrefix, err)
		}
	}
	if v, ok := get("FLYING_KINGS"); ok {
		if cfg.Rules.FlyingKings, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sFLYING_KINGS: %w", envPrefix, err)
		}
	}
	if v, ok := get("AI_WORKERS"); ok {
		if cfg.AIWorkers, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid %sAI_WORKERS: %w", envPrefix, err)
		}
	}
	if v, ok := get("SEED"); ok {
		if cfg.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("invalid %sSEED: %w", envPrefix, err)
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.AIMoveDelay < 0 {
		return fmt.Errorf("AI move delay cannot be negative: %s", c.AIMoveDelay)
	}
	if c.PostGameDelay < 0 {
		return fmt.Errorf("post-game delay cannot be negative: %s", c.PostGameDelay)
	}
	if c.AIWorkers < 1 {
		return fmt.Errorf("at least one AI worker is required, got %d", c.AIWorkers)
	}
	return nil
}
