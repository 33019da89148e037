// Package config assembles application settings from the environment,
// loading a local .env file first so API keys never need exporting.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/plara718/rekishi/internal/llm"
	"github.com/plara718/rekishi/internal/logging"
	"github.com/plara718/rekishi/internal/store"
)

// App is the resolved application configuration.
type App struct {
	// DBPath is the SQLite database location.
	DBPath string
	// UserID scopes intervention lookups; "default" when unset.
	UserID string
	// LogFile is where the rotated JSON log goes.
	LogFile string
	// Debug enables console logging and verbose gateway logs.
	Debug bool

	LLM llm.Config
}

// Load reads configuration from .env and the environment. A missing
// .env file is not an error.
func Load() (App, error) {
	_ = godotenv.Load()

	app := App{
		UserID:  envOr("REKISHI_USER", "default"),
		LogFile: logging.DefaultLogPath(),
		Debug:   envBool("REKISHI_DEBUG"),
		LLM:     llm.ConfigFromEnv(),
	}

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return App{}, err
	}
	app.DBPath = dbPath
	return app, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
