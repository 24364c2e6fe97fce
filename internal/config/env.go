package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "KUMO_LOG"

// LoadEnv reads KEY=value pairs from a .env file into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// applyEnv layers environment overrides on top of file values.
func applyEnv(cfg *Config) []Warning {
	level := strings.TrimSpace(os.Getenv(LogLevelEnv))
	if level == "" {
		return nil
	}
	if _, ok := logLevels[strings.ToLower(level)]; !ok {
		return []Warning{{Message: fmt.Sprintf("%s=%q is not a known level; keeping %q", LogLevelEnv, level, cfg.LogLevel)}}
	}
	cfg.LogLevel = strings.ToLower(level)
	return nil
}
