package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the commands. Flags override them.
const (
	EnvConfig = "BOUNCE_CONFIG"
	EnvLevels = "BOUNCE_LEVELS"
	EnvOutput = "BOUNCE_OUTPUT"
	EnvAddr   = "BOUNCE_ADDR"
)

// LoadEnv loads .env from the working directory into the process
// environment. A missing file is not an error. Variables already set win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Env returns the value of key, or def when it is unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
