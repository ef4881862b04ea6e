package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE pairs from .env and .env.local when present.
// Variables already set in the process environment win.
func loadEnvFiles() {
	for _, name := range envFiles {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded environment file", "file", name)
		}
	}
}
