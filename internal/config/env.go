package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from the first available env file.
// Existing process environment variables are never overwritten.
func loadEnvFile() error {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			slog.Debug("Loaded environment variables", "path", path)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}
