package config

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/texpack/internal/logfields"
	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first
// successfully parsed file. Existing process environment variables are not
// overwritten, so BIBINPUTS/BSTINPUTS set by the caller always win.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", logfields.File(envPath), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.File(envPath))
		return
	}
}
