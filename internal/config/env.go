package config

import (
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; values already set in the environment win.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err == nil {
			slog.Debug("Loaded environment file", slog.String("path", path))
		}
	}
}
