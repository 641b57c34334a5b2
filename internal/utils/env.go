package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kelsos/artisan/internal/logger"
)

// EnvFileVariable names an extra .env file that is read before the defaults
const EnvFileVariable = "ARTISAN_ENV_FILE"

// envCandidates lists .env files in load order without duplicates. Earlier
// files win because godotenv never overrides a variable that is already set.
func envCandidates() []string {
	var candidates []string
	if explicit := os.Getenv(EnvFileVariable); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, ".env")

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	} else {
		logger.Debug("Could not determine executable path: %v", err)
	}

	seen := make(map[string]bool, len(candidates))
	unique := candidates[:0]
	for _, path := range candidates {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, path)
	}
	return unique
}

// LoadEnvironment reads every available .env file and returns the ones loaded.
// Variables already present in the process environment are left untouched.
func LoadEnvironment() []string {
	var loaded []string
	for _, path := range envCandidates() {
		if err := godotenv.Load(path); err != nil {
			logger.Debug("Skipping env file %s: %v", path, err)
			continue
		}
		logger.Info("Loaded environment from %s", path)
		loaded = append(loaded, path)
	}
	return loaded
}
