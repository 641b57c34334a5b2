package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnv(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// unset clears key for the duration of the test
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, filepath.Join(dir, ".env"), "ARTISAN_ENV_SAMPLE=from-dotenv\nARTISAN_ENV_KEEP=from-dotenv\n")
	chdir(t, dir)

	unset(t, EnvFileVariable)
	unset(t, "ARTISAN_ENV_SAMPLE")
	t.Setenv("ARTISAN_ENV_KEEP", "from-shell")

	loaded := LoadEnvironment()

	if len(loaded) != 1 || loaded[0] != ".env" {
		t.Errorf("expected only the local .env to load, got %v", loaded)
	}
	if got := os.Getenv("ARTISAN_ENV_SAMPLE"); got != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("ARTISAN_ENV_KEEP"); got != "from-shell" {
		t.Errorf("existing variables must win over .env, got %q", got)
	}
}

func TestLoadEnvironment_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "artisan.env")
	writeEnv(t, explicit, "ARTISAN_ENV_SAMPLE=explicit\n")
	writeEnv(t, filepath.Join(dir, ".env"), "ARTISAN_ENV_SAMPLE=local\n")
	chdir(t, dir)

	t.Setenv(EnvFileVariable, explicit)
	unset(t, "ARTISAN_ENV_SAMPLE")

	loaded := LoadEnvironment()

	if len(loaded) != 2 || loaded[0] != explicit {
		t.Errorf("expected explicit file first, got %v", loaded)
	}
	if got := os.Getenv("ARTISAN_ENV_SAMPLE"); got != "explicit" {
		t.Errorf("expected explicit file to win, got %q", got)
	}
}

func TestLoadEnvironment_NoFile(t *testing.T) {
	chdir(t, t.TempDir())
	unset(t, EnvFileVariable)

	if loaded := LoadEnvironment(); len(loaded) != 0 {
		t.Errorf("expected nothing loaded, got %v", loaded)
	}
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
