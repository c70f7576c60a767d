package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("SEED_QUIZZES", "")
	t.Setenv("OPENTDB_IMPORT", "not-a-number")

	cfg := LoadServer()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Addr)
	}
	if !cfg.SeedQuizzes {
		t.Fatalf("expected seeding to default to true")
	}
	if cfg.OpenTDBImport != 0 {
		t.Fatalf("invalid OPENTDB_IMPORT should fall back to 0, got %d", cfg.OpenTDBImport)
	}
}

func TestLoadClientParsesDurations(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "750ms")
	t.Setenv("PROBE_INTERVAL", "-1s")

	cfg := LoadClient()
	if cfg.HTTPTimeout != 750*time.Millisecond {
		t.Fatalf("http timeout = %s, want 750ms", cfg.HTTPTimeout)
	}
	if cfg.ProbeInterval != 10*time.Second {
		t.Fatalf("non-positive probe interval should use default, got %s", cfg.ProbeInterval)
	}
}

func TestLoadDotEnvMissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv missing file: %v", err)
	}
}

func TestLoadDotEnvReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("QUIZ_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("QUIZ_DOTENV_PROBE", "")
	_ = os.Unsetenv("QUIZ_DOTENV_PROBE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("QUIZ_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("QUIZ_DOTENV_PROBE = %q, want from-file", got)
	}
}
