package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
generation:
  start_x: 40
  spacing: 32
  timeout: 30s
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config error: %v", err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("GENERATION_WORKERS", "3")

	c := loadConfig()

	if c.Server.Port != "9090" {
		t.Fatalf("unexpected port: %s", c.Server.Port)
	}
	if c.Server.Mode != "debug" {
		t.Fatalf("default mode should be kept, got %s", c.Server.Mode)
	}
	if c.Database.Type != "mysql" {
		t.Fatalf("env should override database type, got %s", c.Database.Type)
	}
	if c.Generation.StartX != 40 || c.Generation.Spacing != 32 {
		t.Fatalf("unexpected generation config: %+v", c.Generation)
	}
	if c.Generation.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", c.Generation.Timeout)
	}
	if c.Generation.Workers != 3 {
		t.Fatalf("unexpected workers: %d", c.Generation.Workers)
	}
}

func TestLoadConfigInvalidEnvKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GENERATION_SPACING", "wide")
	t.Setenv("GENERATION_WORKERS", "0")

	c := loadConfig()

	if c.Generation.Spacing != 20 {
		t.Fatalf("expected default spacing, got %v", c.Generation.Spacing)
	}
	if c.Generation.Workers != 1 {
		t.Fatalf("expected default workers, got %d", c.Generation.Workers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.Generation.Spacing = 8
	if err := c.Save(path); err != nil {
		t.Fatalf("save error: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	loaded := loadConfig()
	if loaded.Generation.Spacing != 8 {
		t.Fatalf("unexpected spacing after reload: %v", loaded.Generation.Spacing)
	}
}
