package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `dsn: user:pass@tcp(db:3306)/ledger?parseTime=true
service: enavi
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.DSN != "user:pass@tcp(db:3306)/ledger?parseTime=true" {
		t.Errorf("unexpected dsn %q", cfg.DSN)
	}
	if cfg.Service != "enavi" {
		t.Errorf("unexpected service %q", cfg.Service)
	}
	// Unset keys keep their defaults.
	if cfg.Table != "credit_histories" {
		t.Errorf("expected default table, got %q", cfg.Table)
	}
}

func TestBuildEnvOverride(t *testing.T) {
	t.Setenv("MEISAI_SERVICE", "enavi")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("service: vpass\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Service != "enavi" {
		t.Errorf("environment should override the file, got %q", cfg.Service)
	}
}

func TestBuildMissingExplicitFile(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for explicitly named missing config file")
	}
}
