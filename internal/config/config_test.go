package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "." {
		t.Errorf("expected data dir '.', got %q", cfg.DataDir)
	}
	if cfg.Firestore.Database != "(default)" {
		t.Errorf("expected default firestore database, got %q", cfg.Firestore.Database)
	}
	if cfg.CloudEnabled() {
		t.Error("expected cloud to be disabled without a project")
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSizeMB != 10 {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.DBPath() != "zaloga.sqlite3" {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "zaloga.yaml")
	content := "data_dir: /var/lib/zaloga\naddr: :9000\nfirestore:\n  project: from-file\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ZALOGA_FIRESTORE_PROJECT", "from-env")
	t.Setenv("ZALOGA_AUTH_SECRET", "s3cret")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	if err := flags.Parse([]string{"--addr", ":7000"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/var/lib/zaloga" {
		t.Errorf("expected data dir from file, got %q", cfg.DataDir)
	}
	if cfg.Firestore.Project != "from-env" {
		t.Errorf("expected env to override file, got %q", cfg.Firestore.Project)
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Errorf("expected secret from env, got %q", cfg.Auth.Secret)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected flag to win, got %q", cfg.Addr)
	}
	if cfg.DBPath() != "/var/lib/zaloga/zaloga.sqlite3" {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}
