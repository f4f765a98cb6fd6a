package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EntriesDir != "entries" {
		t.Errorf("expected default entries dir, got %q", cfg.EntriesDir)
	}
	if cfg.Addr != "127.0.0.1:8000" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if !cfg.Watch || cfg.Versioning || cfg.ReadOnly || cfg.MarkdownHardWraps {
		t.Errorf("unexpected default flags: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENCYCLOPEDIA_ENTRIES_DIR", "/srv/wiki")
	t.Setenv("ENCYCLOPEDIA_READ_ONLY", "true")
	t.Setenv("ENCYCLOPEDIA_MARKDOWN_EXTENSIONS", "gfm,footnote")
	t.Setenv("ENCYCLOPEDIA_WATCH", "false")
	t.Setenv("ENCYCLOPEDIA_MARKDOWN_HARD_WRAPS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EntriesDir != "/srv/wiki" || !cfg.ReadOnly || cfg.Watch {
		t.Errorf("env not applied: %+v", cfg)
	}
	if len(cfg.MarkdownExtensions) != 2 || cfg.MarkdownExtensions[1] != "footnote" {
		t.Errorf("unexpected extensions: %v", cfg.MarkdownExtensions)
	}
	if !cfg.MarkdownHardWraps {
		t.Errorf("expected hard wraps from env")
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("ENCYCLOPEDIA_VERSIONING", "maybe")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
