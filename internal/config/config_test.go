package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOPWATCH_CONFIG_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("first-run config mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if string(data) != configTemplate {
		t.Error("written template differs from configTemplate")
	}

	// The template itself must parse back to the defaults.
	again, err := Load()
	if err != nil {
		t.Fatalf("Load (template): %v", err)
	}
	if diff := cmp.Diff(Default(), again); diff != "" {
		t.Errorf("template config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOPWATCH_CONFIG_DIR", dir)
	content := "history_dir: /srv/history\ncolor: false\noutlook:\n  activity: calls\n  tenant_id: \"\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOPWATCH_LOCK", "false")
	t.Setenv("STOPWATCH_OUTLOOK_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		HistoryDir: "/srv/history",
		Color:      false,
		Lock:       false,
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
			Activity: "calls",
			Timezone: "Europe/Berlin",
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STOPWATCH_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("color: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
