package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", c.ServerPort)
	}
	if c.PreviewRows != 10 {
		t.Errorf("PreviewRows = %d, want 10", c.PreviewRows)
	}
	if c.LabelMode != "none" || c.LogLevel != "info" || c.LogFormat != "text" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.MaxUploadBytes() != 50<<20 {
		t.Errorf("MaxUploadBytes = %d", c.MaxUploadBytes())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TABEX_SERVER_PORT", "9090")
	t.Setenv("TABEX_LOG_LEVEL", "DEBUG")
	t.Setenv("TABEX_LABEL_MODE", "percent")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", c.ServerPort)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if c.LabelMode != "percent" {
		t.Errorf("LabelMode = %q, want percent", c.LabelMode)
	}
}

func TestLoadFileAndInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("server_port: 7000\npalette: viridis\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(good)
	if err != nil {
		t.Fatalf("Load(good) error = %v", err)
	}
	if c.ServerPort != 7000 || c.Palette != "viridis" {
		t.Fatalf("file values not applied: %+v", c)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("server_port: 0\npreview_rows: 500\nlog_format: xml\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = Load(bad)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"server_port", "preview_rows", "log_format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestSetAndSave(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Set("preview_rows", "25"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("label_mode", "COUNT"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("preview_rows", "abc"); err == nil {
		t.Fatalf("expected int parse error")
	}
	if err := c.Set("preview_rows", "500"); err == nil {
		t.Fatalf("expected validation error")
	}
	if c.PreviewRows != 25 {
		t.Fatalf("failed Set changed PreviewRows to %d", c.PreviewRows)
	}
	if err := c.Set("nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}

	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load(saved) error = %v", err)
	}
	if back.PreviewRows != 25 || back.LabelMode != "count" {
		t.Fatalf("round trip lost values: %+v", back)
	}
}

func TestClampPreview(t *testing.T) {
	c := &Global{PreviewRows: 10}
	tests := map[int]int{0: 10, -3: 10, 1: 1, 50: 50, 100: 100, 1000: 100}
	for in, want := range tests {
		if got := c.ClampPreview(in); got != want {
			t.Errorf("ClampPreview(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDefaultsValidate(t *testing.T) {
	t.Setenv("TABEX_SERVER_PORT", "0")
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
	if c.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080 (env must not apply)", c.ServerPort)
	}
}
