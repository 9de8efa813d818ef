package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"render-presets/config"
	"render-presets/preset"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Defaults != preset.DefaultSettings() {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
level = "DEBUG"
format = "json"

[defaults]
resolution_x = 1280
resolution_y = 720
samples = 128
frame_start = 1
frame_end = 48
frame_step = 2
relative_path = "renders"
absolute_path = "/mnt/renders"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_FILE", "")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected PORT override, got %q", cfg.Server.Addr)
	}
	if cfg.Store.Path != "" {
		t.Fatalf("expected STORE_FILE override to empty, got %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Defaults.RelativePath != "//renders" {
		t.Fatalf("expected normalized relative path, got %q", cfg.Defaults.RelativePath)
	}
	if cfg.Defaults.Samples != 128 || cfg.Defaults.FrameStep != 2 {
		t.Fatalf("unexpected defaults %+v", cfg.Defaults)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"level":   "[logging]\nlevel = \"loud\"\n",
		"format":  "[logging]\nformat = \"xml\"\n",
		"range":   "[defaults]\nframe_start = 90\nframe_end = 10\n",
		"unknown": "[server]\nport = 1\n",
		"syntax":  "[server\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), name+".toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg := config.Default()
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Defaults != preset.DefaultSettings() {
		t.Fatalf("sample defaults drift from code defaults: %+v", cfg.Defaults)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[defaults]") {
		t.Fatal("sample missing defaults section")
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}
