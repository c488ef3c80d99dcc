package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logfile != "download.log" {
		t.Errorf("Logfile = %q, want download.log", cfg.Logfile)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.CropFaces {
		t.Error("CropFaces defaults to true, want false")
	}
	if !cfg.ShowProgress {
		t.Error("ShowProgress defaults to false, want true")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"crop_faces": true,
		"logfile": "failures.log",
		"timeout_seconds": 10,
		"max_retries": 1,
		"start_at_line": 100,
		"end_at_line": 200
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.CropFaces || cfg.Logfile != "failures.log" || cfg.TimeoutSeconds != 10 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.StartAtLine != 100 || cfg.EndAtLine != 200 {
		t.Errorf("line range = %d..%d, want 100..200", cfg.StartAtLine, cfg.EndAtLine)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"timeout_seconds": 10, "max_retries": 1}`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FACEFETCH_TIMEOUT", "25")
	t.Setenv("FACEFETCH_CROP_FACES", "true")
	t.Setenv("FACEFETCH_USER_AGENT", "custom-agent/1.0")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.TimeoutSeconds != 25 {
		t.Errorf("TimeoutSeconds = %d, want env value 25", cfg.TimeoutSeconds)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want file value 1", cfg.MaxRetries)
	}
	if !cfg.CropFaces || cfg.UserAgent != "custom-agent/1.0" {
		t.Errorf("env values not applied: %+v", cfg)
	}
}

func TestLoadConfig_IgnoresMalformedEnvNumbers(t *testing.T) {
	t.Setenv("FACEFETCH_MAX_RETRIES", "lots")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want the default 3", cfg.MaxRetries)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadConfig() succeeded with a missing config file, want error")
	}
}

func TestCLIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CLIConfig)
		wantErr bool
	}{
		{"defaults", func(c *CLIConfig) {}, false},
		{"zero timeout", func(c *CLIConfig) { c.TimeoutSeconds = 0 }, true},
		{"negative retries", func(c *CLIConfig) { c.MaxRetries = -1 }, true},
		{"negative start line", func(c *CLIConfig) { c.StartAtLine = -5 }, true},
		{"inverted range", func(c *CLIConfig) { c.StartAtLine = 20; c.EndAtLine = 10 }, true},
		{"valid range", func(c *CLIConfig) { c.StartAtLine = 10; c.EndAtLine = 20 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &CLIConfig{Logfile: "download.log", TimeoutSeconds: 60, MaxRetries: 3}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestToPipelineConfig(t *testing.T) {
	cli := &CLIConfig{
		CropFaces:      true,
		TimeoutSeconds: 15,
		MaxRetries:     2,
		StartAtLine:    5,
		EndAtLine:      50,
	}

	cfg := cli.ToPipelineConfig("manifest.txt", "out/")

	if cfg.ManifestPath != "manifest.txt" || cfg.OutputRoot != "out/" {
		t.Errorf("paths not carried over: %+v", cfg)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if !cfg.CropFaces || cfg.MaxRetries != 2 || cfg.StartAtLine != 5 || cfg.EndAtLine != 50 {
		t.Errorf("values not carried over: %+v", cfg)
	}
	if cfg.UserAgent == "" {
		t.Error("UserAgent not defaulted")
	}
	if cfg.MaxBodyBytes == 0 {
		t.Error("MaxBodyBytes not defaulted")
	}
}
