package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lightalchemist/facefetch/internal/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CLIConfig represents the download command's configuration. Values come
// from the config file, then FACEFETCH_* environment variables, then flags,
// each layer overriding the last.
type CLIConfig struct {
	CropFaces      bool   `json:"crop_faces"`
	Logfile        string `json:"logfile"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
	StartAtLine    int    `json:"start_at_line,omitempty"`
	EndAtLine      int    `json:"end_at_line,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	ShowProgress   bool   `json:"show_progress"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configFile string) (*CLIConfig, error) {
	config := &CLIConfig{
		Logfile:        "download.log",
		TimeoutSeconds: 60,
		MaxRetries:     3,
		ShowProgress:   true,
	}

	if configFile != "" {
		if err := loadConfigFile(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
	}

	loadConfigFromEnv(config)

	return config, nil
}

// loadConfigFile loads configuration from a JSON file.
func loadConfigFile(config *CLIConfig, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, config)
}

// loadConfigFromEnv loads configuration from environment variables.
func loadConfigFromEnv(config *CLIConfig) {
	if val := os.Getenv("FACEFETCH_CROP_FACES"); val != "" {
		config.CropFaces = val == "true" || val == "1"
	}

	if val := os.Getenv("FACEFETCH_LOGFILE"); val != "" {
		config.Logfile = val
	}

	if val := os.Getenv("FACEFETCH_TIMEOUT"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			config.TimeoutSeconds = seconds
		}
	}

	if val := os.Getenv("FACEFETCH_MAX_RETRIES"); val != "" {
		if retries, err := strconv.Atoi(val); err == nil {
			config.MaxRetries = retries
		}
	}

	if val := os.Getenv("FACEFETCH_START_AT_LINE"); val != "" {
		if line, err := strconv.Atoi(val); err == nil {
			config.StartAtLine = line
		}
	}

	if val := os.Getenv("FACEFETCH_END_AT_LINE"); val != "" {
		if line, err := strconv.Atoi(val); err == nil {
			config.EndAtLine = line
		}
	}

	if val := os.Getenv("FACEFETCH_USER_AGENT"); val != "" {
		config.UserAgent = val
	}

	if val := os.Getenv("FACEFETCH_SHOW_PROGRESS"); val != "" {
		config.ShowProgress = val == "true" || val == "1"
	}
}

// ToPipelineConfig converts CLIConfig plus the positional arguments into the
// pipeline's configuration.
func (c *CLIConfig) ToPipelineConfig(manifestPath, outputRoot string) pipeline.Config {
	cfg := pipeline.Config{
		ManifestPath: manifestPath,
		OutputRoot:   outputRoot,
		CropFaces:    c.CropFaces,
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries:   c.MaxRetries,
		StartAtLine:  c.StartAtLine,
		EndAtLine:    c.EndAtLine,
		UserAgent:    c.UserAgent,
	}

	cfg.SetDefaults()
	return cfg
}

// Validate validates the CLI configuration.
func (c *CLIConfig) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be non-negative")
	}

	if c.StartAtLine < 0 || c.EndAtLine < 0 {
		return fmt.Errorf("line range bounds must be non-negative")
	}

	if c.StartAtLine > 0 && c.EndAtLine > 0 && c.EndAtLine < c.StartAtLine {
		return fmt.Errorf("end-at-line must not be before start-at-line")
	}

	return nil
}
