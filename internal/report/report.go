// Package report emits a JSON summary of a finished run next to the
// dataset tree. The report is informational; nothing reads it back.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lightalchemist/facefetch/internal/pipeline"
)

const FileName = "run_report.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the serialized shape of one run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Manifest    string    `json:"manifest"`
	OutputRoot  string    `json:"output_root"`
	CropFaces   bool      `json:"crop_faces"`
	StartAtLine int       `json:"start_at_line,omitempty"`
	EndAtLine   int       `json:"end_at_line,omitempty"`

	RowsVisited   int64 `json:"rows_visited"`
	Succeeded     int64 `json:"succeeded"`
	Failed        int64 `json:"failed"`
	ParseFailures int64 `json:"parse_failures"`
	FacesWritten  int64 `json:"faces_written"`
	FacesSkipped  int64 `json:"faces_skipped"`
	FetchAttempts int64 `json:"fetch_attempts"`

	DurationSeconds float64 `json:"duration_seconds"`
	FetchP50Ms      int64   `json:"fetch_p50_ms"`
	FetchP95Ms      int64   `json:"fetch_p95_ms"`
	FetchP99Ms      int64   `json:"fetch_p99_ms"`

	Failures []string `json:"failures,omitempty"`
}

// Build assembles a Report from the run's config, stats, and failure lines.
func Build(cfg pipeline.Config, stats *pipeline.RunStats, failures []string) *Report {
	return &Report{
		GeneratedAt:     time.Now(),
		Manifest:        cfg.ManifestPath,
		OutputRoot:      cfg.OutputRoot,
		CropFaces:       cfg.CropFaces,
		StartAtLine:     cfg.StartAtLine,
		EndAtLine:       cfg.EndAtLine,
		RowsVisited:     stats.RowsVisited,
		Succeeded:       stats.Succeeded,
		Failed:          stats.Failed,
		ParseFailures:   stats.ParseFailures,
		FacesWritten:    stats.FacesWritten,
		FacesSkipped:    stats.FacesSkipped,
		FetchAttempts:   stats.FetchAttempts,
		DurationSeconds: stats.Duration.Seconds(),
		FetchP50Ms:      stats.FetchLatencyMs(50),
		FetchP95Ms:      stats.FetchLatencyMs(95),
		FetchP99Ms:      stats.FetchLatencyMs(99),
		Failures:        failures,
	}
}

// Write stores the report at <root>/run_report.json, replacing any previous
// run's report.
func (r *Report) Write(root string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report %s: %w", path, err)
	}

	return nil
}

// Read loads a report from <root>/run_report.json. Used by tests and the
// mirror command's pre-flight check.
func Read(root string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &r, nil
}
