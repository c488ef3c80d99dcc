// Package pipeline drives the per-row download, validate, crop, and write
// cycle over a manifest line range. Rows are processed strictly one at a
// time in line order; a row's failure never aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/lightalchemist/facefetch/internal/fetch"
	"github.com/lightalchemist/facefetch/internal/imaging"
	"github.com/lightalchemist/facefetch/internal/manifest"
	"github.com/lightalchemist/facefetch/internal/storage"
)

// Config holds the parameters for one run.
type Config struct {
	ManifestPath string
	OutputRoot   string
	CropFaces    bool
	Timeout      time.Duration
	MaxRetries   int
	StartAtLine  int
	EndAtLine    int
	UserAgent    string
	MaxBodyBytes int64
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = fetch.DefaultUserAgent
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = fetch.DefaultMaxBodyBytes
	}
}

// Validate validates the configuration parameters.
func (c *Config) Validate() error {
	if c.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output root is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}
	if c.StartAtLine < 0 || c.EndAtLine < 0 {
		return fmt.Errorf("line range bounds must be non-negative")
	}
	if c.StartAtLine > 0 && c.EndAtLine > 0 && c.EndAtLine < c.StartAtLine {
		return fmt.Errorf("end line %d is before start line %d", c.EndAtLine, c.StartAtLine)
	}
	return nil
}

// FailureSink receives one formatted line per row failure, in line order.
type FailureSink interface {
	Record(line string)
}

// ProgressSink is notified once per visited row. A progress bar satisfies
// this; a nil sink disables reporting.
type ProgressSink interface {
	Add(n int) error
}

// Pipeline coordinates fetcher, validator, cropper, and writer for every
// in-range manifest row.
type Pipeline struct {
	cfg       Config
	fetcher   *fetch.Fetcher
	validator *imaging.Validator
	failures  FailureSink
	progress  ProgressSink
	logger    *slog.Logger
	stats     *RunStats
}

// New creates a Pipeline. The sniffer-backed validator is selected here,
// once per run. failures must not be nil; progress may be.
func New(cfg Config, failures FailureSink, progress ProgressSink, logger *slog.Logger) (*Pipeline, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if failures == nil {
		return nil, fmt.Errorf("failure sink is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		validator: imaging.NewValidator(imaging.ContentSniffer{}),
		failures:  failures,
		progress:  progress,
		logger:    logger,
		stats:     NewRunStats(),
	}, nil
}

// Run processes every manifest row in the configured line range and returns
// the run's statistics. Per-row failures are logged and swallowed; only
// pipeline-wide conditions (unreadable manifest, cancellation) surface as
// errors.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	if err := manifest.Validate(p.cfg.ManifestPath); err != nil {
		return p.stats, err
	}

	p.logger.Info("Starting download run.",
		"manifest", p.cfg.ManifestPath,
		"output_root", p.cfg.OutputRoot,
		"crop_faces", p.cfg.CropFaces,
		"timeout", p.cfg.Timeout,
		"max_retries", p.cfg.MaxRetries,
		"start_at_line", p.cfg.StartAtLine,
		"end_at_line", p.cfg.EndAtLine,
	)

	err := manifest.Scan(p.cfg.ManifestPath, p.cfg.StartAtLine, p.cfg.EndAtLine, func(line string, lineNumber int) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.stats.RowsVisited++
		if err := p.processLine(ctx, line, lineNumber); err != nil {
			return err
		}

		if p.progress != nil {
			_ = p.progress.Add(1)
		}
		return nil
	})

	p.stats.UpdateDuration()
	if err != nil {
		return p.stats, err
	}

	p.logger.Info("Download run finished.", "summary", p.stats.String())
	return p.stats, nil
}

// processLine takes one raw manifest line through parse and the row state
// machine. Row failures stay inside this call; only a cancelled run
// propagates as an error.
func (p *Pipeline) processLine(ctx context.Context, line string, lineNumber int) error {
	row, err := manifest.ParseRow(line, lineNumber)
	if err != nil {
		p.stats.ParseFailures++
		p.stats.Failed++
		p.fail(RowFailure{
			Line:    lineNumber,
			URL:     manifest.URLHint(line),
			Kind:    FailureParse,
			Message: fmt.Sprintf("cannot parse manifest row (%v)", err),
		})
		return nil
	}

	return p.processRow(ctx, row)
}

// processRow runs the fetch/validate/write/crop state machine for a parsed
// row.
func (p *Pipeline) processRow(ctx context.Context, row *manifest.Row) error {
	p.logger.Debug("Downloading.", "line", row.LineNumber, "url", row.URL)

	result, fetchErr, ctxErr := p.fetchWithRetry(ctx, row)
	if ctxErr != nil {
		// Cancellation is not a row failure: the row was never fully
		// attempted, so nothing lands in the failure log.
		return ctxErr
	}
	if fetchErr != nil {
		kind := FailureNetworkPermanent
		if fetchErr.Transient {
			kind = FailureNetworkTransient
		}
		p.stats.Failed++
		p.fail(RowFailure{Line: row.LineNumber, URL: row.URL, Kind: kind, Message: fetchErr.Detail})
		return nil
	}

	ext, err := p.validator.Validate(result.Body, result.ContentType)
	if err != nil {
		p.stats.Failed++
		p.fail(RowFailure{Line: row.LineNumber, URL: row.URL, Kind: FailureValidation, Message: err.Error()})
		return nil
	}

	imagePath := storage.ImagePath(p.cfg.OutputRoot, row.Name, row.ImageID, ext)
	if err := storage.Write(imagePath, result.Body); err != nil {
		p.stats.Failed++
		p.fail(RowFailure{Line: row.LineNumber, URL: row.URL, Kind: FailureIO, Message: err.Error()})
		return nil
	}

	// The full image is on disk; the row is a success from here on even if
	// the face crop falls over.
	p.stats.Succeeded++

	if p.cfg.CropFaces && row.HasBBox {
		p.cropFace(row, result.Body)
	}
	return nil
}

// fetchWithRetry attempts the row's URL until it succeeds, fails
// permanently, or exhausts max_retries. Retries are immediate; the only
// pacing is the request timeout itself. A cancelled context comes back in
// the third return, distinct from row-level fetch failures.
func (p *Pipeline) fetchWithRetry(ctx context.Context, row *manifest.Row) (*fetch.Result, *fetch.Error, error) {
	maxAttempts := p.cfg.MaxRetries + 1

	var lastErr *fetch.Error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		start := time.Now()
		result, err := p.fetcher.Do(ctx, row.URL)
		p.stats.RecordFetch(time.Since(start))

		if err == nil {
			return result, nil, nil
		}

		// An attempt aborted by cancellation is indistinguishable from a
		// transport error at this level; check the context before
		// classifying it as a row failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}

		if !errors.As(err, &lastErr) {
			// The fetcher only returns *fetch.Error; treat anything else as
			// permanent to be safe.
			lastErr = &fetch.Error{Detail: err.Error(), Transient: false, Cause: err}
		}

		if !lastErr.Transient {
			return nil, lastErr, nil
		}

		if attempt < maxAttempts {
			p.logger.Debug("Retrying row.", "line", row.LineNumber, "attempt", attempt+1, "error", lastErr.Detail)
		}
	}

	return nil, lastErr, nil
}

// cropFace produces the face file for a row whose full image already made
// it to disk. Failures here are partial: logged, face skipped, full image
// untouched.
func (p *Pipeline) cropFace(row *manifest.Row, data []byte) {
	box := image.Rectangle{
		Min: image.Pt(row.BBox.X1, row.BBox.Y1),
		Max: image.Pt(row.BBox.X2, row.BBox.Y2),
	}

	cropped, ext, err := imaging.Crop(data, box)
	if err != nil {
		p.stats.FacesSkipped++
		p.fail(RowFailure{
			Line:    row.LineNumber,
			URL:     row.URL,
			Kind:    FailureCrop,
			Message: fmt.Sprintf("face crop skipped (%v)", err),
		})
		return
	}

	facePath := storage.FacePath(p.cfg.OutputRoot, row.Name, row.ImageID, row.FaceID, ext)
	if err := storage.Write(facePath, cropped); err != nil {
		p.stats.FacesSkipped++
		p.fail(RowFailure{Line: row.LineNumber, URL: row.URL, Kind: FailureIO, Message: err.Error()})
		return
	}

	p.stats.FacesWritten++
}

// fail routes one failure to the fixed-format log and the diagnostics
// logger.
func (p *Pipeline) fail(f RowFailure) {
	p.failures.Record(f.LogLine())
	p.logger.Warn("Row failure.", "line", f.Line, "kind", f.Kind.String(), "message", f.Message, "url", f.URL)
}
