package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lightalchemist/facefetch/internal/logging"
	"github.com/lightalchemist/facefetch/internal/manifest"
	"github.com/lightalchemist/facefetch/internal/pipeline"
	"github.com/lightalchemist/facefetch/internal/report"
	"github.com/lightalchemist/facefetch/internal/storage"
)

const diagLogName = "facefetch.log"

var (
	cropFace     bool
	logfile      string
	timeoutSecs  int
	maxRetries   int
	startAtLine  int
	endAtLine    int
	userAgent    string
	showProgress bool
	configFile   string
)

var downloadCmd = &cobra.Command{
	Use:   "download <manifest> <output_root>",
	Short: "Download a face-image dataset from a manifest",
	Long: `Download every in-range manifest row: fetch the image, validate it by
content, write it under <output_root>/images/, and, with --crop-face, write
the cropped face region under <output_root>/faces/.

Each failed row produces exactly one log line of the form
"Line <n>: <error message>: <url>". Per-row failures never abort the run.

Examples:
  # Full-size images only
  facefetch download actors_users_normal_bbox.txt actors/

  # Also crop and save faces, with a 10 second request timeout
  facefetch download actors_users_normal_bbox.txt actors/ --crop-face --timeout=10

  # Resume an interrupted run at data line 5000
  facefetch download actors_users_normal_bbox.txt actors/ --start-at-line=5000`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVar(&cropFace, "crop-face", false, "Crop and save face images using the manifest bounding boxes")
	downloadCmd.Flags().StringVarP(&logfile, "logfile", "l", "download.log", "File to log per-row failures")
	downloadCmd.Flags().IntVarP(&timeoutSecs, "timeout", "t", 60, "Seconds to wait before a request times out")
	downloadCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Retries per row for transient failures")
	downloadCmd.Flags().IntVar(&startAtLine, "start-at-line", 0, "First data line to visit (1-based, inclusive; 0 = from the top)")
	downloadCmd.Flags().IntVar(&endAtLine, "end-at-line", 0, "Last data line to visit (inclusive; 0 = to the end)")
	downloadCmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header to send (defaults to a browser agent)")
	downloadCmd.Flags().BoolVar(&showProgress, "progress", true, "Show a console progress bar")
	downloadCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a JSON configuration file")
}

func runDownload(cmd *cobra.Command, args []string) error {
	manifestPath, outputRoot := args[0], args[1]

	cliConfig, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %v", err)
	}

	// Flags take precedence over config file and environment.
	if cmd.Flags().Changed("crop-face") {
		cliConfig.CropFaces = cropFace
	}
	if cmd.Flags().Changed("logfile") {
		cliConfig.Logfile = logfile
	}
	if cmd.Flags().Changed("timeout") {
		cliConfig.TimeoutSeconds = timeoutSecs
	}
	if cmd.Flags().Changed("max-retries") {
		cliConfig.MaxRetries = maxRetries
	}
	if cmd.Flags().Changed("start-at-line") {
		cliConfig.StartAtLine = startAtLine
	}
	if cmd.Flags().Changed("end-at-line") {
		cliConfig.EndAtLine = endAtLine
	}
	if cmd.Flags().Changed("user-agent") {
		cliConfig.UserAgent = userAgent
	}
	if cmd.Flags().Changed("progress") {
		cliConfig.ShowProgress = showProgress
	}

	if err := cliConfig.Validate(); err != nil {
		return fmt.Errorf("configuration error: %v", err)
	}

	// Fatal pre-flight checks: missing manifest or unusable output root end
	// the run before any row is visited.
	if err := manifest.Validate(manifestPath); err != nil {
		return err
	}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return fmt.Errorf("could not create output root %s: %v", outputRoot, err)
	}

	logger, diagFile := logging.New(filepath.Join(outputRoot, diagLogName))
	if diagFile != nil {
		defer diagFile.Close()
	}

	lock, err := storage.AcquireLock(outputRoot, logger)
	if err != nil {
		return err
	}
	defer lock.Release()

	failureLog, err := logging.OpenFailureLog(cliConfig.Logfile)
	if err != nil {
		return err
	}
	defer failureLog.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var progress pipeline.ProgressSink
	if cliConfig.ShowProgress {
		progress = newDownloadBar(manifestPath, cliConfig.StartAtLine, cliConfig.EndAtLine)
	}

	pipelineConfig := cliConfig.ToPipelineConfig(manifestPath, outputRoot)
	p, err := pipeline.New(pipelineConfig, failureLog, progress, logger)
	if err != nil {
		return err
	}

	stats, runErr := p.Run(ctx)

	rpt := report.Build(pipelineConfig, stats, failureLog.Lines())
	if err := rpt.Write(outputRoot); err != nil {
		logger.Error("Failed to write run report.", "error", err)
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nDone. %s\n", stats.String())
	return nil
}

// newDownloadBar sizes a progress bar to the number of in-range data lines.
// When the manifest cannot be pre-counted the bar falls back to a spinner.
func newDownloadBar(manifestPath string, startAt, endAt int) *progressbar.ProgressBar {
	total := int64(-1)
	if stats, err := manifest.Collect(manifestPath); err == nil {
		first := 1
		if startAt > 0 {
			first = startAt
		}
		last := stats.DataLines
		if endAt > 0 && endAt < last {
			last = endAt
		}
		if n := last - first + 1; n > 0 {
			total = int64(n)
		} else {
			total = 0
		}
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}
