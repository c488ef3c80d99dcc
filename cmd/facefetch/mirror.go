package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lightalchemist/facefetch/internal/logging"
	"github.com/lightalchemist/facefetch/internal/mirror"
	"github.com/lightalchemist/facefetch/internal/report"
)

var (
	mirrorBucket string
	mirrorRegion string
	mirrorPrefix string
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror <output_root>",
	Short: "Upload a finished dataset tree to S3",
	Long: `Upload the images/ and faces/ directories (and the run report) of a
finished download to an S3 bucket. Credentials come from the standard AWS
chain: environment variables, IAM roles, or profiles.

Example:
  facefetch mirror actors/ --bucket my-datasets --region us-east-1 --prefix facescrub/actors`,
	Args: cobra.ExactArgs(1),
	RunE: runMirror,
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorBucket, "bucket", "", "Destination S3 bucket (required)")
	mirrorCmd.Flags().StringVar(&mirrorRegion, "region", "us-east-1", "AWS region of the bucket")
	mirrorCmd.Flags().StringVar(&mirrorPrefix, "prefix", "", "Key prefix for uploaded objects")
	mirrorCmd.MarkFlagRequired("bucket")
}

func runMirror(cmd *cobra.Command, args []string) error {
	outputRoot := args[0]

	logger, _ := logging.New("")

	// Pre-flight: a finished run leaves a report behind. Its absence usually
	// means the wrong directory; mirror anyway, but say so.
	if rpt, err := report.Read(outputRoot); err == nil {
		logger.Info("Mirroring a finished run.",
			"rows_visited", rpt.RowsVisited, "succeeded", rpt.Succeeded, "failed", rpt.Failed)
	} else {
		logger.Warn("No readable run report in output root.", "path", outputRoot, "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	uploader, err := mirror.New(ctx, mirrorRegion, mirrorBucket, mirrorPrefix, logger)
	if err != nil {
		return err
	}

	stats, err := uploader.SyncTree(ctx, outputRoot)
	if err != nil {
		return err
	}

	fmt.Println(stats.String())
	if stats.FilesFailed > 0 {
		return fmt.Errorf("%d files failed to upload", stats.FilesFailed)
	}
	return nil
}
