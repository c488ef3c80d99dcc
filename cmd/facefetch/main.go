package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "facefetch",
	Short: "FaceScrub dataset downloader",
	Long: `facefetch bulk-downloads a labeled face-image dataset from a tab-separated
manifest of remote URLs, validates every downloaded file, optionally crops the
face region out of it, and writes results to a structured output directory.

Features:
  - Per-row retry policy with transient/permanent failure classification
  - File types inferred from content, never from the URL
  - Face crops clamped to image bounds
  - Resumable runs via --start-at-line/--end-at-line
  - Uniform failure log: "Line <n>: <error message>: <url>"
  - Optional S3 mirroring of a finished dataset tree

Examples:
  facefetch download actors_users_normal_bbox.txt actors/
  facefetch download actors_users_normal_bbox.txt actors/ --crop-face --timeout=10
  facefetch info actors_users_normal_bbox.txt
  facefetch mirror actors/ --bucket my-datasets --region us-east-1`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("facefetch v%s\n", version)
		fmt.Println("Use 'facefetch --help' for available commands")
		fmt.Println("Use 'facefetch download --help' for download options")
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
