package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightalchemist/facefetch/internal/manifest"
)

var infoCmd = &cobra.Command{
	Use:   "info <manifest>",
	Short: "Summarize a manifest without downloading anything",
	Long: `Scan the manifest and report how many data rows it holds, how many carry
bounding boxes and checksums, and how many are unparseable.

Example:
  facefetch info actors_users_normal_bbox.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	stats, err := manifest.Collect(args[0])
	if err != nil {
		return err
	}

	fmt.Println(stats.String())
	return nil
}
