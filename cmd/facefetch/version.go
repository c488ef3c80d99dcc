package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display detailed version information including build details and runtime information.`,
	Run:   runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("facefetch\n")
	fmt.Printf("=========\n\n")

	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", commit)
	fmt.Printf("Build Date: %s\n", date)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)

	fmt.Printf("\nFeatures:\n")
	fmt.Printf("  ✓ Sequential, line-ordered download pipeline\n")
	fmt.Printf("  ✓ Retry policy with transient/permanent classification\n")
	fmt.Printf("  ✓ Content-based image validation (jpeg/png/gif/bmp/tiff/webp)\n")
	fmt.Printf("  ✓ Face cropping clamped to image bounds\n")
	fmt.Printf("  ✓ Resumable line ranges\n")
	fmt.Printf("  ✓ S3 dataset mirroring\n")
}
