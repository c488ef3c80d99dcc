// Package storage derives output paths for the dataset tree and persists
// downloaded bytes under them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	imagesDir = "images"
	facesDir  = "faces"
)

// ImagePath returns the deterministic path for a full image:
// <root>/images/<name>_<image_id>.<ext>.
func ImagePath(root, name, imageID, ext string) string {
	filename := fmt.Sprintf("%s_%s.%s", sanitizeName(name), imageID, ext)
	return filepath.Join(root, imagesDir, filename)
}

// FacePath returns the deterministic path for a cropped face:
// <root>/faces/<name>_<image_id>_<face_id>.<ext>.
func FacePath(root, name, imageID, faceID, ext string) string {
	filename := fmt.Sprintf("%s_%s_%s.%s", sanitizeName(name), imageID, faceID, ext)
	return filepath.Join(root, facesDir, filename)
}

// sanitizeName makes a person name safe for filenames. Spaces become
// underscores; path separators are stripped.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.ReplaceAll(name, "/", "_")
	return name
}

// Write persists data at path, creating missing parent directories first.
// The write goes through a temp file and a rename so a crashed run never
// leaves a half-written image behind. An existing file at path is replaced
// silently, which keeps re-runs idempotent.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".facefetch-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// CreateTemp opens 0600; the dataset files should be readable like the
	// 0755 directories around them.
	if err := tempFile.Chmod(0644); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to set permissions for %s: %w", path, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tempFile.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}
