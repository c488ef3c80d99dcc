package manifest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Buffer size for manifest lines; some rows carry very long URLs.
const maxLineBytes = 1024 * 1024

// Validate checks that the manifest file exists and is readable before a
// run starts. Failures here are fatal for the whole run.
func Validate(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("manifest path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file does not exist: %s", path)
		}
		return fmt.Errorf("cannot access manifest file %s: %v", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("manifest file is empty: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open manifest file %s: %v", path, err)
	}
	file.Close()

	return nil
}

// Scan streams the manifest's data lines to visit. The first line is the
// header and is discarded. Line numbers are 1-based over data lines. Lines
// before startAt or after endAt (both inclusive; zero means unbounded) are
// never parsed and never visited. A non-nil error from visit stops the scan.
func Scan(path string, startAt, endAt int, visit func(line string, lineNumber int) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest %s: %v", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, maxLineBytes), maxLineBytes)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read manifest header: %v", err)
		}
		return nil // Header-only or empty file: nothing to visit.
	}

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if startAt > 0 && lineNumber < startAt {
			continue
		}
		if endAt > 0 && lineNumber > endAt {
			break
		}
		if err := visit(scanner.Text(), lineNumber); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read manifest: %v", err)
	}

	return nil
}

// Stats summarizes a manifest without downloading anything.
type Stats struct {
	Path          string
	DataLines     int
	WithChecksum  int
	WithBBox      int
	ParseFailures int
}

// Collect scans the whole manifest and tallies Stats for the info command.
func Collect(path string) (*Stats, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}

	stats := &Stats{Path: path}
	err := Scan(path, 0, 0, func(line string, lineNumber int) error {
		stats.DataLines++
		row, err := ParseRow(line, lineNumber)
		if err != nil {
			stats.ParseFailures++
			return nil
		}
		if row.SHA256 != "" {
			stats.WithChecksum++
		}
		if row.HasBBox {
			stats.WithBBox++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// String returns a one-line summary of the manifest stats.
func (s *Stats) String() string {
	return fmt.Sprintf("%s: %d rows (%d with bounding box, %d with checksum, %d unparseable)",
		s.Path, s.DataLines, s.WithBBox, s.WithChecksum, s.ParseFailures)
}
